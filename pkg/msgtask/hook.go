package msgtask

import (
	"encoding/json"
)

const (
	EventTypeMessage = "message"

	MessageTypeText = "text"

	SourceTypeUser  = "user"
	SourceTypeGroup = "group"
	SourceTypeRoom  = "room"

	ModeActive  = "active"
	ModeStandby = "standby"
)

type EventKind int

const (
	EventKindOther EventKind = iota
	EventKindMessage
)

// HookEvents is the webhook request body sent by the LINE platform.
type HookEvents struct {
	Destination string      `json:"destination"`
	Events      []HookEvent `json:"events"`
}

type HookEvent struct {
	Type            string          `json:"type"`
	Mode            string          `json:"mode"`
	Timestamp       int64           `json:"timestamp"`
	WebhookEventId  string          `json:"webhookEventId"`
	DeliveryContext DeliveryContext `json:"deliveryContext"`
	Source          Source          `json:"source"`
	ReplyToken      string          `json:"replyToken"`
	Message         *EventMessage   `json:"message,omitempty"`
}

type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

type Source struct {
	Type    string `json:"type"`
	UserId  string `json:"userId"`
	GroupId string `json:"groupId"`
	RoomId  string `json:"roomId"`
}

type EventMessage struct {
	Id      string   `json:"id"`
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Mention *Mention `json:"mention,omitempty"`
}

type Mention struct {
	Mentionees []Mentionee `json:"mentionees"`
}

type Mentionee struct {
	Index  int    `json:"index"`
	Length int    `json:"length"`
	Type   string `json:"type"`
	UserId string `json:"userId"`
	IsSelf bool   `json:"isSelf"`
}

// ParseHookEvents decodes a raw webhook body. Unknown fields are ignored.
func ParseHookEvents(body []byte) (*HookEvents, error) {
	hevents := &HookEvents{}
	if err := json.Unmarshal(body, hevents); err != nil {
		return nil, err
	}
	return hevents, nil
}

func (e HookEvent) Kind() EventKind {
	if e.Type == EventTypeMessage && e.Message != nil {
		return EventKindMessage
	}
	return EventKindOther
}

// TextMessage returns the message text when e is a text message event.
func (e HookEvent) TextMessage() (string, bool) {
	if e.Kind() != EventKindMessage || e.Message.Type != MessageTypeText {
		return "", false
	}
	return e.Message.Text, true
}

// IsStandby reports whether the channel is in standby mode for this event.
// Events without a mode are treated as active.
func (e HookEvent) IsStandby() bool {
	return e.Mode == ModeStandby
}

// ChatID returns the id of the conversation the event belongs to.
func (e HookEvent) ChatID() string {
	switch e.Source.Type {
	case SourceTypeGroup:
		return e.Source.GroupId
	case SourceTypeRoom:
		return e.Source.RoomId
	default:
		return e.Source.UserId
	}
}
