package msgtask

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	glog "github.com/goliatone/go-logger/glog"
)

const (
	DefaultReplyEndpoint = "https://api.line.me/v2/bot/message/reply"
	DefaultReplyTimeout  = 10 * time.Second

	// LINE rejects text messages above this many characters, counted in
	// UTF-16 code units, and replies carrying more than MaxReplyMessages
	// messages.
	MaxTextLength    = 5000
	MaxReplyMessages = 5
)

type Response struct {
	ReplyToken           string    `json:"replyToken"`
	Messages             []Message `json:"messages"`
	NotificationDisabled bool      `json:"notificationDisabled,omitempty"`
}

type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Replier posts a reply for a single webhook event. It returns the HTTP
// status reported by the messaging API.
type Replier interface {
	Reply(ctx context.Context, reqStruct *Response) (int, error)
}

type ReplyConfig struct {
	Endpoint    string
	AccessToken string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      glog.Logger
}

type Client struct {
	endpoint    string
	accessToken string
	timeout     time.Duration
	httpClient  *http.Client
	logger      glog.Logger
}

func NewClient(cfg ReplyConfig) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultReplyEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint:    endpoint,
		accessToken: strings.TrimSpace(cfg.AccessToken),
		timeout:     timeout,
		httpClient:  httpClient,
		logger:      glog.Ensure(cfg.Logger),
	}
}

// errorBody is the error payload of the messaging API.
type errorBody struct {
	Message string `json:"message"`
	Details []struct {
		Message  string `json:"message"`
		Property string `json:"property"`
	} `json:"details"`
}

// Reply sends reqStruct once. Non-2xx statuses are returned as errors
// together with the status; nothing is retried.
func (c *Client) Reply(ctx context.Context, reqStruct *Response) (int, error) {
	if reqStruct == nil || strings.TrimSpace(reqStruct.ReplyToken) == "" {
		return 0, replyError(nil, "msgtask: reply token is required", 0, nil)
	}
	if len(reqStruct.Messages) == 0 {
		return 0, replyError(nil, "msgtask: reply requires at least one message", 0, nil)
	}
	reqJson, err := json.Marshal(reqStruct)
	if err != nil {
		return 0, replyError(err, "msgtask: encode reply", 0, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqJson))
	if err != nil {
		return 0, replyError(err, "msgtask: build reply request", 0, nil)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, replyError(err, "msgtask: send reply", 0, nil)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	c.logger.Debug("reply sent", "status", resp.StatusCode, "messages", len(reqStruct.Messages))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metadata := map[string]any{"status": resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
			metadata["line_message"] = eb.Message
			if len(eb.Details) > 0 {
				details := make([]string, 0, len(eb.Details))
				for _, d := range eb.Details {
					details = append(details, fmt.Sprintf("%s: %s", d.Property, d.Message))
				}
				metadata["line_details"] = details
			}
		}
		return resp.StatusCode, replyError(nil, fmt.Sprintf("msgtask: reply returned status %d", resp.StatusCode), resp.StatusCode, metadata)
	}
	return resp.StatusCode, nil
}

// TextMessages splits text into reply message parts that fit the messaging
// API limits. The second result reports whether text had to be cut.
func TextMessages(text string) ([]Message, bool) {
	if text == "" {
		return nil, false
	}
	msgs := []Message{}
	rest := text
	for rest != "" && len(msgs) < MaxReplyMessages {
		cut := splitIndex(rest, MaxTextLength)
		msgs = append(msgs, Message{Type: MessageTypeText, Text: rest[:cut]})
		rest = rest[cut:]
	}
	return msgs, rest != ""
}

// TextLength returns the length of s as the messaging API counts it.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// splitIndex returns the byte offset of the longest prefix of s that fits in
// limit UTF-16 code units. A surrogate pair is never split.
func splitIndex(s string, limit int) int {
	units := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if units+n > limit {
			return i
		}
		units += n
	}
	return len(s)
}
