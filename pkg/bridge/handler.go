package bridge

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
	"github.com/qq8244353/lineWorkflowBridge/pkg/msgtask"
	"github.com/qq8244353/lineWorkflowBridge/pkg/wftask"
)

type Config struct {
	ChannelSecret string
	AppID         string
	// DefaultUser is sent to the workflow engine when an event has no user id.
	DefaultUser string
	Invoker     wftask.Invoker
	Replier     msgtask.Replier
	Logger      glog.Logger
	// NotificationDisabled sends replies without a push notification.
	NotificationDisabled bool
	// NewID returns delivery ids for log correlation. Defaults to uuid.NewString.
	NewID func() string
}

// Handler turns one webhook delivery into at most one reply per text event.
// It keeps no state between deliveries.
type Handler struct {
	verifier    msgtask.SignatureVerifier
	appID       string
	defaultUser string
	invoker     wftask.Invoker
	replier     msgtask.Replier
	logger      glog.Logger
	newID       func() string
	silent      bool
}

func NewHandler(cfg Config) *Handler {
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Handler{
		verifier:    msgtask.SignatureVerifier{Secret: cfg.ChannelSecret},
		appID:       cfg.AppID,
		defaultUser: cfg.DefaultUser,
		invoker:     cfg.Invoker,
		replier:     cfg.Replier,
		logger:      glog.Ensure(cfg.Logger),
		newID:       newID,
		silent:      cfg.NotificationDisabled,
	}
}

// Outcome summarizes what happened to a delivery. It is only used for
// logging and tests; the platform always receives 200.
type Outcome struct {
	DeliveryID string
	Rejected   bool
	Events     int
	Replied    int
	Skipped    int
	Failures   []error
}

func (h *Handler) Handle(ctx context.Context, body []byte, signature string) Outcome {
	out := Outcome{DeliveryID: h.newID()}
	logger := h.logger.WithContext(ctx)

	if err := h.verifier.Verify(body, signature); err != nil {
		out.Rejected = true
		logger.Warn("webhook rejected", append([]any{"delivery_id", out.DeliveryID}, classify(err)...)...)
		return out
	}

	hevents, err := msgtask.ParseHookEvents(body)
	if err != nil {
		err = payloadError(err)
		out.Failures = append(out.Failures, err)
		logger.Warn("webhook payload skipped", append([]any{"delivery_id", out.DeliveryID}, classify(err)...)...)
		return out
	}
	out.Events = len(hevents.Events)

	for _, e := range hevents.Events {
		replied, err := h.handleEvent(ctx, logger, out.DeliveryID, e)
		if err != nil {
			out.Failures = append(out.Failures, err)
			fields := []any{"delivery_id", out.DeliveryID, "webhook_event_id", e.WebhookEventId}
			logger.Error("event failed", append(fields, classify(err)...)...)
			continue
		}
		if replied {
			out.Replied++
		} else {
			out.Skipped++
		}
	}

	logger.Info("webhook handled",
		"delivery_id", out.DeliveryID,
		"events", out.Events,
		"replied", out.Replied,
		"skipped", out.Skipped,
		"failed", len(out.Failures),
	)
	return out
}

func (h *Handler) handleEvent(ctx context.Context, logger glog.Logger, deliveryID string, e msgtask.HookEvent) (bool, error) {
	if e.IsStandby() {
		return false, nil
	}
	text, ok := e.TextMessage()
	if !ok {
		return false, nil
	}
	if !msgtask.ShouldRespond(e) {
		logger.Debug("event not addressed to bot", "delivery_id", deliveryID, "source", e.Source.Type)
		return false, nil
	}

	user := e.Source.UserId
	if user == "" {
		user = h.defaultUser
	}
	result, err := h.invoker.Invoke(ctx, wftask.Request{
		AppID:       h.appID,
		MessageText: text,
		User:        user,
	})
	if err != nil {
		return false, err
	}
	if engineErr := result.EngineError(); engineErr != "" {
		logger.Warn("workflow reported error",
			"delivery_id", deliveryID,
			"workflow_run_id", result.WorkflowRunID,
			"engine_error", engineErr,
		)
	}

	output := result.Output()
	if output == "" {
		logger.Info("workflow output empty, no reply", "delivery_id", deliveryID, "workflow_run_id", result.WorkflowRunID)
		return false, nil
	}

	messages, truncated := msgtask.TextMessages(output)
	if truncated {
		logger.Warn("workflow output truncated to reply limits", "delivery_id", deliveryID, "length", msgtask.TextLength(output))
	}
	status, err := h.replier.Reply(ctx, &msgtask.Response{
		ReplyToken:           e.ReplyToken,
		Messages:             messages,
		NotificationDisabled: h.silent,
	})
	if err != nil {
		return false, err
	}
	logger.Debug("reply dispatched", "delivery_id", deliveryID, "status", status, "chat_id", e.ChatID())
	return true, nil
}
