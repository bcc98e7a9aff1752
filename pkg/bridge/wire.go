package bridge

import (
	glog "github.com/goliatone/go-logger/glog"
	"github.com/qq8244353/lineWorkflowBridge/pkg/config"
	"github.com/qq8244353/lineWorkflowBridge/pkg/msgtask"
	"github.com/qq8244353/lineWorkflowBridge/pkg/wftask"
)

// FromConfig builds a Handler with the HTTP workflow and reply clients.
func FromConfig(cfg config.Config, logger glog.Logger) *Handler {
	return NewHandler(Config{
		ChannelSecret: cfg.ChannelSecret,
		AppID:         cfg.AppID,
		DefaultUser:   cfg.WorkflowUser,
		Invoker: wftask.NewClient(wftask.Config{
			Endpoint: cfg.WorkflowEndpoint,
			APIKey:   cfg.WorkflowAPIKey,
			Timeout:  cfg.WorkflowTimeout(),
			Logger:   logger,
		}),
		Replier: msgtask.NewClient(msgtask.ReplyConfig{
			Endpoint:    cfg.ReplyEndpoint,
			AccessToken: cfg.ChannelAccessToken,
			Timeout:     cfg.ReplyTimeout(),
			Logger:      logger,
		}),
		Logger:               logger,
		NotificationDisabled: cfg.NotificationDisabled,
	})
}
