package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/qq8244353/lineWorkflowBridge/pkg/bridge"
	"github.com/qq8244353/lineWorkflowBridge/pkg/config"
	"github.com/qq8244353/lineWorkflowBridge/pkg/logging"
)

func main() {
	cfg, err := config.Loader{}.Load(context.Background())
	if err != nil {
		logging.New(os.Stderr, "info", "json").Fatal("load config failed", "error", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat).With("host", "lambda")
	h := bridge.FromConfig(cfg, logger)
	logger.Info("lambda handler starting", "app_id", cfg.AppID)
	lambda.Start(h.HandleAPIGateway)
}
