package main

import (
	"context"
	"fmt"
	"os"

	"github.com/qq8244353/lineWorkflowBridge/pkg/config"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "LINE webhook bridge to a workflow engine",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "optional YAML config file")
}

func loadConfig(ctx context.Context) (config.Config, error) {
	cfg, err := config.Loader{File: cfgPath}.Load(ctx)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
