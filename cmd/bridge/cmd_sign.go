package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/qq8244353/lineWorkflowBridge/pkg/msgtask"
	"github.com/spf13/cobra"
)

var signSecret string

func init() {
	signCmd.Flags().StringVar(&signSecret, "secret", "", "channel secret (defaults to LINE_CHANNEL_SECRET)")
	rootCmd.AddCommand(signCmd)
}

var signCmd = &cobra.Command{
	Use:   "sign [file]",
	Short: "Print the X-Line-Signature for a request body read from file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Trimmed the same way the config loader trims it.
		secret := strings.TrimSpace(signSecret)
		if secret == "" {
			secret = strings.TrimSpace(os.Getenv("LINE_CHANNEL_SECRET"))
		}
		if secret == "" {
			return fmt.Errorf("channel secret is required (--secret or LINE_CHANNEL_SECRET)")
		}

		var r io.Reader = cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		body, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msgtask.Sign(body, secret))
		return nil
	},
}
