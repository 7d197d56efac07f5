package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akinalp/circles/pkg/webpush"
)

var vapidKeysCmd = &cobra.Command{
	Use:   "vapid-keys",
	Short: "Print a new VAPID key pair for web push",
	Long: `Generates a VAPID key pair and prints it as .env lines. Rotating the
pair invalidates every stored browser subscription.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		publicKey, privateKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			return fmt.Errorf("failed to generate VAPID keys: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", publicKey, privateKey)
		return nil
	},
}
