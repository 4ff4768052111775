package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove one config item",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return fmt.Errorf("build client: %w", err)
		}
		defer client.Close()

		if err := client.Remove(context.Background(), dataID, group); err != nil {
			return err
		}
		fmt.Println("removed")
		return nil
	},
}
