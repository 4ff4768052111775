package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var publishContent string

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish one config item",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return fmt.Errorf("build client: %w", err)
		}
		defer client.Close()

		if err := client.Publish(context.Background(), dataID, group, publishContent); err != nil {
			return err
		}
		fmt.Println("published")
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishContent, "content", "", "content to publish")
}
