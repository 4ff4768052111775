package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Read one config item",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return fmt.Errorf("build client: %w", err)
		}
		defer client.Close()

		content, ok, err := client.Get(context.Background(), dataID, group)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("(absent)")
			return nil
		}
		fmt.Println(content)
		return nil
	},
}
