package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	acm "github.com/confhub/acm-client-go"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch one config item and print every change until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return fmt.Errorf("build client: %w", err)
		}
		defer client.Close()

		if err := client.AddWatcher(dataID, group, printWatcher{}); err != nil {
			return err
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		return nil
	},
}

type printWatcher struct{}

func (printWatcher) OnChange(e acm.ChangeEvent) {
	fmt.Printf("changed: dataId=%s group=%s namespace=%s content=%q\n", e.DataID, e.Group, e.Namespace, e.Content)
}
