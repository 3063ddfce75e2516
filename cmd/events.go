/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/frikords/apiserver/config"
	"github.com/frikords/apiserver/internal/mq"
	"github.com/frikords/apiserver/internal/services"
	"github.com/spf13/cobra"
)

var eventsChannel string

// eventsCmd tails domain events from the configured message broker.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail domain events from the message broker",
	Long: `Tail domain events from the message broker. Usage:

	frikords events --channel frikords.moderation
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		bus, err := mq.Connect(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect broker failed: %w", err)
		}
		if bus == nil {
			return errors.New("no message broker configured, set MQ_BACKEND")
		}
		defer func() {
			_ = bus.Close()
		}()

		err = bus.Subscribe(cmd.Context(), eventsChannel, func(_ context.Context, msg mq.Message) error {
			fmt.Printf("%s %s %s\n", msg.Attributes["at"], msg.Attributes["kind"], msg.Data)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().StringVar(&eventsChannel, "channel", services.EventChannelMessages,
		"event channel to tail")
}
