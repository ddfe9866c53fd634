package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pricofy/slack-translator/internal/handler"
	"github.com/pricofy/slack-translator/internal/logging"
	"github.com/pricofy/slack-translator/internal/markup"
)

func maintainCmd() *cobra.Command {
	var workflow string

	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Re-join every channel of the translator trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Shutdown(cmd.Context()) }()

			ctx, _ := logging.WithInvocation(cmd.Context(), a.Logger, "maintain")
			resp, err := a.Handler.MaintainMembership(ctx, handler.MaintainRequest{WorkflowCallbackID: workflow})
			if err != nil {
				return err
			}
			if resp.Error != "" {
				return errors.New(resp.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "membership maintained")
			return nil
		},
	}

	cmd.Flags().StringVar(&workflow, "workflow", "", "workflow callback id (default: REACJILATOR_WORKFLOW_CALLBACK_ID)")
	return cmd
}

func translateCmd() *cobra.Command {
	var req handler.TranslateRequest

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate one message into its thread",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Shutdown(cmd.Context()) }()

			ctx, _ := logging.WithInvocation(cmd.Context(), a.Logger, "translate")
			resp, err := a.Handler.Translate(ctx, req)
			if err != nil {
				return err
			}
			if resp.Error != "" {
				return errors.New(resp.Error)
			}
			if ts := resp.Outputs["ts"]; ts != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "posted %s\n", ts)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "skipped")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ChannelID, "channel", "", "channel id of the message")
	cmd.Flags().StringVar(&req.MessageTs, "ts", "", "timestamp of the message")
	cmd.Flags().StringVar(&req.ThreadTs, "thread-ts", "", "thread timestamp when the message is a reply")
	cmd.Flags().StringVar(&req.Lang, "lang", "", "target language")
	cmd.Flags().StringVar(&req.Reaction, "reaction", "", "reaction to resolve the language from")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("ts")
	return cmd
}

func escapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "escape [text]",
		Short: "Print the protected form of a message text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), markup.Escape(args[0]))
			return nil
		},
	}
}
