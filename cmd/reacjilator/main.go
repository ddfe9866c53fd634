// Command reacjilator runs the translator outside Lambda for local
// development and one-off maintenance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pricofy/slack-translator/internal/app"
	"github.com/pricofy/slack-translator/internal/config"
)

var envFile string

func main() {
	root := &cobra.Command{
		Use:           "reacjilator",
		Short:         "Slack reaction translator powered by DeepL",
		Long:          "Runs the reaction translator against Slack over Socket Mode, or performs single maintenance and translation runs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&envFile, "env", ".env", "path to a .env file loaded before the configuration")

	root.AddCommand(socketCmd())
	root.AddCommand(maintainCmd())
	root.AddCommand(translateCmd())
	root.AddCommand(escapeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadApp reads the env file and the configuration and wires the app.
func loadApp() (*app.App, error) {
	if _, err := config.LoadEnvFile(envFile, ".env"); err != nil && envFile != ".env" {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}
