package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/sci-dl/internal/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Initialize sci-dl configuration",
	Long: `Init-config asks for each setting, offering a default in brackets, and
writes the answers to the config file. Press enter to accept a default.

Proxy credentials can be left blank here and placed in the secrets
directory instead (files proxy-user and proxy-password).`,
	RunE: runInitConfig,
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path, err := configPath(cmd)
	if err != nil {
		return classify(err)
	}

	w := config.NewWizard(cmd.InOrStdin(), cmd.OutOrStdout())
	cfg, err := w.Run()
	if err != nil {
		return classify(err)
	}
	if err := config.Write(path, cfg); err != nil {
		return classify(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configurations saved, you can edit %q if needed.\n", path)
	return nil
}
