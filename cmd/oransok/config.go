package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MicheleGuerra/SOK-Oran-Security/cmd/oransok/internal"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing configuration file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	masked := config.Masked(app.cfg)
	if globalFlags.GetOutputFormat() == internal.FormatJSON {
		return formatter(cmd).PrintJSON(masked)
	}

	data, err := yaml.Marshal(masked)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to encode configuration", err)
	}
	info(cmd.ErrOrStderr(), "# %s\n", app.configPath)
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := app.configPath
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return internal.NewCLIError(internal.ExitConfigError,
			fmt.Sprintf("%s already exists (use --force to overwrite)", path))
	}
	if err := config.Save(config.DefaultConfig(), path); err != nil {
		return err
	}
	return formatter(cmd).PrintSuccess("Wrote " + path)
}
