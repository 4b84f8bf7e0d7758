package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"synapse/internal/config"
)

var forceInit bool

// configCmd groups settings helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the settings file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default settings file",
	Long: `Writes the default settings to --config. API keys are left empty; set
them in the file, in a .env file, or through GEMINI_API_KEY, OPENAI_API_KEY
and OPENROUTER_API_KEY.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings with API keys masked",
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing settings file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	if err := config.DefaultSettings().Save(configPath); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), doneStyle.Render("✓ Wrote "+configPath))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	s := settings
	s.APIKeys.Gemini = maskKey(s.APIKeys.Gemini)
	s.APIKeys.OpenAI = maskKey(s.APIKeys.OpenAI)
	s.APIKeys.OpenRouter = maskKey(s.APIKeys.OpenRouter)

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	if err != nil {
		return err
	}
	if verr := settings.Validate(); verr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("! ")+verr.Error())
	}
	return nil
}

// maskKey keeps the last four characters of a credential.
func maskKey(k string) string {
	if k == "" {
		return ""
	}
	if len(k) <= 4 {
		return "****"
	}
	return "****" + k[len(k)-4:]
}
