package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"synapse/internal/campaign"
)

var imageOut string

// imageCmd renders an image prompt through the configured provider
var imageCmd = &cobra.Command{
	Use:   "image [prompt]",
	Short: "Generate a 16:9 image for a post's image prompt",
	Long: `Generates one image for the given prompt. Without --out the data URI is
printed; with --out the decoded image bytes are written to the file.

Requires a provider with image support (gemini or openai).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImage,
}

func init() {
	imageCmd.Flags().StringVarP(&imageOut, "out", "o", "", "Write the decoded image to a file")
}

func runImage(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	prompt := strings.Join(args, " ")
	logger.Info("Generating image", zap.String("provider", settings.Provider), zap.Int("prompt_len", len(prompt)))

	eng := campaign.NewEngine(campaign.EngineConfig{})
	uri, err := eng.GenerateImageForPrompt(ctx, prompt, settings)
	if err != nil {
		return err
	}

	if imageOut == "" {
		fmt.Fprintln(cmd.OutOrStdout(), uri)
		return nil
	}
	data, err := decodeDataURI(uri)
	if err != nil {
		return err
	}
	if err := os.WriteFile(imageOut, data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), doneStyle.Render(fmt.Sprintf("✓ Wrote %d bytes to %s", len(data), imageOut)))
	return nil
}

// decodeDataURI returns the payload of a base64 data URI.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("not a base64 data URI")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return data, nil
}
