package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"synapse/internal/campaign"
	"synapse/internal/types"
)

var (
	platformNames []string
	outputFormat  string
	outputPath    string
	noCache       bool
)

// generateCmd runs the campaign pipeline
var generateCmd = &cobra.Command{
	Use:   "generate [topic | urls...]",
	Short: "Generate a campaign from a topic or a list of URLs",
	Long: `Generates a social media campaign. Arguments are joined into one input;
if any of them look like URLs the URL pipeline runs, otherwise the input is
treated as a topic.

Examples:
  synapse generate "future of solar panels"
  synapse generate https://example.com/a https://example.com/b --platforms X,LinkedIn
  synapse generate "remote work" --format csv --out posts.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	names := make([]string, len(types.AllPlatforms))
	for i, p := range types.AllPlatforms {
		names[i] = string(p)
	}
	generateCmd.Flags().StringSliceVarP(&platformNames, "platforms", "p", names, "Target platforms")
	generateCmd.Flags().StringVarP(&outputFormat, "format", "f", formatPretty, "Output format: pretty, json, csv")
	generateCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Write the result to a file instead of stdout")
	generateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the essence cache for this run")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	platforms, err := types.ParsePlatforms(platformNames)
	if err != nil {
		return err
	}
	if noCache {
		settings.Performance.EnableCache = false
	}

	caches, err := openCaches()
	if err != nil {
		return err
	}
	defer caches.Close()

	eng := campaign.NewEngine(campaign.EngineConfig{Essences: caches.essences})

	ctx, cancel := commandContext()
	defer cancel()

	input := strings.Join(args, " ")
	logger.Info("Generating campaign",
		zap.String("input", input),
		zap.Int("platforms", len(platforms)),
		zap.String("provider", settings.Provider))

	updates, errc := eng.Stream(ctx, input, settings, platforms)
	var final types.CampaignResult
	for u := range updates {
		printUpdate(cmd.ErrOrStderr(), u)
		final = u.Result
	}
	if err := <-errc; err != nil {
		return err
	}
	for name, m := range eng.LimiterMetrics() {
		logger.Debug("Limiter metrics",
			zap.String("limiter", name),
			zap.Int64("completed", m.Completed),
			zap.Int64("failed", m.Failed))
	}

	var w io.Writer = cmd.OutOrStdout()
	render := true
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w, render = f, false
	}
	return writeResult(w, outputFormat, final, render)
}
