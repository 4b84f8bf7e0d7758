package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cacheCmd groups essence cache maintenance
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the essence cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show durable and session cache occupancy",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached essence",
	RunE:  runCacheClear,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired durable entries",
	RunE:  runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	caches, err := openCaches()
	if err != nil {
		return err
	}
	defer caches.Close()

	ctx, cancel := commandContext()
	defer cancel()

	durable, session, err := caches.essences.Stats(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (%s)\n", phaseStyle.Render("durable:"), durable, settings.Cache.Backend)
	fmt.Fprintf(out, "%s %s\n", phaseStyle.Render("session:"), session)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	caches, err := openCaches()
	if err != nil {
		return err
	}
	defer caches.Close()

	ctx, cancel := commandContext()
	defer cancel()

	if err := caches.essences.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), doneStyle.Render("✓ Essence cache cleared"))
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	caches, err := openCaches()
	if err != nil {
		return err
	}
	defer caches.Close()

	ctx, cancel := commandContext()
	defer cancel()

	n, err := caches.purge(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), doneStyle.Render(fmt.Sprintf("✓ Purged %d expired entries", n)))
	return nil
}
