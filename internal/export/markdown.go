package export

import (
	"fmt"
	"strings"

	"synapse/internal/types"
)

// Markdown renders a campaign as a markdown document for terminal display.
func Markdown(result types.CampaignResult) string {
	var b strings.Builder

	b.WriteString("# Campaign\n\n")
	if d := result.StrategicDebrief; d != nil {
		b.WriteString("## Strategic debrief\n\n")
		fmt.Fprintf(&b, "**Synopsis:** %s\n\n", d.CampaignSynopsis)
		fmt.Fprintf(&b, "**Primary audience:** %s\n\n", d.PrimaryAudience)
		fmt.Fprintf(&b, "**Competitive angle:** %s\n\n", d.CompetitiveAngle)
		if len(d.KeyThemes) > 0 {
			b.WriteString("**Key themes:**\n\n")
			for _, theme := range d.KeyThemes {
				fmt.Fprintf(&b, "- %s\n", theme)
			}
			b.WriteString("\n")
		}
	}

	if len(result.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		for _, s := range result.Sources {
			title := s.Title
			if title == "" {
				title = s.URI
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", title, s.URI)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Posts (%d)\n\n", len(result.Posts))
	for i, p := range result.Posts {
		fmt.Fprintf(&b, "### %d. %s (score %d)\n\n", i+1, p.Platform, p.ViralScore)
		fmt.Fprintf(&b, "**A: %s**\n\n%s\n\n", orDash(p.AngleA), p.VersionA)
		fmt.Fprintf(&b, "**B: %s**\n\n%s\n\n", orDash(p.AngleB), p.VersionB)
		if p.WhyThisWorks != "" {
			fmt.Fprintf(&b, "_Why this works:_ %s\n\n", p.WhyThisWorks)
		}
		if p.ImagePrompt != "" {
			fmt.Fprintf(&b, "_Image prompt:_ %s\n\n", p.ImagePrompt)
		}
		if p.SourceURL != "" && p.SourceURL != types.NoSourceURL {
			fmt.Fprintf(&b, "_Source:_ %s\n\n", p.SourceURL)
		}
	}

	if m := result.Metrics; m != nil && m.TotalPosts > 0 {
		b.WriteString("## Metrics\n\n")
		fmt.Fprintf(&b, "- Average viral score: %.1f\n", m.AverageViralScore)
		if m.TopPlatform != "" {
			fmt.Fprintf(&b, "- Top platform: %s\n", m.TopPlatform)
		}
		for _, p := range types.AllPlatforms {
			if n := m.PlatformDistribution[p]; n > 0 {
				fmt.Fprintf(&b, "- %s: %d\n", p, n)
			}
		}
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
