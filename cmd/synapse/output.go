package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"synapse/internal/campaign"
	"synapse/internal/export"
	"synapse/internal/types"
)

var (
	primary = lipgloss.Color("#7D56F4")
	success = lipgloss.Color("#04B575")
	muted   = lipgloss.Color("#626262")
	danger  = lipgloss.Color("#FF5F87")

	statusStyle  = lipgloss.NewStyle().Foreground(muted)
	phaseStyle   = lipgloss.NewStyle().Foreground(primary).Bold(true)
	postsStyle   = lipgloss.NewStyle().Foreground(success)
	doneStyle    = lipgloss.NewStyle().Foreground(success).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	counterStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)
)

// Output formats for generate.
const (
	formatPretty = "pretty"
	formatJSON   = "json"
	formatCSV    = "csv"
)

// printUpdate writes one progress line for a pipeline update.
func printUpdate(w io.Writer, u campaign.Update) {
	var line string
	switch u.Kind {
	case campaign.UpdateDone:
		line = doneStyle.Render("✓ " + u.Message)
	case campaign.UpdatePosts:
		line = postsStyle.Render("+ " + u.Message)
	case campaign.UpdateDebrief, campaign.UpdateSources:
		line = phaseStyle.Render("• " + u.Message)
	default:
		if strings.HasPrefix(u.Message, "Phase ") {
			line = phaseStyle.Render("› " + u.Message)
		} else {
			line = statusStyle.Render("› " + u.Message)
		}
	}
	fmt.Fprintf(w, "%s %s\n", line, counterStyle.Render(fmt.Sprintf("(%d posts)", len(u.Result.Posts))))
}

// writeResult renders the finished campaign. Markdown is passed through
// glamour only when rendering for a terminal.
func writeResult(w io.Writer, format string, result types.CampaignResult, render bool) error {
	switch format {
	case formatJSON:
		return export.WriteJSON(w, result)
	case formatCSV:
		_, err := io.WriteString(w, export.BuildPostsCSV(result.Posts)+"\n")
		return err
	case formatPretty:
		md := export.Markdown(result)
		if render {
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err == nil {
				if out, err := r.Render(md); err == nil {
					md = out
				}
			}
		}
		_, err := io.WriteString(w, md)
		return err
	default:
		return fmt.Errorf("unknown format %q (valid: %s, %s, %s)", format, formatPretty, formatJSON, formatCSV)
	}
}
