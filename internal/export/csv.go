// Package export renders campaign results for people and spreadsheets.
package export

import (
	"strconv"
	"strings"

	"synapse/internal/logging"
	"synapse/internal/types"
)

// CSVHeader is the column order of BuildPostsCSV.
var CSVHeader = []string{
	"platform", "versionA", "versionB", "angleA", "angleB",
	"viralScore", "whyThisWorks", "imagePrompt", "sourceUrl",
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ")

// BuildPostsCSV renders posts as CSV: a header row, one row per post, rows
// joined by "\n" with no trailing newline. Embedded newlines become spaces;
// fields containing a comma or quote are quoted with inner quotes doubled.
// The output is a pure function of posts.
func BuildPostsCSV(posts []types.Post) string {
	var b strings.Builder
	writeRow(&b, CSVHeader)
	for _, p := range posts {
		b.WriteByte('\n')
		writeRow(&b, []string{
			string(p.Platform),
			flatten(p.VersionA),
			flatten(p.VersionB),
			flatten(p.AngleA),
			flatten(p.AngleB),
			strconv.Itoa(p.ViralScore),
			flatten(p.WhyThisWorks),
			flatten(p.ImagePrompt),
			p.SourceURL,
		})
	}
	logging.ExportDebug("Built CSV for %d posts", len(posts))
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quote(f))
	}
}

func flatten(s string) string {
	return newlines.Replace(s)
}

func quote(f string) string {
	if !strings.ContainsAny(f, "\",\n\r") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}
