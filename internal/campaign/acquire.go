package campaign

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"synapse/internal/logging"
	"synapse/internal/types"
)

// Acquirer turns URLs into page text. Implementations return documents in
// input order and may omit URLs they could not read.
type Acquirer interface {
	Acquire(ctx context.Context, urls []string) ([]types.Document, error)
}

// StubAcquirer fabricates page text without network access. It waits
// BaseDelay plus PerURLDelay for every URL to mimic fetch latency.
type StubAcquirer struct {
	BaseDelay   time.Duration
	PerURLDelay time.Duration
}

// NewStubAcquirer returns a stub with the default simulated latency.
func NewStubAcquirer() *StubAcquirer {
	return &StubAcquirer{
		BaseDelay:   500 * time.Millisecond,
		PerURLDelay: 50 * time.Millisecond,
	}
}

// Acquire implements Acquirer.
func (s *StubAcquirer) Acquire(ctx context.Context, urls []string) ([]types.Document, error) {
	logging.PipelineDebug("Simulating scraping for %d URLs", len(urls))

	wait := s.BaseDelay + time.Duration(len(urls))*s.PerURLDelay
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	docs := make([]types.Document, 0, len(urls))
	for _, u := range urls {
		docs = append(docs, types.Document{URL: u, Text: simulatedText(u)})
	}
	return docs, nil
}

func simulatedText(raw string) string {
	full := raw
	if !strings.HasPrefix(full, "http") {
		full = "http://" + full
	}
	path := ""
	if parsed, err := url.Parse(full); err == nil {
		path = strings.TrimSpace(strings.ReplaceAll(parsed.Path, "/", " "))
	}
	return fmt.Sprintf("Simulated content for %s. This text represents the extracted article body from the page at %s. "+
		"It contains keywords about technology, AI, and marketing strategies, providing rich material for analysis.", path, raw)
}
