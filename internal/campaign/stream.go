package campaign

import (
	"context"

	"synapse/internal/config"
	"synapse/internal/types"
)

// UpdateKind tags what changed in an Update.
type UpdateKind int

const (
	UpdateStatus  UpdateKind = iota // message only
	UpdateSources                   // search sources set
	UpdateDebrief                   // strategic debrief set
	UpdatePosts                     // posts appended (see Added)
	UpdateDone                      // terminal update with the complete result
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateStatus:
		return "status"
	case UpdateSources:
		return "sources"
	case UpdateDebrief:
		return "debrief"
	case UpdatePosts:
		return "posts"
	case UpdateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Update is one pipeline event. Result is a snapshot of everything produced
// so far; Added holds the posts appended by an UpdatePosts event.
type Update struct {
	Kind    UpdateKind
	Message string
	Result  types.CampaignResult
	Added   []types.Post
}

// Stream runs a campaign and delivers its updates on a channel. The update
// channel closes when the run ends; the error channel then yields the run's
// error, if any, and closes. Cancelling ctx stops the run at the next phase
// or batch boundary; updates produced after cancellation are dropped.
func (e *Engine) Stream(ctx context.Context, input string, settings config.Settings, platforms []types.Platform) (<-chan Update, <-chan error) {
	updates := make(chan Update, 16)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		err := e.execute(ctx, input, settings, platforms, func(u Update) {
			select {
			case updates <- u:
			case <-ctx.Done():
			}
		})
		close(updates)
		if err != nil {
			errc <- err
		}
	}()

	return updates, errc
}
