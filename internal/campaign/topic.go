package campaign

import (
	"context"

	"synapse/internal/provider"
	"synapse/internal/throttle"
	"synapse/internal/types"
)

// generateForTopic runs SearchOrQuery -> Synthesize -> Done.
func (r *run) generateForTopic(ctx context.Context, topic string) error {
	if r.prov.SupportsSearch() {
		r.status("Performing real-time web search for your topic...")
	} else {
		r.status("Querying AI for your topic...")
	}

	system := topicSystemPrompt(r.platforms)
	req := provider.Request{Schema: provider.CampaignSchema(r.platforms)}

	if r.prov.SupportsSearch() {
		r.status("Phase 1/2: Performing real-time web search and analysis...")
		grounded, err := callProvider(ctx, r, throttle.PriorityHigh, func(ctx context.Context) (provider.Grounded, error) {
			return r.prov.SearchGrounded(ctx, topicSearchPrompt(topic))
		})
		if err != nil {
			return err
		}
		r.result.Sources = grounded.Sources
		r.emit(UpdateSources, "Phase 2/2: Synthesizing campaign from search results...", nil)
		req.User = groundedSynthesisPrompt(system, grounded.Text, topic)
	} else {
		req.System = system
		req.User = topicUserPrompt(topic)
		req.OnProgress = r.progress("Synthesizing campaign (streaming)...")
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	text, err := r.generate(ctx, throttle.PriorityHigh, req)
	if err != nil {
		return err
	}

	r.status(MsgFinalizing)
	parsed, err := ParseStructured[topicResponse](text, "topic campaign")
	if err != nil {
		return err
	}

	debrief := parsed.StrategicDebrief
	r.result.StrategicDebrief = &debrief
	r.result.Posts = append(r.result.Posts, r.finalizePosts(parsed.Posts, types.NoSourceURL)...)
	r.log.Info("topic campaign synthesized: %d posts, %d sources", len(r.result.Posts), len(r.result.Sources))
	r.done()
	return nil
}
