package campaign

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"synapse/internal/cache"
	"synapse/internal/logging"
	"synapse/internal/provider"
	"synapse/internal/throttle"
	"synapse/internal/types"
)

// generateForURLs runs Gather -> Debrief -> Essence -> PostGen -> Done.
func (r *run) generateForURLs(ctx context.Context, urls []string) error {
	perf := r.settings.Performance

	// --- Gather ---
	msg := fmt.Sprintf("Scraping %d URLs...", len(urls))
	if _, simulated := r.engine.cfg.Acquirer.(*StubAcquirer); simulated {
		msg += " (simulated)"
	}
	r.status(msg)

	acquired, err := r.engine.cfg.Acquirer.Acquire(ctx, urls)
	if err != nil {
		return fmt.Errorf("content acquisition failed: %w", err)
	}
	docs := make([]types.Document, 0, len(acquired))
	for _, d := range acquired {
		if strings.TrimSpace(d.Text) != "" {
			docs = append(docs, d)
		}
	}
	if len(docs) == 0 {
		return types.ErrNoContentExtracted
	}

	if limit := perf.EffectiveMaxURLs(); len(docs) > limit {
		docs = docs[:limit]
		r.status(fmt.Sprintf("Limiting to top %d URLs for this run to optimize speed and reliability.", limit))
	}

	// --- Debrief ---
	if err := ctx.Err(); err != nil {
		return err
	}
	r.status(fmt.Sprintf("Phase 1/3: Creating master strategy from %d pages...", len(docs)))
	debrief, err := r.debrief(ctx, docs)
	if err != nil {
		return err
	}
	r.result.StrategicDebrief = &debrief
	r.emit(UpdateDebrief, "Master strategy created.", nil)

	// --- Essence ---
	if err := ctx.Err(); err != nil {
		return err
	}
	r.status("Phase 2/3: Distilling essence from each URL...")
	essences, err := r.distillAll(ctx, docs)
	if err != nil {
		return err
	}
	r.status("Essence distilled for all URLs.")

	// --- PostGen ---
	capper := newPostCapper(r.settings.Guardrails.PostCaps())
	size := perf.EffectiveURLBatchSize()
	total := (len(docs) + size - 1) / size
	for i := 0; i < len(docs); i += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := docs[i:min(i+size, len(docs))]
		n := i/size + 1
		r.status(fmt.Sprintf("Phase 3/3: Generating posts for batch %d of %d...", n, total))

		posts, err := r.generateBatch(ctx, n, batch, essences, debrief)
		if err != nil {
			logging.PipelineError("post batch %d of %d failed: %v", n, total, err)
			return err
		}
		posts = capper.apply(posts)
		r.result.Posts = append(r.result.Posts, posts...)
		r.emit(UpdatePosts, fmt.Sprintf("Generated %d posts from batch %d.", len(posts), n), posts)
	}

	r.log.Info("URL campaign complete: %d pages, %d posts", len(docs), len(r.result.Posts))
	r.done()
	return nil
}

func (r *run) debrief(ctx context.Context, docs []types.Document) (types.StrategicDebrief, error) {
	limit := r.settings.Performance.EffectiveDebriefTruncate()
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = truncate(d.Text, limit)
	}

	text, err := r.generate(ctx, throttle.PriorityHigh, provider.Request{
		System: debriefSystemPrompt,
		User:   debriefUserPrompt(strings.Join(parts, "\n\n---\n\n")),
		Schema: provider.DebriefSchema(),
	})
	if err != nil {
		return types.StrategicDebrief{}, err
	}
	return ParseStructured[types.StrategicDebrief](text, "strategic debrief")
}

// distillAll distills every document. With micro-batching on, documents are
// processed in chunks and each chunk completes before the next starts.
func (r *run) distillAll(ctx context.Context, docs []types.Document) (map[string]types.Essence, error) {
	var mu sync.Mutex
	out := make(map[string]types.Essence, len(docs))

	chunk := len(docs)
	if r.settings.Performance.MicroBatchEssences {
		chunk = r.settings.Performance.EffectiveMicroBatchSize()
	}

	for i := 0; i < len(docs); i += chunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, d := range docs[i:min(i+chunk, len(docs))] {
			g.Go(func() error {
				e, err := r.distill(gctx, d)
				if err != nil {
					if gctx.Err() == nil {
						logging.PipelineError("essence for %s failed: %v", d.URL, err)
					}
					return err
				}
				mu.Lock()
				out[d.URL] = e
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *run) distill(ctx context.Context, d types.Document) (types.Essence, error) {
	content := truncate(d.Text, r.settings.Performance.EffectiveEssenceTruncate())
	label := "essence for " + d.URL

	load := func(ctx context.Context) (types.Essence, error) {
		text, err := r.generate(ctx, throttle.PriorityMedium, provider.Request{
			System: essenceSystemPrompt,
			User:   content,
			Schema: provider.EssenceSchema(),
		})
		if err != nil {
			return types.Essence{}, err
		}
		return ParseStructured[types.Essence](text, label)
	}

	if !r.settings.Performance.EnableCache {
		return load(ctx)
	}
	e, tier, err := r.engine.cfg.Essences.Lookup(ctx, d.URL, content, cache.EssenceLoader(load))
	if err != nil {
		return types.Essence{}, err
	}
	r.log.Debug("%s resolved from %s tier", label, tier)
	return e, nil
}

func (r *run) generateBatch(ctx context.Context, n int, batch []types.Document, essences map[string]types.Essence, debrief types.StrategicDebrief) ([]types.Post, error) {
	limit := r.settings.Performance.EffectivePostTruncate()
	blocks := make([]string, len(batch))
	for i, d := range batch {
		blocks[i] = contentBlock(d.URL, essences[d.URL], truncate(d.Text, limit))
	}

	text, err := r.generate(ctx, throttle.PriorityMedium, provider.Request{
		System:     batchSystemPrompt(r.platforms),
		User:       batchUserPrompt(debrief, blocks),
		Schema:     provider.PostBatchSchema(r.platforms),
		OnProgress: r.progress(fmt.Sprintf("Generating posts for batch %d... (streaming)", n)),
	})
	if err != nil {
		return nil, err
	}

	parsed, err := ParseStructured[batchResponse](text, fmt.Sprintf("post batch %d", n))
	if err != nil {
		return nil, err
	}
	return r.finalizePosts(parsed.Posts, ""), nil
}
