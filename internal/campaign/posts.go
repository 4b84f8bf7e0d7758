package campaign

import (
	"math"

	"synapse/internal/logging"
	"synapse/internal/scoring"
	"synapse/internal/types"
)

// wirePost is a post as models return it. Scores sometimes arrive as
// floats, so the score is decoded loosely and rounded.
type wirePost struct {
	types.Post
	ViralScore float64 `json:"viralScore"`
}

type topicResponse struct {
	StrategicDebrief types.StrategicDebrief `json:"strategicDebrief"`
	Posts            []wirePost             `json:"posts"`
}

type batchResponse struct {
	Posts []wirePost `json:"posts"`
}

// finalizePosts assigns fresh ids, canonical platform names and a score in
// [1,100]. A non-empty sourceURL overrides whatever the model returned.
func (r *run) finalizePosts(raw []wirePost, sourceURL string) []types.Post {
	posts := make([]types.Post, 0, len(raw))
	for _, w := range raw {
		p := w.Post
		p.ID = r.engine.cfg.NewID()
		p.IsGeneratingImage = false
		p.ViralScore = int(math.Round(w.ViralScore))
		if canonical, err := types.ParsePlatform(string(p.Platform)); err == nil {
			p.Platform = canonical
		} else {
			logging.PipelineWarn("post with unknown platform %q kept as-is", p.Platform)
		}
		if sourceURL != "" {
			p.SourceURL = sourceURL
		}
		p.ViralScore = scoring.ForPost(p)
		posts = append(posts, p)
	}
	return posts
}

// postCapper drops posts once a platform reaches its cap. Counts span the
// whole run.
type postCapper struct {
	caps   map[types.Platform]int
	counts map[types.Platform]int
}

func newPostCapper(caps map[types.Platform]int) *postCapper {
	return &postCapper{caps: caps, counts: make(map[types.Platform]int)}
}

func (c *postCapper) apply(posts []types.Post) []types.Post {
	if len(c.caps) == 0 {
		return posts
	}
	kept := posts[:0]
	for _, p := range posts {
		limit, ok := c.caps[p.Platform]
		if !ok || limit <= 0 {
			kept = append(kept, p)
			continue
		}
		if c.counts[p.Platform] < limit {
			c.counts[p.Platform]++
			kept = append(kept, p)
		}
	}
	return kept
}
