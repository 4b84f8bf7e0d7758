// Package types holds the campaign domain model shared by the pipeline,
// the provider adapters, the caches and the exporters.
package types

import (
	"fmt"
	"strings"
)

// Platform is a social network a post is written for.
type Platform string

const (
	PlatformX         Platform = "X"
	PlatformLinkedIn  Platform = "LinkedIn"
	PlatformFacebook  Platform = "Facebook"
	PlatformInstagram Platform = "Instagram"
	PlatformPinterest Platform = "Pinterest"
)

// AllPlatforms lists every supported platform in display order.
var AllPlatforms = []Platform{
	PlatformX,
	PlatformLinkedIn,
	PlatformFacebook,
	PlatformInstagram,
	PlatformPinterest,
}

// ParsePlatform resolves a platform name case-insensitively.
// "twitter" is accepted as an alias for X.
func ParsePlatform(s string) (Platform, error) {
	name := strings.TrimSpace(s)
	if strings.EqualFold(name, "twitter") {
		return PlatformX, nil
	}
	for _, p := range AllPlatforms {
		if strings.EqualFold(name, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// ParsePlatforms parses a list of platform names, dropping duplicates.
func ParsePlatforms(names []string) ([]Platform, error) {
	seen := make(map[Platform]bool, len(names))
	out := make([]Platform, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		p, err := ParsePlatform(n)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// NoSourceURL marks posts that were not derived from a specific page.
const NoSourceURL = "N/A"

// StrategicDebrief is the top-level strategy for a campaign.
type StrategicDebrief struct {
	CampaignSynopsis string   `json:"campaignSynopsis"`
	PrimaryAudience  string   `json:"primaryAudience"`
	KeyThemes        []string `json:"keyThemes"`
	CompetitiveAngle string   `json:"competitiveAngle"`
}

// Post is one platform-specific piece of content with an A/B variant pair.
type Post struct {
	ID                string   `json:"id"`
	Platform          Platform `json:"platform"`
	VersionA          string   `json:"versionA"`
	VersionB          string   `json:"versionB"`
	AngleA            string   `json:"angleA"`
	AngleB            string   `json:"angleB"`
	ViralScore        int      `json:"viralScore"`
	ImagePrompt       string   `json:"imagePrompt"`
	SourceURL         string   `json:"sourceUrl"`
	WhyThisWorks      string   `json:"whyThisWorks"`
	IsGeneratingImage bool     `json:"isGeneratingImage,omitempty"`

	PrimaryTrigger    string   `json:"primaryTrigger,omitempty"`
	SecondaryTriggers []string `json:"secondaryTriggers,omitempty"`
	ViralPattern      string   `json:"viralPattern,omitempty"`
}

// Triggers returns the primary and secondary psychological triggers.
func (p Post) Triggers() []string {
	out := make([]string, 0, 1+len(p.SecondaryTriggers))
	if p.PrimaryTrigger != "" {
		out = append(out, p.PrimaryTrigger)
	}
	return append(out, p.SecondaryTriggers...)
}

// Source is a web citation returned by a search-grounded request.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Essence is the distilled takeaway of a single page.
type Essence struct {
	CoreTakeaway  string `json:"coreTakeaway"`
	MicroAudience string `json:"microAudience"`
}

// Document is the acquired text of one URL.
type Document struct {
	URL  string
	Text string
}

// CampaignMetrics summarises a finished campaign.
type CampaignMetrics struct {
	TotalPosts           int              `json:"totalPosts"`
	AverageViralScore    float64          `json:"averageViralScore"`
	PlatformDistribution map[Platform]int `json:"platformDistribution"`
	TopPlatform          Platform         `json:"topPlatform,omitempty"`
}

// CampaignResult accumulates everything a run has produced so far.
// Values handed to callers are snapshots: the pipeline never mutates a
// result after emitting it.
type CampaignResult struct {
	StrategicDebrief *StrategicDebrief `json:"strategicDebrief"`
	Posts            []Post            `json:"posts"`
	Sources          []Source          `json:"sources"`
	Metrics          *CampaignMetrics  `json:"metrics,omitempty"`
}

// Clone returns a deep copy of r.
func (r CampaignResult) Clone() CampaignResult {
	out := CampaignResult{
		Posts:   make([]Post, len(r.Posts)),
		Sources: append([]Source(nil), r.Sources...),
	}
	if r.StrategicDebrief != nil {
		d := *r.StrategicDebrief
		d.KeyThemes = append([]string(nil), r.StrategicDebrief.KeyThemes...)
		out.StrategicDebrief = &d
	}
	for i, p := range r.Posts {
		p.SecondaryTriggers = append([]string(nil), p.SecondaryTriggers...)
		out.Posts[i] = p
	}
	if r.Metrics != nil {
		m := *r.Metrics
		m.PlatformDistribution = make(map[Platform]int, len(r.Metrics.PlatformDistribution))
		for k, v := range r.Metrics.PlatformDistribution {
			m.PlatformDistribution[k] = v
		}
		out.Metrics = &m
	}
	return out
}

// WithImageGenerating returns a copy of r with the image-generation flag of
// the post identified by id set to generating. Unknown ids leave the copy unchanged.
func (r CampaignResult) WithImageGenerating(id string, generating bool) CampaignResult {
	out := r.Clone()
	for i := range out.Posts {
		if out.Posts[i].ID == id {
			out.Posts[i].IsGeneratingImage = generating
		}
	}
	return out
}

// ComputeMetrics derives summary metrics from posts.
func ComputeMetrics(posts []Post) CampaignMetrics {
	m := CampaignMetrics{
		TotalPosts:           len(posts),
		PlatformDistribution: make(map[Platform]int),
	}
	if len(posts) == 0 {
		return m
	}
	total := 0
	for _, p := range posts {
		total += p.ViralScore
		m.PlatformDistribution[p.Platform]++
	}
	m.AverageViralScore = float64(total) / float64(len(posts))

	best := 0
	for _, p := range AllPlatforms {
		if n := m.PlatformDistribution[p]; n > best {
			best = n
			m.TopPlatform = p
		}
	}
	return m
}
