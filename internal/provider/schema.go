package provider

import (
	"synapse/internal/types"
)

// SchemaType is a JSON schema primitive.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
)

// Schema is the provider-neutral response schema. Adapters translate it to
// their native form.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

func str(desc string) *Schema { return &Schema{Type: TypeString, Description: desc} }

// =============================================================================
// CAMPAIGN SCHEMAS
// =============================================================================

// DebriefSchema describes a StrategicDebrief.
func DebriefSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"campaignSynopsis": str("A high-level summary of the overall campaign strategy."),
			"primaryAudience":  str("A detailed persona of the primary target audience, including their pain points and motivations."),
			"keyThemes": {
				Type:        TypeArray,
				Items:       &Schema{Type: TypeString},
				Description: "A list of 3-5 core emotional and narrative themes.",
			},
			"competitiveAngle": str("The unique, defensible angle or position that makes this campaign stand out."),
		},
		Required: []string{"campaignSynopsis", "primaryAudience", "keyThemes", "competitiveAngle"},
	}
}

// EssenceSchema describes a per-URL Essence.
func EssenceSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"coreTakeaway":  str("The single most important, actionable point or surprising insight from the article text."),
			"microAudience": str("The specific, niche persona that would be most interested in this particular piece of content."),
		},
		Required: []string{"coreTakeaway", "microAudience"},
	}
}

// PostSchema describes one Post restricted to the given platforms.
func PostSchema(platforms []types.Platform) *Schema {
	enum := make([]string, len(platforms))
	for i, p := range platforms {
		enum[i] = string(p)
	}
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"platform":     {Type: TypeString, Enum: enum, Description: "The target social media platform."},
			"versionA":     str("Copy for Version A, aligned to a specific psychological angle."),
			"versionB":     str("Copy for Version B, testing a different psychological angle from Version A."),
			"angleA":       str("The psychological angle for Version A (e.g., Curiosity Gap, Social Proof, Scarcity)."),
			"angleB":       str("The psychological angle for Version B (e.g., Authority, Novelty, Loss Aversion)."),
			"whyThisWorks": str("A concise strategic justification for the approach, angles and image prompt."),
			"viralScore": {
				Type:        TypeInteger,
				Description: "An estimated virality score from 1-100.",
			},
			"imagePrompt": str("A detailed, professional-grade prompt for a companion image."),
			"sourceUrl":   str("The original source URL this post is based on. Must be one of the URLs provided in the input."),
		},
		Required: []string{"platform", "versionA", "versionB", "angleA", "angleB", "whyThisWorks", "viralScore", "imagePrompt", "sourceUrl"},
	}
}

// PostBatchSchema describes {"posts": [Post...]}.
func PostBatchSchema(platforms []types.Platform) *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"posts": {Type: TypeArray, Items: PostSchema(platforms)},
		},
		Required: []string{"posts"},
	}
}

// CampaignSchema describes the topic-mode {"strategicDebrief", "posts"} object.
func CampaignSchema(platforms []types.Platform) *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"strategicDebrief": DebriefSchema(),
			"posts":            {Type: TypeArray, Items: PostSchema(platforms)},
		},
		Required: []string{"strategicDebrief", "posts"},
	}
}
