package export

import (
	"encoding/json"
	"fmt"
	"io"

	"synapse/internal/logging"
	"synapse/internal/types"
)

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, result types.CampaignResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode campaign: %w", err)
	}
	logging.Export("Wrote campaign JSON with %d posts", len(result.Posts))
	return nil
}
