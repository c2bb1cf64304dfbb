package stats

import (
	"encoding/json"
	"math/big"
	"strings"

	apperrors "github.com/dropoutsanta/cursorleaderboard/pkg/errors"
)

// flexString tolerates the shapes an LLM actually emits for a field asked
// for as a string: quoted strings, bare numbers, and null all decode without
// failing the whole object.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	// Mis-shaped value (object, array): treat as not visible.
	*f = ""
	return nil
}

// rawExtraction is the JSON shape the instruction template demands. Every
// key is optional.
type rawExtraction struct {
	Tokens          flexString      `json:"tokens"`
	Agents          flexString      `json:"agents"`
	Tabs            flexString      `json:"tabs"`
	Streak          flexString      `json:"streak"`
	UsagePercentile flexString      `json:"usage_percentile"`
	TopModels       json.RawMessage `json:"top_models"`
	JoinedDaysAgo   flexString      `json:"joined_days_ago"`
}

// Extraction is a normalized stat bundle ready for persistence. Raw fields
// keep what the model reported, for echoing back to the client.
type Extraction struct {
	Tokens          *big.Int
	Agents          *int64
	Tabs            *int64
	Streak          *int64
	JoinedDaysAgo   *int64
	UsagePercentile string
	TopModels       []string

	RawTokens          string
	RawAgents          string
	RawTabs            string
	RawStreak          string
	RawUsagePercentile string
}

// stripFences removes leading/trailing markdown code-fence markers the model
// tends to wrap JSON in.
func stripFences(content string) string {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// ParseExtraction consumes the raw text of a vision-inference response and
// produces a normalized stat bundle. The only hard failure is content that
// is not a single JSON object; malformed individual fields degrade through
// the normalizer instead.
func ParseExtraction(content string) (*Extraction, error) {
	var raw rawExtraction
	if err := json.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		return nil, apperrors.New(apperrors.CodeExtractionUnparseable,
			"Failed to parse extracted stats", err)
	}

	ext := &Extraction{
		Tokens:             ParseTokens(string(raw.Tokens)),
		UsagePercentile:    string(raw.UsagePercentile),
		RawTokens:          string(raw.Tokens),
		RawAgents:          string(raw.Agents),
		RawTabs:            string(raw.Tabs),
		RawStreak:          string(raw.Streak),
		RawUsagePercentile: string(raw.UsagePercentile),
	}

	ext.Agents = optional(ParseCount(string(raw.Agents)))
	ext.Tabs = optional(ParseCount(string(raw.Tabs)))
	ext.Streak = optional(ParseStreak(string(raw.Streak)))
	ext.JoinedDaysAgo = optional(ParseDaysAgo(string(raw.JoinedDaysAgo)))

	// top_models is an opaque label list; a mis-shaped value is dropped
	// rather than failing the record.
	if len(raw.TopModels) > 0 {
		var models []string
		if err := json.Unmarshal(raw.TopModels, &models); err == nil {
			ext.TopModels = models
		}
	}

	return ext, nil
}

func optional(v int64, ok bool) *int64 {
	if !ok {
		return nil
	}
	return &v
}
