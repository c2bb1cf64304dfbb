package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dropoutsanta/cursorleaderboard/pkg/errors"
)

func TestParseExtractionFencedResponse(t *testing.T) {
	content := "```json\n{\"tokens\":\"2.5M\",\"agents\":\"100\",\"top_models\":[\"GPT-4\"]}\n```"

	ext, err := ParseExtraction(content)
	require.NoError(t, err)

	assert.Equal(t, "2500000", ext.Tokens.String())
	require.NotNil(t, ext.Agents)
	assert.Equal(t, int64(100), *ext.Agents)
	assert.Equal(t, []string{"GPT-4"}, ext.TopModels)

	// Fields absent from the response stay unknown, not zero.
	assert.Nil(t, ext.Streak)
	assert.Nil(t, ext.Tabs)
	assert.Nil(t, ext.JoinedDaysAgo)
}

func TestParseExtractionFullShape(t *testing.T) {
	content := `{
		"tokens": "6.60B",
		"agents": "17K",
		"tabs": "4.3K",
		"streak": "56d",
		"usage_percentile": "Top 5%",
		"top_models": ["claude-4.5-sonnet", "gpt-5", "composer-1"],
		"joined_days_ago": 321
	}`

	ext, err := ParseExtraction(content)
	require.NoError(t, err)

	assert.Equal(t, "6600000000", ext.Tokens.String())
	assert.Equal(t, int64(17000), *ext.Agents)
	assert.Equal(t, int64(4300), *ext.Tabs)
	assert.Equal(t, int64(56), *ext.Streak)
	assert.Equal(t, int64(321), *ext.JoinedDaysAgo)
	assert.Equal(t, "Top 5%", ext.UsagePercentile)
	assert.Len(t, ext.TopModels, 3)
	assert.Equal(t, "6.60B", ext.RawTokens)
}

func TestParseExtractionNotJSON(t *testing.T) {
	_, err := ParseExtraction("I could not read the screenshot, sorry.")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExtractionUnparseable, apperrors.CodeOf(err))
}

func TestParseExtractionToleratesLooseFieldShapes(t *testing.T) {
	// Numbers where strings were asked for, nulls, and a mis-shaped
	// top_models must degrade per field, never fail the record.
	content := `{"tokens": 500, "agents": null, "streak": "n/a", "top_models": "GPT-4"}`

	ext, err := ParseExtraction(content)
	require.NoError(t, err)

	assert.Equal(t, "500", ext.Tokens.String())
	assert.Nil(t, ext.Agents)
	assert.Nil(t, ext.Streak)
	assert.Nil(t, ext.TopModels)
}

func TestParseExtractionMissingTokensFallsBackToZero(t *testing.T) {
	ext, err := ParseExtraction(`{"agents": "12"}`)
	require.NoError(t, err)
	assert.Zero(t, ext.Tokens.Sign())
}

func TestParseExtractionPercentileIsOpaque(t *testing.T) {
	// Garbage-in/garbage-out is accepted for the label fields.
	ext, err := ParseExtraction(`{"tokens":"1K","usage_percentile":"basically a demigod"}`)
	require.NoError(t, err)
	assert.Equal(t, "basically a demigod", ext.UsagePercentile)
}
