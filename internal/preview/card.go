// Package preview renders the shareable leaderboard card for a single
// submission as an SVG image.
package preview

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"text/template"

	"github.com/dropoutsanta/cursorleaderboard/internal/models"
	"github.com/dropoutsanta/cursorleaderboard/internal/stats"
)

// Card is everything the renderer needs: the highlighted entry, a window of
// neighboring ranks, the board size, and the percentile label.
type Card struct {
	Entry      models.LeaderboardEntry
	Neighbors  []models.LeaderboardEntry
	Total      int
	Percentile string
}

const (
	cardSize     = 600
	maxTopModels = 3
	maxNameLen   = 24
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// esc XML-escapes attacker-controlled text before it reaches the SVG.
func esc(s string) string {
	return escaper.Replace(s)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

type rowView struct {
	Y         int
	Rank      int
	Name      string
	Tokens    string
	Highlight bool
}

type cardView struct {
	Size       int
	Rank       int
	Total      int
	Name       string
	Tokens     string
	Agents     string
	Tabs       string
	Streak     string
	Percentile string
	TopModels  string
	Rows       []rowView
}

var cardTmpl = template.Must(template.New("card").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Size}}" height="{{.Size}}" viewBox="0 0 {{.Size}} {{.Size}}" font-family="ui-monospace, SFMono-Regular, Menlo, Consolas, monospace">
  <rect width="{{.Size}}" height="{{.Size}}" fill="#111111"/>
  <text x="32" y="48" font-size="16" fill="#71717a">cursor-wrapped / <tspan fill="#d4d4d8">leaderboard</tspan></text>
  <text x="568" y="48" font-size="20" font-weight="600" fill="#3799FF" text-anchor="end">#{{.Rank}} of {{.Total}}</text>
  <line x1="32" y1="64" x2="568" y2="64" stroke="#2b2b2b"/>
  <rect x="32" y="84" width="536" height="168" rx="8" fill="#1a1a1a" stroke="#3799FF"/>
  <text x="56" y="124" font-size="22" font-weight="600" fill="#fafafa">{{.Name}}</text>
  <text x="544" y="124" font-size="16" fill="#3799FF" text-anchor="end">{{.Percentile}}</text>
  <text x="56" y="176" font-size="40" font-weight="700" fill="#3799FF">{{.Tokens}}</text>
  <text x="56" y="200" font-size="13" fill="#71717a">tokens</text>
  <text x="56" y="232" font-size="14" fill="#a1a1aa">agents {{.Agents}}   tabs {{.Tabs}}   streak {{.Streak}}</text>
{{- if .TopModels}}
  <text x="32" y="284" font-size="13" fill="#71717a">top models: <tspan fill="#d4d4d8">{{.TopModels}}</tspan></text>
{{- end}}
{{- range .Rows}}
  <g>
{{- if .Highlight}}
    <rect x="32" y="{{.Y}}" width="536" height="30" rx="4" fill="#1f2a3a"/>
{{- end}}
    <text x="48" y="{{.Y}}" dy="20" font-size="14" fill="#71717a">#{{.Rank}}</text>
    <text x="104" y="{{.Y}}" dy="20" font-size="14" fill="{{if .Highlight}}#fafafa{{else}}#a1a1aa{{end}}">{{.Name}}</text>
    <text x="552" y="{{.Y}}" dy="20" font-size="14" fill="#3799FF" text-anchor="end">{{.Tokens}}</text>
  </g>
{{- end}}
</svg>
`))

// Render draws the card. Output is deterministic for a given input.
func Render(card Card) []byte {
	view := cardView{
		Size:       cardSize,
		Rank:       card.Entry.Rank,
		Total:      card.Total,
		Name:       esc(truncate(card.Entry.Name, maxNameLen)),
		Tokens:     formatTokenString(card.Entry.Tokens),
		Agents:     stats.FormatCount(card.Entry.Agents),
		Tabs:       stats.FormatCount(card.Entry.Tabs),
		Streak:     formatStreak(card.Entry.Streak),
		Percentile: esc(card.Percentile),
	}

	if len(card.Entry.TopModels) > 0 {
		shown := card.Entry.TopModels
		if len(shown) > maxTopModels {
			shown = shown[:maxTopModels]
		}
		view.TopModels = esc(strings.Join(shown, ", "))
	}

	y := 304
	for _, n := range card.Neighbors {
		view.Rows = append(view.Rows, rowView{
			Y:         y,
			Rank:      n.Rank,
			Name:      esc(truncate(n.Name, maxNameLen)),
			Tokens:    formatTokenString(n.Tokens),
			Highlight: n.ID == card.Entry.ID,
		})
		y += 36
	}

	var buf bytes.Buffer
	// The template executes over plain value fields; it cannot fail at
	// runtime once parsed.
	_ = cardTmpl.Execute(&buf, view)
	return buf.Bytes()
}

func formatTokenString(tokens string) string {
	n, ok := new(big.Int).SetString(tokens, 10)
	if !ok {
		return "0"
	}
	return stats.FormatTokens(n)
}

func formatStreak(streak *int64) string {
	if streak == nil {
		return "-"
	}
	return fmt.Sprintf("%dd", *streak)
}
