package suggest

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Separator joins suggestions in the response body.
const Separator = "||"

const (
	suggestionCount = 3
	minPieceLength  = 6
	filler          = "and I've been thinking about it ever since."
)

var promptVariations = []string{
	"Generate 3 ways to complete this partial message:",
	"Suggest 3 continuations for this message:",
	"Create 3 different ways to finish this thought:",
	"Provide 3 options to complete this message:",
}

// topUpPool fills in when the model returns fewer than three usable pieces.
var topUpPool = []string{
	"and I'd love to hear your thoughts on it.",
	"so I wanted to share it with you.",
	"which made me think of you.",
	"and it's been on my mind all day.",
	"but I'm not sure how to finish that thought.",
	"and I'm curious what you think about it.",
}

var fallbackSuggestions = []string{
	"and it's been on my mind lately.",
	"so I wanted to share it with you.",
	"and I'd love to know what you think.",
}

// echoMarkers show up when the model repeats the instructions instead of
// completing the message.
var echoMarkers = []string{"format", "completion", "suggestion", "response", "here are"}

var (
	enumerationPrefix = regexp.MustCompile(`^\d+[.)]\s*`)
	dashPrefix        = regexp.MustCompile(`^-\s*`)
	completionLabel   = regexp.MustCompile(`(?i)^completion\s*\d+\s*:`)
	suggestionLabel   = regexp.MustCompile(`(?i)^suggestion\s*\d+\s*:`)
)

const promptTemplate = `
%s "%s"

IMPORTANT:
- These are COMPLETIONS, not responses to the message
- Continue the thought naturally from where it left off
- Make each completion completely different in tone and content
- Keep completions between 1-2 sentences
- Format exactly as: completion1||completion2||completion3
- Be creative and engaging
- Avoid generic phrases

Examples:
If input is: "I was thinking about"
Good completions: "taking a trip this weekend||starting a new hobby||catching up with old friends"

If input is: "The weather today is"
Good completions: "perfect for a picnic in the park||making me want to stay indoors with a book||reminding me of my childhood summers"
`

// Processor turns raw model output into exactly three suggestions.
type Processor struct {
	intN    func(n int) int
	shuffle func(n int, swap func(i, j int))
}

func NewProcessor() *Processor {
	return &Processor{
		intN:    rand.IntN,
		shuffle: rand.Shuffle,
	}
}

// Prompt asks the model for three "||"-separated completions of message.
func (p *Processor) Prompt(message string) string {
	variation := promptVariations[p.intN(len(promptVariations))]
	return fmt.Sprintf(promptTemplate, variation, message)
}

// Process splits, cleans and filters raw, then tops up and pads the result
// to exactly three distinct-where-possible suggestions.
func (p *Processor) Process(raw string) []string {
	kept := make([]string, 0, suggestionCount)
	for _, piece := range strings.Split(raw, Separator) {
		piece = Clean(piece)
		if !Usable(piece) {
			continue
		}
		kept = append(kept, piece)
		if len(kept) == suggestionCount {
			break
		}
	}

	if missing := suggestionCount - len(kept); missing > 0 {
		pool := append([]string(nil), topUpPool...)
		p.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		kept = append(kept, pool[:missing]...)
	}

	out := dedupe(kept)
	for len(out) < suggestionCount {
		out = append(out, filler)
	}
	return out
}

// Fallback returns the fixed suggestions served when generation fails.
func Fallback() []string {
	return append([]string(nil), fallbackSuggestions...)
}

// Join renders suggestions as the plain-text response body.
func Join(suggestions []string) string {
	return strings.Join(suggestions, Separator)
}

// Clean strips quotes, list markers and echoed labels from one piece.
func Clean(piece string) string {
	piece = strings.TrimSpace(piece)
	piece = trimQuote(piece)
	piece = enumerationPrefix.ReplaceAllString(piece, "")
	piece = dashPrefix.ReplaceAllString(piece, "")
	piece = completionLabel.ReplaceAllString(piece, "")
	piece = suggestionLabel.ReplaceAllString(piece, "")
	return strings.TrimSpace(piece)
}

// Usable reports whether a cleaned piece is long enough and is not an echo
// of the prompt.
func Usable(piece string) bool {
	if utf8.RuneCountInString(piece) < minPieceLength {
		return false
	}
	lower := strings.ToLower(piece)
	for _, marker := range echoMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// trimQuote removes one leading and one trailing quote character.
func trimQuote(s string) string {
	if s != "" && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if n := len(s); n > 0 && (s[n-1] == '"' || s[n-1] == '\'') {
		s = s[:n-1]
	}
	return s
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
