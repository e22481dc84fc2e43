// Package generator turns user-chosen parameters into a Gemini request and
// the provider's reply into text or a typed failure.
package generator

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Format is the shape of the produced text.
type Format string

const (
	FormatPoem  Format = "poem"
	FormatEssay Format = "essay"
)

// Word count bounds accepted from callers.
const (
	MinWordCount  = 50
	MaxWordCount  = 1000
	WordCountStep = 50
)

// Defaults used when a caller leaves a field empty.
const (
	DefaultFormat    = FormatPoem
	DefaultTone      = "casual"
	DefaultStyle     = "modern"
	DefaultWordCount = 250
)

// Tones is the tone vocabulary offered to users.
var Tones = []string{"casual", "formal", "creative", "humorous", "serious"}

var styles = map[Format][]string{
	FormatPoem:  {"modern", "romantic", "haiku", "sonnet", "free verse"},
	FormatEssay: {"academic", "narrative", "descriptive", "persuasive", "expository"},
}

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatPoem, FormatEssay}
}

// Styles returns the style vocabulary for f, or nil for an unknown format.
func Styles(f Format) []string {
	return slices.Clone(styles[f])
}

// ParseFormat accepts a format name case-insensitively. A blank name parses
// to the empty Format, which WithDefaults later fills.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatPoem, FormatEssay:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrInvalidParams, s)
	}
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	_, ok := styles[f]
	return ok
}

// Params are the user's choices for one generation.
type Params struct {
	Theme     string `json:"theme"`
	Format    Format `json:"format"`
	Tone      string `json:"tone"`
	Style     string `json:"style"`
	WordCount int    `json:"wordCount"`
}

// WithDefaults fills empty tone, style, format and word count. The default
// style follows the format.
func (p Params) WithDefaults() Params {
	if p.Format == "" {
		p.Format = DefaultFormat
	}
	if p.Tone == "" {
		p.Tone = DefaultTone
	}
	if p.Style == "" {
		if s := styles[p.Format]; len(s) > 0 {
			p.Style = s[0]
		}
	}
	if p.WordCount == 0 {
		p.WordCount = DefaultWordCount
	}
	return p
}

// ErrInvalidParams is wrapped by every Validate failure.
var ErrInvalidParams = errors.New("invalid generation parameters")

// Validate checks p the way the input form constrains it. Service.Generate
// does not call it; callers that accept untrusted input should.
func (p Params) Validate() error {
	var problems []string

	if strings.TrimSpace(p.Theme) == "" {
		problems = append(problems, "theme must not be empty")
	}
	if !p.Format.Valid() {
		problems = append(problems, fmt.Sprintf("format %q must be one of poem, essay", p.Format))
	} else if !slices.Contains(styles[p.Format], p.Style) {
		problems = append(problems, fmt.Sprintf("style %q is not offered for %s", p.Style, p.Format))
	}
	if !slices.Contains(Tones, p.Tone) {
		problems = append(problems, fmt.Sprintf("tone %q is not supported", p.Tone))
	}
	if p.WordCount < MinWordCount || p.WordCount > MaxWordCount || p.WordCount%WordCountStep != 0 {
		problems = append(problems, fmt.Sprintf("word count %d must be between %d and %d in steps of %d",
			p.WordCount, MinWordCount, MaxWordCount, WordCountStep))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(problems, "; "))
	}
	return nil
}

// DownloadName is the file name a result of format f is saved under.
func DownloadName(f Format) string {
	if !f.Valid() {
		f = DefaultFormat
	}
	return "inspirai-" + string(f) + ".txt"
}
