package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Essay ")
	require.NoError(t, err)
	assert.Equal(t, FormatEssay, f)

	f, err = ParseFormat("POEM")
	require.NoError(t, err)
	assert.Equal(t, FormatPoem, f)

	f, err = ParseFormat("  ")
	require.NoError(t, err)
	assert.Equal(t, FormatPoem, Params{Theme: "x", Format: f}.WithDefaults().Format)

	_, err = ParseFormat("limerick")
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestStylesDependOnFormat(t *testing.T) {
	assert.Contains(t, Styles(FormatPoem), "haiku")
	assert.NotContains(t, Styles(FormatEssay), "haiku")
	assert.Contains(t, Styles(FormatEssay), "expository")
	assert.Nil(t, Styles("limerick"))

	s := Styles(FormatPoem)
	s[0] = "mutated"
	assert.Equal(t, "modern", Styles(FormatPoem)[0])
}

func TestWithDefaults(t *testing.T) {
	p := Params{Theme: "x"}.WithDefaults()
	assert.Equal(t, Params{Theme: "x", Format: FormatPoem, Tone: "casual", Style: "modern", WordCount: 250}, p)

	p = Params{Theme: "x", Format: FormatEssay}.WithDefaults()
	assert.Equal(t, "academic", p.Style)
	assert.NoError(t, p.Validate())
}

func TestValidate(t *testing.T) {
	valid := Params{Theme: "autumn", Format: FormatPoem, Tone: "casual", Style: "haiku", WordCount: 100}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
		want   string
	}{
		{"blank theme", func(p *Params) { p.Theme = "   " }, "theme"},
		{"unknown format", func(p *Params) { p.Format = "limerick" }, "format"},
		{"style of other format", func(p *Params) { p.Style = "academic" }, "style"},
		{"unknown tone", func(p *Params) { p.Tone = "angry" }, "tone"},
		{"below range", func(p *Params) { p.WordCount = 0 }, "word count"},
		{"above range", func(p *Params) { p.WordCount = 1050 }, "word count"},
		{"off grid", func(p *Params) { p.WordCount = 125 }, "word count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParams))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateBounds(t *testing.T) {
	p := Params{Theme: "t", Format: FormatEssay, Tone: "formal", Style: "narrative"}
	for _, wc := range []int{MinWordCount, MaxWordCount} {
		p.WordCount = wc
		assert.NoError(t, p.Validate())
	}
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "inspirai-poem.txt", DownloadName(FormatPoem))
	assert.Equal(t, "inspirai-essay.txt", DownloadName(FormatEssay))
	assert.Equal(t, "inspirai-poem.txt", DownloadName(""))
}
