package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "paragraphs",
			input: "<html><body><h1>Title</h1><p>First para.</p><p>Second <b>bold</b> para.</p></body></html>",
			want:  "Title\nFirst para.\nSecond bold para.",
		},
		{
			name:  "script and style removed",
			input: "<html><head><style>p{}</style><script>alert(1)</script></head><body>Visible<script>x()</script></body></html>",
			want:  "Visible",
		},
		{
			name:  "hidden elements removed",
			input: `<div>shown</div><div style="display: none">secret</div><span hidden>also secret</span>`,
			want:  "shown",
		},
		{
			name:  "entities decoded",
			input: "<p>Fish &amp; Chips &lt;3</p>",
			want:  "Fish & Chips <3",
		},
		{
			name:  "whitespace collapsed",
			input: "<p>  lots   of\n\n  space </p>",
			want:  "lots of space",
		},
		{
			name:  "escaped markup in textarea",
			input: "<textarea>&lt;b&gt;note&lt;/b&gt;</textarea>",
			want:  "note",
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Extract(context.Background(), []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Quarterly", Title([]byte("<html><head><title> Quarterly </title></head></html>")))
	assert.Equal(t, "", Title([]byte("<p>no title</p>")))
}
