package structured

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestJSON_Extract(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"object sorted keys", `{"title": "Report", "body": "Revenue up", "pages": 3}`, "Revenue up\nReport"},
		{"nested", `{"a": {"b": ["x", {"c": "y"}]}, "n": null}`, "x\ny"},
		{"ndjson", "{\"t\": \"one\"}\n{\"t\": \"two\"}\n", "one\ntwo"},
		{"blank strings dropped", `["  ", "kept"]`, "kept"},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewJSON().Extract(context.Background(), []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSON_Malformed(t *testing.T) {
	_, err := NewJSON().Extract(context.Background(), []byte(`{"a": `))
	assert.ErrorIs(t, err, domain.ErrRecordDecode)
}

func TestCSV_Extract(t *testing.T) {
	got, err := NewCSV().Extract(context.Background(), []byte("name,city\nAda, London\nAlan,\n"))
	require.NoError(t, err)
	assert.Equal(t, "name city\nAda London\nAlan", got)

	got, err = NewTSV().Extract(context.Background(), []byte("a\tb\nc\td\n"))
	require.NoError(t, err)
	assert.Equal(t, "a b\nc d", got)
}

func TestXML_Extract(t *testing.T) {
	input := `<?xml version="1.0"?><feed><title>News</title><entry><p>First &amp; best</p></entry></feed>`
	got, err := NewXML().Extract(context.Background(), []byte(input))
	require.NoError(t, err)
	assert.Equal(t, "News\nFirst & best", got)
}

func TestXML_Malformed(t *testing.T) {
	_, err := NewXML().Extract(context.Background(), []byte(`<a><b></a>`))
	assert.ErrorIs(t, err, domain.ErrRecordDecode)
}
