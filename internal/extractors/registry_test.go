package extractors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

type fakeExtractor struct {
	name     string
	types    []string
	priority int
	err      error
	calls    int
}

func (f *fakeExtractor) SupportedMIMETypes() []string { return f.types }
func (f *fakeExtractor) Priority() int                { return f.priority }

func (f *fakeExtractor) Extract(context.Context, []byte) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.name, nil
}

func TestRegistry_Extract_Selection(t *testing.T) {
	exact := &fakeExtractor{name: "exact", types: []string{"text/csv"}, priority: 10}
	exactHigh := &fakeExtractor{name: "exact-high", types: []string{"text/csv"}, priority: 90}
	wildcard := &fakeExtractor{name: "wildcard", types: []string{"text/*"}, priority: 100}
	fallback := &fakeExtractor{name: "fallback", types: []string{AnyType}, priority: 1}

	r := NewRegistry()
	r.Register(exact)
	r.Register(wildcard)
	r.Register(fallback)
	r.Register(exactHigh)

	tests := []struct {
		name string
		mime string
		want string
	}{
		{"highest priority exact match", "text/csv", "exact-high"},
		{"parameters stripped", "Text/CSV; charset=utf-8", "exact-high"},
		{"wildcard", "text/x-unknown", "wildcard"},
		{"fallback", "application/x-unknown", "fallback"},
		{"empty type uses fallback", "", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := r.Extract(context.Background(), []byte("x"), tt.mime)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestRegistry_Extract_PassesUnsupportedOn(t *testing.T) {
	declines := &fakeExtractor{
		name:     "declines",
		types:    []string{"application/pdf"},
		priority: 50,
		err:      fmt.Errorf("%w: encrypted", domain.ErrUnsupportedType),
	}
	fallback := &fakeExtractor{name: "fallback", types: []string{AnyType}, priority: 1}

	r := NewRegistry()
	r.Register(declines)
	r.Register(fallback)

	text, err := r.Extract(context.Background(), nil, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "fallback", text)
	assert.Equal(t, 1, declines.calls)
}

func TestRegistry_Extract_ReturnsFirstFailure(t *testing.T) {
	first := errors.New("first")
	r := NewRegistry()
	r.Register(&fakeExtractor{types: []string{"application/pdf"}, priority: 50, err: first})
	r.Register(&fakeExtractor{types: []string{AnyType}, priority: 1, err: errors.New("second")})

	_, err := r.Extract(context.Background(), nil, "application/pdf")
	assert.ErrorIs(t, err, first)
}

func TestRegistry_Extract_Unsupported(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeExtractor{types: []string{"text/plain"}})

	_, err := r.Extract(context.Background(), nil, "image/png")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	r.Register(&fakeExtractor{types: []string{"image/png"}, err: domain.ErrUnsupportedType})
	_, err = r.Extract(context.Background(), nil, "image/png")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_Extract_Cancelled(t *testing.T) {
	r := NewRegistry()
	f := &fakeExtractor{types: []string{"text/plain"}}
	r.Register(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Extract(ctx, nil, "text/plain")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.calls)
}

func TestRegistry_Supports(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeExtractor{types: []string{"text/*", "application/json"}})

	assert.True(t, r.Supports("text/anything"))
	assert.True(t, r.Supports("application/json; charset=utf-8"))
	assert.False(t, r.Supports("image/png"))
	assert.Equal(t, []string{"application/json", "text/*"}, r.SupportedMIMETypes())
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry(domain.ExtractorSettings{})

	for _, m := range []string{
		"text/plain",
		"text/markdown",
		"text/html",
		"application/json",
		"text/csv",
		"application/xml",
		"message/rfc822",
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/msword",
		"application/vnd.ms-excel",
		"application/vnd.ms-powerpoint",
		"application/rtf",
	} {
		assert.True(t, r.Supports(m), m)
	}
	assert.False(t, r.Supports("image/png"))

	tests := []struct {
		mime string
		data string
		want string
	}{
		{"text/html", "<html><body><p>Hello</p><script>x()</script></body></html>", "Hello"},
		{"application/json", `{"b":"world","a":"hello"}`, "hello\nworld"},
		{"text/csv", "a,b\nc,d\n", "a b\nc d"},
		{"text/x-custom", "custom text", "custom text"},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			text, err := r.Extract(context.Background(), []byte(tt.data), tt.mime)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestDefaultRegistry_Remote(t *testing.T) {
	r := NewDefaultRegistry(domain.ExtractorSettings{RemoteURL: "http://localhost:9998"})
	assert.True(t, r.Supports("image/png"))
}
