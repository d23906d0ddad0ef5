package chunker

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.ChunkSize())
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.ChunkSize() != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.ChunkSize())
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithChunkSize(-3))
		if p.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.ChunkSize())
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		maxSize int
		want    []string
	}{
		{"empty", "", 10, nil},
		{"fits", "hello", 10, []string{"hello"}},
		{"exact size", "abcde", 5, []string{"abcde"}},
		{"hard split", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"whitespace in final quarter", "aaaaaa bbbbbbb", 8, []string{"aaaaaa ", "bbbbbbb"}},
		{"whitespace too early", "a bbbbbbbbbbb", 8, []string{"a bbbbbb", "bbbbb"}},
		{"multibyte not split", "ééé", 3, []string{"é", "é", "é"}},
		{"rune wider than max", "日本", 1, []string{"日", "本"}},
		{"zero size treated as one", "ab", 0, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.text, tt.maxSize)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d chunks %q, got %d %q", len(tt.want), tt.want, len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestChunk_Properties(t *testing.T) {
	alphabet := []rune("abc xyz\n\té日本語😀")
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(300)
		runes := make([]rune, n)
		for i := range runes {
			runes[i] = alphabet[rng.Intn(len(alphabet))]
		}
		text := string(runes)
		maxSize := 1 + rng.Intn(40)

		chunks := Chunk(text, maxSize)

		if joined := strings.Join(chunks, ""); joined != text {
			t.Fatalf("round trip failed for size %d: %q != %q", maxSize, joined, text)
		}
		if text == "" && len(chunks) != 0 {
			t.Fatalf("expected no chunks for empty text, got %d", len(chunks))
		}
		for i, c := range chunks {
			if c == "" {
				t.Fatalf("chunk %d is empty", i)
			}
			if !utf8.ValidString(c) {
				t.Fatalf("chunk %d splits a rune: %q", i, c)
			}
			if len(c) > maxSize && utf8.RuneCountInString(c) != 1 {
				t.Fatalf("chunk %d has %d bytes, max %d", i, len(c), maxSize)
			}
		}
	}
}

func TestProcessor_Split(t *testing.T) {
	p := New(WithChunkSize(10))
	text := strings.Repeat("word ", 20)

	chunks := p.Split(text)
	if strings.Join(chunks, "") != text {
		t.Fatal("chunks do not reassemble the input")
	}
	for _, c := range chunks {
		if len(c) > 10 {
			t.Errorf("chunk too large: %q", c)
		}
		if !strings.HasSuffix(c, " ") && c != chunks[len(chunks)-1] {
			t.Errorf("expected chunk to end at a word boundary: %q", c)
		}
	}
}
