package dropbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// newTestFileMetadata creates a FileMetadata for testing with embedded Metadata fields.
func newTestFileMetadata(id, name, pathDisplay string, size uint64, serverMod time.Time) *files.FileMetadata {
	fm := &files.FileMetadata{
		Id:             id,
		Size:           size,
		ServerModified: serverMod,
		IsDownloadable: true,
	}
	fm.Name = name
	fm.PathDisplay = pathDisplay
	fm.PathLower = strings.ToLower(pathDisplay)
	return fm
}

func fileEntry(id, name string) string {
	return fmt.Sprintf(`{".tag":"file","id":%q,"name":%q,"path_display":"/Docs/%s","path_lower":"/docs/%s",
		"client_modified":"2024-01-15T12:30:00Z","server_modified":"2024-01-15T12:30:00Z",
		"rev":"0123456789","size":5,"is_downloadable":true}`, id, name, name, name)
}

// fakeDropbox serves list_folder, list_folder/continue and download.
type fakeDropbox struct {
	pages   map[string]string
	content map[string]string
	lastArg map[string]any
}

func (f *fakeDropbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "Bearer throttled" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error_summary":"too_many_requests/..","error":{"reason":{".tag":"too_many_requests"},"retry_after":30}}`))
		return
	}
	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_summary":"invalid_access_token/","error":{".tag":"invalid_access_token"}}`))
		return
	}

	switch r.URL.Path {
	case "/2/files/list_folder":
		body, _ := io.ReadAll(r.Body)
		f.lastArg = map[string]any{}
		_ = json.Unmarshal(body, &f.lastArg)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.pages[""]))
	case "/2/files/list_folder/continue":
		var arg struct {
			Cursor string `json:"cursor"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &arg)
		page, ok := f.pages[arg.Cursor]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error_summary":"reset/..","error":{".tag":"reset"}}`))
			return
		}
		_, _ = w.Write([]byte(page))
	case "/2/files/download":
		var arg struct {
			Path string `json:"path"`
		}
		_ = json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg)
		data, ok := f.content[arg.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error_summary":"path/not_found/..","error":{".tag":"path","path":{".tag":"not_found"}}}`))
			return
		}
		w.Header().Set("Dropbox-API-Result", fmt.Sprintf(`{".tag":"file","id":%q,"name":"x","size":%d}`, arg.Path, len(data)))
		_, _ = w.Write([]byte(data))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestConnector(t *testing.T, fake *fakeDropbox, token string) *Connector {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := &domain.ConnectionConfig{
		ID:   "dbx",
		Kind: domain.KindDropbox,
		Params: map[string]string{
			domain.ParamToken:      token,
			domain.ParamFolderPath: "Docs/",
		},
	}
	c, err := New(cfg, Options{BatchSize: 2, BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestConnector_FetchBatch(t *testing.T) {
	ctx := context.Background()
	fake := &fakeDropbox{pages: map[string]string{
		"": `{"cursor":"c1","has_more":true,"entries":[
			{".tag":"folder","id":"id:f","name":"Docs","path_display":"/Docs","path_lower":"/docs"},
			` + fileEntry("id:a", "a.txt") + `]}`,
		"c1": `{"cursor":"c2","has_more":true,"entries":[
			{".tag":"deleted","name":"old.txt","path_display":"/Docs/old.txt","path_lower":"/docs/old.txt"}]}`,
		"c2": `{"cursor":"c3","has_more":false,"entries":[` + fileEntry("id:b", "b.pdf") + `]}`,
		"c3": `{"cursor":"c4","has_more":false,"entries":[]}`,
	}}
	c := newTestConnector(t, fake, "tok")
	require.NoError(t, c.Validate(ctx))

	b1, err := c.FetchBatch(ctx, "")
	require.NoError(t, err)
	require.Len(t, b1.Records, 1)
	assert.Equal(t, "id:a", b1.Records[0].ID)
	assert.Equal(t, "c1", b1.NextCursor)
	assert.True(t, b1.HasMore)
	assert.Equal(t, "/Docs", fake.lastArg["path"])
	assert.Equal(t, true, fake.lastArg["recursive"])

	// The deletion-only page is skipped over.
	b2, err := c.FetchBatch(ctx, b1.NextCursor)
	require.NoError(t, err)
	require.Len(t, b2.Records, 1)
	assert.Equal(t, "id:b", b2.Records[0].ID)
	assert.Equal(t, "application/pdf", b2.Records[0].MIMEType)
	assert.Equal(t, "c3", b2.NextCursor)
	assert.False(t, b2.HasMore)

	b3, err := c.FetchBatch(ctx, b2.NextCursor)
	require.NoError(t, err)
	assert.True(t, b3.Empty())
	assert.Equal(t, "c3", b3.NextCursor)
}

func TestConnector_ResetCursor(t *testing.T) {
	c := newTestConnector(t, &fakeDropbox{pages: map[string]string{}}, "tok")
	_, err := c.FetchBatch(context.Background(), "stale")
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
}

func TestConnector_BadToken(t *testing.T) {
	c := newTestConnector(t, &fakeDropbox{}, "wrong")
	err := c.Validate(context.Background())
	assert.ErrorIs(t, err, domain.ErrConnectorValidation)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestConnector_ThrottledPausesCalls(t *testing.T) {
	c := newTestConnector(t, &fakeDropbox{}, "throttled")
	_, err := c.FetchBatch(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.False(t, c.limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.FetchBatch(ctx, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConnector_RawBytes(t *testing.T) {
	ctx := context.Background()
	c := newTestConnector(t, &fakeDropbox{content: map[string]string{"id:a": "hello"}}, "tok")

	data, err := c.RawBytes(ctx, &domain.RawRecord{ID: "id:a"})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = c.RawBytes(ctx, &domain.RawRecord{ID: "id:missing"})
	assert.ErrorIs(t, err, domain.ErrRecordDecode)
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(&domain.ConnectionConfig{Kind: domain.KindDropbox}, Options{})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestFileToRecord(t *testing.T) {
	modTime := time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)
	file := newTestFileMetadata("id:abc123def456", "document.pdf", "/Documents/Work/document.pdf", 1024, modTime)
	file.Rev = "rev123"
	file.ContentHash = "hash456"

	rec := FileToRecord(file)

	assert.Equal(t, "id:abc123def456", rec.ID)
	assert.Equal(t, "document.pdf", rec.Title)
	assert.Equal(t, "application/pdf", rec.MIMEType)
	assert.Equal(t, int64(1024), rec.Size)
	assert.Equal(t, modTime, rec.ModifiedAt)
	assert.False(t, rec.HasInlineContent())
	assert.Equal(t, "https://www.dropbox.com/home/Documents%2FWork%2Fdocument.pdf", rec.URL)
	assert.Equal(t, "/Documents/Work/document.pdf", rec.Metadata["path"])
	assert.Equal(t, "rev123", rec.Metadata["rev"])
	assert.Equal(t, "hash456", rec.Metadata["content_hash"])
}

func TestWebURL(t *testing.T) {
	assert.Equal(t, "https://www.dropbox.com/preview/xyz", WebURL("", "id:xyz"))
	assert.Equal(t, "https://www.dropbox.com/home", WebURL("", ""))
}

func TestMIMETypeFor(t *testing.T) {
	tests := map[string]string{
		"notes.txt":   "text/plain",
		"README.MD":   "text/markdown",
		"report.docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"archive.zip": "application/zip",
		"noext":       "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, MIMETypeFor(name), name)
	}
}

func TestShouldSyncFile(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, ShouldSyncFile(nil, cfg))

	file := newTestFileMetadata("id:test", "test.txt", "/test.txt", 10, time.Now())
	assert.True(t, ShouldSyncFile(file, cfg))

	file.IsDownloadable = false
	assert.False(t, ShouldSyncFile(file, cfg))

	big := newTestFileMetadata("id:big", "big.txt", "/big.txt", DefaultMaxFileSize+1, time.Now())
	assert.False(t, ShouldSyncFile(big, cfg))
}

func TestShouldSyncFile_MimeFilter(t *testing.T) {
	cfg := &Config{MimeTypeFilter: []string{"text/", "application/pdf"}}

	tests := []struct {
		filename string
		expected bool
	}{
		{"test.txt", true},
		{"readme.md", true},
		{"page.html", true},
		{"document.pdf", true},
		{"photo.png", false},
		{"data.zip", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			file := newTestFileMetadata("id:test", tt.filename, "/"+tt.filename, 0, time.Now())
			assert.Equal(t, tt.expected, ShouldSyncFile(file, cfg))
		})
	}
}

func TestParseConfig(t *testing.T) {
	cfg := ParseConfig(&domain.ConnectionConfig{Params: map[string]string{
		domain.ParamFolderPath: "/",
		ParamMIMETypes:         "text/, application/pdf",
	}}, 0)
	assert.Equal(t, "", cfg.FolderPath)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, []string{"text/", "application/pdf"}, cfg.MimeTypeFilter)
}
