package extractors

import (
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/extractors/eml"
	"github.com/custodia-labs/sercha-sync/internal/extractors/html"
	"github.com/custodia-labs/sercha-sync/internal/extractors/legacy"
	"github.com/custodia-labs/sercha-sync/internal/extractors/ooxml"
	"github.com/custodia-labs/sercha-sync/internal/extractors/pdf"
	"github.com/custodia-labs/sercha-sync/internal/extractors/plaintext"
	"github.com/custodia-labs/sercha-sync/internal/extractors/remote"
	"github.com/custodia-labs/sercha-sync/internal/extractors/structured"
)

// RegisterDefaults registers all built-in extractors with the registry.
// When settings name a remote extraction service it is registered as the
// fallback for every type.
func RegisterDefaults(r *Registry, settings domain.ExtractorSettings) {
	htmlExtractor := html.New()

	r.Register(plaintext.New())
	r.Register(plaintext.NewMarkdown())
	r.Register(structured.NewJSON())
	r.Register(structured.NewCSV())
	r.Register(structured.NewTSV())
	r.Register(structured.NewXML())
	r.Register(htmlExtractor)
	r.Register(eml.New(htmlExtractor.Extract))
	r.Register(pdf.New())
	r.Register(ooxml.NewDocx())
	r.Register(ooxml.NewXlsx())
	r.Register(ooxml.NewPptx())
	r.Register(legacy.NewOffice())
	r.Register(legacy.NewRTF())

	if settings.RemoteURL != "" {
		r.Register(remote.New(remote.Config{BaseURL: settings.RemoteURL}))
	}
}

// NewDefaultRegistry returns a registry with the built-in extractors.
func NewDefaultRegistry(settings domain.ExtractorSettings) *Registry {
	r := NewRegistry()
	RegisterDefaults(r, settings)
	return r
}
