// Package extractors turns file payloads into plain text.
//
// Each sub-package implements driven.Extractor for one family of formats.
// Extractors are pure transforms: bytes in, text out, no I/O, except the
// optional remote extractor which delegates to an HTTP service.
//
// Extractors are registered with the Registry at startup; adding a format
// means registering another extractor, never editing an existing one.
package extractors
