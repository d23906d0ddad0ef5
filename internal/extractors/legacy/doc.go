// Package legacy extracts text from pre-2007 binary Office formats and RTF.
//
// The binary formats (DOC, XLS, PPT) are OLE compound files. Rather than
// parse the container, the extractor recovers printable runs of UTF-16LE and
// ASCII text, which is enough for indexing but loses ordering guarantees.
package legacy
