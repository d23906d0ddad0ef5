// Package vector is a local semantic secondary index: documents are
// embedded with an EmbeddingService and kept in one HNSW graph per tenant.
//
// With a directory configured, tenant graphs and their documents are saved
// on Close and loaded on first use.
package vector
