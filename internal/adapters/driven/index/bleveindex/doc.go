// Package bleveindex is the primary full-text index, built on bleve.
//
// Each tenant gets its own index named after domain.TenantIndexName, kept in
// a sub-directory of the configured data directory. An empty directory keeps
// every index in memory, which tests use.
package bleveindex
