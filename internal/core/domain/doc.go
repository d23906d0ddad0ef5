// Package domain defines the core business entities for sercha-sync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ConnectionConfig: A registered external source and its cursor
//   - RawRecord: One item fetched from a source, before extraction
//   - Document: The normalised, index-ready unit written to both indices
//   - Filter: The typed query filter rendered by each index adapter
//   - WriteResult: The outcome of a dual-index write
//   - Category, CategoryMembership: Tenant-scoped access control data
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
