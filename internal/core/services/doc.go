// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The sync orchestrator, the dual-index writer and the category access
// filter live here; connectors and indices are reached only through ports.
package services
