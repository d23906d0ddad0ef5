// Package connectors provides implementations of the Connector interface
// for the supported source kinds. Each connector knows how to page through
// one external system and how to read the bytes of a record.
//
// Builders are registered with the Factory at startup by RegisterDefaults.
package connectors
