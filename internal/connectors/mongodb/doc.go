// Package mongodb implements a connector for MongoDB.
//
// In collection mode the configured collection is read in _id order and
// the content and title fields are taken from each document. When the
// bucket parameter is set the connector reads a GridFS bucket instead:
// file metadata is paged from <bucket>.files and the bytes are streamed
// on demand.
package mongodb
