// Package sqlite implements the persistence ports on a single SQLite
// database file.
//
// One Store owns the connection and the embedded schema migrations;
// the per-entity stores returned by its accessor methods are thin
// wrappers sharing that connection. Embeddings and centroids are stored
// as little-endian float32 blobs.
package sqlite
