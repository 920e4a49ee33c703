// Package domain defines the core business entities for Canopy.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Workspace: A named research domain with an evolving core centroid
//   - Source: A configured content feed owned by a workspace
//   - Document: A deduplicated content item with embedding and scores
//   - Cluster: A similarity group of documents
//   - CoreSeed / CoreFeedback: Inputs to the workspace core centroid
//   - IngestionLog: Audit record of one ingestion run
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
