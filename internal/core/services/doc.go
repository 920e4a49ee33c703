// Package services implements the driving ports over the driven ports.
//
// Services contain the business logic: ingestion and deduplication,
// cluster assignment and maintenance, core centroid evolution, scoring,
// and the task trigger graph. They depend only on domain types and port
// interfaces, never on concrete adapters.
package services
