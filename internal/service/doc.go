// Package service contains the application use cases. It coordinates the
// stores (defined in internal/store) and the background processing
// pipeline to create ingestion tasks, report their status, and query the
// ingested data rows.
//
// The service layer depends on domain entities and store interfaces, never
// on a specific database implementation.
package service
