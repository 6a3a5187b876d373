// Package task runs ingestion work in the background. A TaskRunner drives
// each task through pending -> in progress -> completed|failed while the
// IngestionTask copies matching rows from the sources into the store. HTTP
// request handling never waits on it.
package task
