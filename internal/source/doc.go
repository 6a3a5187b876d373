// Package source reads the static datasets merged during ingestion: a JSON
// record list and a delimited-text file. Each reader yields raw measurements
// with naive timestamps; filtering and attribution happen in the task processor.
package source
