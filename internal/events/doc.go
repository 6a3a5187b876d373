// Package events decouples task creation from task scheduling.
//
// The task service emits an IngestionRequestedEvent once a pending task has
// been stored; handlers registered with the emitter (in practice the task
// factory handler) turn it into background work. The service never learns
// how or when the work runs.
package events
