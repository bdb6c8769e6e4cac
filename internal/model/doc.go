// Package model defines the data types shared across the crawl engine:
// crawl targets, visited records, the checkpoint state, and run counters.
//
// These types form the checkpoint schema, so changes to their JSON shape
// must be accompanied by a bump of CheckpointSchemaVersion.
package model
