// Package pipeline drives the order lifecycle end to end: pricing scene
// selections, submitting orders, polling remote state into the local store,
// and delivering artifacts to disk or object storage. Batch operations fan
// the same steps out over a manifest of areas.
package pipeline
