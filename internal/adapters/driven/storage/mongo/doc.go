// Package mongo provides a MongoDB implementation of driven.MaterialStore.
//
// Records live in the "materials" collection keyed by material ID. Partial
// updates are sent as a single $set/$unset so concurrent readers never see a
// half-applied transition.
package mongo
