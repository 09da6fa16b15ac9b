// Package runs allocates script run ids and writes the per-run audit trail.
//
// Allocation is serialized by the run store's storage-level exclusive lock,
// so it stays correct across processes sharing the same store. Audit writes
// are best effort: store failures fall back to a local logger and are never
// returned to the caller.
package runs
