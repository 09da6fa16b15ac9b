// Package webhooks verifies and parses platform webhook deliveries.
//
// Signatures are computed over the exact request bytes. Parsed bodies are
// narrowed into the tagged core.Event variants before they reach a
// Synchronizer.
package webhooks
