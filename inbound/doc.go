// Package inbound drives one webhook delivery from raw request to response.
//
// Every request that reaches the allocator gets exactly one ScriptRun. The
// Synchronizer is only invoked with a parsed payload whose signature has been
// verified, and its failures are caught once, here.
package inbound
