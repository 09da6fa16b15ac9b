// Package core contains the canonical run-log domain: script runs, audit log
// entries, webhook event variants, store contracts, configuration and the
// error envelope shared by every other package. Adapters depend on core;
// core must not depend on storage or transport adapters.
package core
