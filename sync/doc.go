// Package sync holds the Synchronizer implementations that move verified
// webhook events into the downstream analytical store.
package sync
