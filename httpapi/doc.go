// Package httpapi exposes the webhook endpoint, a health check and the
// read-only admin routes over gin.
package httpapi
