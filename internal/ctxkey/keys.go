// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

import "context"

// LoggerKey is the context key type for the enriched logger.
// Used by HTTP middleware to store and retrieve the logger with the request_id field.
type LoggerKey struct{}

// RequestIDKey is the context key type for the request correlation ID.
type RequestIDKey struct{}

// ClientIDKey is the context key type for the browser/client identifier that
// scopes session records and login flows.
type ClientIDKey struct{}

// IPAddressKey is the context key type for the caller's real IP address.
type IPAddressKey struct{}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey{}).(string)
	return id
}

// ClientID returns the client ID stored in ctx, or "".
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(ClientIDKey{}).(string)
	return id
}

// IPAddress returns the caller IP stored in ctx, or "".
func IPAddress(ctx context.Context) string {
	ip, _ := ctx.Value(IPAddressKey{}).(string)
	return ip
}
