// Package http provides the JSON HTTP API for PharmaLedger.
//
// It is an inbound adapter: handlers translate requests into calls on the
// login flow, the session check service and the verification flow, and
// translate outcomes back into JSON.
//
// # Usage
//
//	server := http.NewServer(api,
//	    http.WithAddr("127.0.0.1:8080"),
//	    http.WithAllowedOrigins([]string{"https://pharmaledger.example"}),
//	    http.WithLogger(logger),
//	)
//	err := server.Start(ctx)
//
// # Endpoints
//
//	POST   /api/login              - Submit credentials {email, password, rememberMe}
//	POST   /api/validate           - Check fields {email, password, submitted}
//	POST   /api/password-strength  - Score a password {password}
//	GET    /api/session            - Offer the remembered session
//	POST   /api/session/continue   - Continue into the remembered session
//	DELETE /api/session            - Discard the remembered session
//	POST   /api/verify             - Verify a batch number {batchNumber}
//	POST   /api/scan               - Verify a scanned code payload (raw body)
//	GET    /api/stats              - Counters
//	GET    /health                 - Component health
//	GET    /metrics                - Prometheus metrics
//
// # Clients
//
// Each browser or tool is identified by the pl_client cookie (issued on the
// first request) or the X-Client-ID header. The client ID scopes the
// remembered session record and the single in-flight login attempt.
//
// # Middleware Chain
//
// Requests pass through middleware in this order:
//
//  1. MetricsMiddleware - Records duration and status
//  2. RequestIDMiddleware - Extracts or generates X-Request-ID, enriches the logger
//  3. RealIPMiddleware - Extracts the client IP for login throttling
//  4. OriginProtection - Validates the Origin header against the allowlist
//  5. ClientIDMiddleware - Resolves the client ID
package http
