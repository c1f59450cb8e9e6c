// Package httpmw provides HTTP middleware for the conversion API server.
//
// Middleware is composed in a specific order in httpserver.NewHandler:
// panic recovery, security headers, request ID, client IP extraction,
// rate limiting, OTEL tracing, version headers, metrics, structured
// logging, and chi router.
//
// Each middleware is an independent function that can be tested, reordered,
// or removed individually. Signed URL query strings carry bearer tokens, so
// url.query is never logged on this service.
package httpmw
