// Package ratelimit provides per-IP token bucket limiting for the
// conversion endpoint, with background eviction of idle entries and a
// cap on tracked visitors.
//
// The limiter is in-memory and single-instance. It keeps one client
// from monopolizing conversion capacity; it is not a defense against
// distributed abuse, which belongs in an upstream WAF or CDN.
package ratelimit
