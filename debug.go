package main

import (
	"context"
	"net/http"
	"time"
)

// This file defines the collaborator interfaces the emitter consults when a
// request asks for debug output, and the debug-block assembly itself. Every
// collaborator is optional: a nil one leaves its fields out of the block.

// QueryCounter exposes the number of database queries issued so far.
type QueryCounter interface {
	QueryCount() int64
}

// CacheStatter exposes cache read/write counters. Both are reported together
// or not at all.
type CacheStatter interface {
	CacheReads() int64
	CacheWrites() int64
}

// CompileCacheProbe models introspection of a compiled-code cache. Available
// reports whether the capability exists at all; ModuleCached is only
// meaningful when it does.
type CompileCacheProbe interface {
	Available() bool
	ModuleCached() bool
}

// noCompileCache is the production probe: a Go binary carries no opcode cache
// to inspect, so the capability is reported as absent.
type noCompileCache struct{}

func (noCompileCache) Available() bool    { return false }
func (noCompileCache) ModuleCached() bool { return false }

type contextKey string

const (
	requestStartKey contextKey = "requestStart"
	requestIDKey    contextKey = "requestID"
)

// Headers a fronting proxy uses to report that it internally redirected the
// request to this service.
const (
	redirectURLHeader   = "X-Redirect-URL"
	redirectQueryHeader = "X-Redirect-Query"
)

func withRequestStart(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestStartKey, t)
}

func requestStartFrom(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(requestStartKey).(time.Time)
	return t, ok
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// collectDebugInfo assembles the diagnostic block attached to a response when
// debug output is both enabled and requested. Every field is independently
// optional; a missing source is skipped, never an error.
func (e *Emitter) collectDebugInfo(r *http.Request) *Payload {
	debug := NewResponse(0)

	if start, ok := requestStartFrom(r.Context()); ok {
		debug.Set("elapsed", time.Since(start).String())
	}
	if e.queries != nil {
		debug.Set("query_count", e.queries.QueryCount())
	}
	if e.cacheStats != nil {
		debug.Set("cache_reads", e.cacheStats.CacheReads())
		debug.Set("cache_writes", e.cacheStats.CacheWrites())
	}
	switch probe := e.compileCache; {
	case probe == nil || !probe.Available():
		debug.Set("compile_cache", "unavailable")
	case !probe.ModuleCached():
		debug.Set("compile_cache", "disabled")
		// Cached modules are unremarkable; the field is omitted.
	}
	if r.URL.Path != "" {
		debug.Set("path", r.URL.Path)
	}
	if v := r.Header.Get(redirectURLHeader); v != "" {
		debug.Set("redirect_url", v)
	}
	if v := r.Header.Get(redirectQueryHeader); v != "" {
		debug.Set("redirect_query", v)
	}

	return debug
}
