package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

func newTestEmitter() *Emitter {
	return NewEmitter(false, testLogger())
}

func emitToRecorder(e *Emitter, target string, p *Payload, allowJSONP bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	e.Emit(rr, req, p, allowJSONP)
	return rr
}

func TestEmitHeadersAndStatus(t *testing.T) {
	e := newTestEmitter()

	p := NewResponse(0)
	p.Set("ok", true)
	rr := emitToRecorder(e, "/api/checks", p, true)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "no-cache, no-store, must-revalidate" {
		t.Errorf("Cache-Control = %q, want no-cache, no-store, must-revalidate", cc)
	}
	if body := rr.Body.String(); body != `{"ok":true}` {
		t.Errorf("body = %s, want {\"ok\":true}", body)
	}
}

func TestEmitPendingStatus(t *testing.T) {
	e := newTestEmitter()

	rr := emitToRecorder(e, "/api/checks", NewResponse(http.StatusCreated), true)
	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rr.Code)
	}

	rr = emitToRecorder(e, "/api/checks", NewErrorResponse(http.StatusNotFound, "", nil), true)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestEmitRoundTrip(t *testing.T) {
	e := newTestEmitter()

	p := NewResponse(0)
	p.Set("status", 200)
	p.Set("message", "żółć </script>")
	p.Set("data", map[string]any{"items": []any{"a/b", 1.5}})

	for _, target := range []string{"/api/checks", "/api/checks?pretty", "/api/checks?callback=cb"} {
		rr := emitToRecorder(e, target, p, true)
		body := rr.Body.String()

		body = strings.TrimPrefix(body, "cb(")
		body = strings.TrimSuffix(body, ");")

		var got map[string]any
		if err := json.Unmarshal([]byte(body), &got); err != nil {
			t.Fatalf("emitted body for %q is not valid JSON: %v\n%s", target, err, body)
		}
		want := map[string]any{
			"status":  float64(200),
			"message": "żółć </script>",
			"data":    map[string]any{"items": []any{"a/b", 1.5}},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round-tripped body for %q = %#v, want %#v", target, got, want)
		}
	}
}

func TestEmitJSONPWrapping(t *testing.T) {
	e := newTestEmitter()

	p := NewResponse(0)
	p.Set("ok", true)
	rr := emitToRecorder(e, "/api/checks?callback=handleData", p, true)

	want := `handleData({"ok":true});`
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %s, want %s", body, want)
	}
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestEmitJSONPDisallowed(t *testing.T) {
	e := newTestEmitter()

	p := NewResponse(0)
	p.Set("secret", "value")
	rr := emitToRecorder(e, "/api/config?callback=alert", p, false)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	want := `{"status":401,"response":"Unauthorized","message":"JSON-P Unavailable"}`
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestEmitJSONPInvalidCallback(t *testing.T) {
	e := newTestEmitter()

	testCases := []string{"1bad", "a;b", "return", ""}
	for _, callback := range testCases {
		p := NewResponse(0)
		p.Set("secret", "value")
		rr := emitToRecorder(e, "/api/checks?callback="+callback, p, true)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("callback %q: status = %d, want 400", callback, rr.Code)
		}
		want := `{"status":400,"response":"Bad Request","message":"Invalid JSON-P Callback"}`
		if body := rr.Body.String(); body != want {
			t.Errorf("callback %q: body = %s, want %s", callback, body, want)
		}
	}
}

func TestEmitPretty(t *testing.T) {
	e := newTestEmitter()

	p := NewResponse(0)
	p.Set("a", 1)
	p.Set("b", "x")
	rr := emitToRecorder(e, "/api/checks?pretty", p, true)

	want := "{\n    \"a\": 1,\n    \"b\": \"x\"\n}"
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestEmitScriptTagEscaping(t *testing.T) {
	e := newTestEmitter()

	p := NewResponse(0)
	p.Set("html", "<b></b></script>")
	rr := emitToRecorder(e, "/api/checks", p, true)

	want := `{"html":"<b><\/b><\/script>"}`
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestEmitDebugGating(t *testing.T) {
	t.Run("Compiled-in flag off", func(t *testing.T) {
		e := newTestEmitter()
		e.queries = fakeQueryCounter(7)

		rr := emitToRecorder(e, "/api/checks?debug", NewResponse(0), true)

		var got map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if _, ok := got["debug"]; ok {
			t.Error("debug block present even though the compiled-in flag is off")
		}
	})

	t.Run("Request flag missing", func(t *testing.T) {
		e := NewEmitter(true, testLogger())
		e.queries = fakeQueryCounter(7)

		rr := emitToRecorder(e, "/api/checks", NewResponse(0), true)

		var got map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if _, ok := got["debug"]; ok {
			t.Error("debug block present even though the request did not ask for it")
		}
	})
}

func TestEmitDebugBlock(t *testing.T) {
	e := NewEmitter(true, testLogger())
	e.queries = fakeQueryCounter(7)
	e.cacheStats = &fakeCacheStats{reads: 3, writes: 2}
	e.compileCache = fakeCompileCache{available: true, cached: false}

	req := httptest.NewRequest(http.MethodGet, "/api/checks?debug", nil)
	req.Header.Set(redirectURLHeader, "/legacy/checks")
	req.Header.Set(redirectQueryHeader, "city=all")
	req = req.WithContext(withRequestStart(req.Context(), time.Now().Add(-time.Second)))
	rr := httptest.NewRecorder()

	p := NewResponse(0)
	p.Set("ok", true)
	e.Emit(rr, req, p, true)

	var got map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	debug, ok := got["debug"].(map[string]any)
	if !ok {
		t.Fatalf("debug block missing or wrong type: %#v", got["debug"])
	}

	if elapsed, ok := debug["elapsed"].(string); !ok || elapsed == "" {
		t.Errorf("elapsed = %#v, want non-empty string", debug["elapsed"])
	}
	if debug["query_count"] != float64(7) {
		t.Errorf("query_count = %#v, want 7", debug["query_count"])
	}
	if debug["cache_reads"] != float64(3) || debug["cache_writes"] != float64(2) {
		t.Errorf("cache counters = %#v/%#v, want 3/2", debug["cache_reads"], debug["cache_writes"])
	}
	if debug["compile_cache"] != "disabled" {
		t.Errorf("compile_cache = %#v, want disabled", debug["compile_cache"])
	}
	if debug["path"] != "/api/checks" {
		t.Errorf("path = %#v, want /api/checks", debug["path"])
	}
	if debug["redirect_url"] != "/legacy/checks" {
		t.Errorf("redirect_url = %#v, want /legacy/checks", debug["redirect_url"])
	}
	if debug["redirect_query"] != "city=all" {
		t.Errorf("redirect_query = %#v, want city=all", debug["redirect_query"])
	}
}

func TestEmitDebugOnSubstitutedJSONPError(t *testing.T) {
	e := NewEmitter(true, testLogger())
	e.queries = fakeQueryCounter(4)

	p := NewResponse(0)
	p.Set("secret", "value")
	rr := emitToRecorder(e, "/api/checks?callback=1bad&debug", p, true)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}

	var got map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["message"] != "Invalid JSON-P Callback" {
		t.Errorf("message = %#v, want Invalid JSON-P Callback", got["message"])
	}
	if _, ok := got["secret"]; ok {
		t.Error("original payload leaked into substituted error response")
	}
	debug, ok := got["debug"].(map[string]any)
	if !ok {
		t.Fatal("debug block should be attached to the substituted payload")
	}
	if debug["query_count"] != float64(4) {
		t.Errorf("query_count = %#v, want 4", debug["query_count"])
	}
}

func TestEmitError(t *testing.T) {
	e := newTestEmitter()

	req := httptest.NewRequest(http.MethodGet, "/api/checks", nil)
	rr := httptest.NewRecorder()
	e.EmitError(rr, req, http.StatusInternalServerError, "Error getting checks", nil)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	want := `{"status":500,"response":"Internal Server Error","message":"Error getting checks"}`
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestEmitServerError(t *testing.T) {
	e := newTestEmitter()

	req := httptest.NewRequest(http.MethodGet, "/api/checks", nil)
	rr := httptest.NewRecorder()
	e.EmitServerError(rr, req, "")

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	want := `{"status":500,"response":"Internal Server Error"}`
	if body := rr.Body.String(); body != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}
