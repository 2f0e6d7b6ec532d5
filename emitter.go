package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

// This file contains the emitter, the single point through which every
// handler's output leaves the process. It applies JSON-P wrapping, attaches
// debug metadata, serializes the payload and writes the response exactly once.

// Emitter writes final JSON (or JSON-P) responses. debugMode is the
// compiled-in gate for debug blocks; the per-request "debug" query flag alone
// is never enough. The collaborator fields are wired at startup and may stay
// nil, in which case their debug fields are simply omitted.
type Emitter struct {
	debugMode    bool
	logger       *slog.Logger
	queries      QueryCounter
	cacheStats   CacheStatter
	compileCache CompileCacheProbe
}

func NewEmitter(debugMode bool, logger *slog.Logger) *Emitter {
	return &Emitter{
		debugMode:    debugMode,
		logger:       logger,
		compileCache: noCompileCache{},
	}
}

// Emit serializes p and writes it as the one and only response body for this
// request. Bad JSON-P input is converted into a substituted error payload
// rather than reported to the caller, so the client always receives a valid
// JSON document. Callers stop handling the request after calling Emit.
//
// Recognized query parameters: "pretty" (indented output), "callback"
// (JSON-P wrapping, subject to allowJSONP and name validation) and "debug"
// (diagnostic block, gated by the compiled-in debug flag).
func (e *Emitter) Emit(w http.ResponseWriter, r *http.Request, p *Payload, allowJSONP bool) {
	query := r.URL.Query()

	prefix, suffix := "", ""
	if query.Has("callback") {
		callback := query.Get("callback")
		switch {
		case !allowJSONP:
			p = NewErrorResponse(http.StatusUnauthorized, "JSON-P Unavailable", nil)
		case !IsValidCallbackName(callback):
			p = NewErrorResponse(http.StatusBadRequest, "Invalid JSON-P Callback", nil)
		default:
			prefix, suffix = callback+"(", ");"
		}
	}

	// Debug metadata attaches to whatever payload is actually going out,
	// including a substituted JSON-P error.
	if e.debugMode && query.Has("debug") {
		p.Set("debug", e.collectDebugInfo(r))
	}

	body, err := p.MarshalJSON()
	if err != nil {
		e.logger.Error("error marshalling JSON", "error", err, "request_id", requestIDFrom(r.Context()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if query.Has("pretty") {
		var indented bytes.Buffer
		if err := json.Indent(&indented, body, "", "    "); err == nil {
			body = indented.Bytes()
		}
	}

	// "</" would close a surrounding <script> tag if the document is ever
	// inlined into HTML.
	body = bytes.ReplaceAll(body, []byte("</"), []byte(`<\/`))

	status := p.status
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, prefix+string(body)+suffix); err != nil {
		e.logger.Error("error writing response", "error", err, "request_id", requestIDFrom(r.Context()))
	}

	responsesEmittedTotal.WithLabelValues(strconv.Itoa(status), strconv.FormatBool(prefix != "")).Inc()
}

// EmitError logs the underlying error (if one is provided) and emits a
// standard error payload with the given status code and message.
func (e *Emitter) EmitError(w http.ResponseWriter, r *http.Request, code int, msg string, err error) {
	if err != nil {
		e.logger.Error(msg, "error", err, "request_id", requestIDFrom(r.Context()))
	}
	e.Emit(w, r, NewErrorResponse(code, msg, nil), true)
}

// EmitServerError emits the canonical 500 payload. msg is optional; when
// empty the payload carries only the status fields.
func (e *Emitter) EmitServerError(w http.ResponseWriter, r *http.Request, msg string) {
	e.Emit(w, r, NewErrorResponse(http.StatusInternalServerError, msg, nil), true)
}
