package main

import (
	"encoding/json"
	"net/http"
	"time"
)

// This file contains the main HTTP handlers for the application. Each handler
// validates the request method, gathers its data (cache first, then the
// database), builds a payload and hands it to the emitter. Handlers return
// immediately after emitting; the emitter writes the one and only response.

const checksCacheKey = "checks:all"
const checksCacheTTL = 30 * time.Second

const summaryCacheKey = "summary:states"
const summaryCacheTTL = 5 * time.Minute

// @Summary      List service checks
// @Description  Returns the latest state of every monitored check, served
// @Description  from the Redis cache when fresh. Supports the standard
// @Description  emission parameters: callback (JSON-P), pretty and debug.
// @Tags         checks
// @Produce      json
// @Router       /api/checks [get]
func (cfg *apiConfig) handlerChecks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.emitter.EmitError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	ctx := r.Context()

	var checksJSON []CheckJSON
	if cached, err := cfg.cache.Get(ctx, checksCacheKey); err == nil {
		if jsonErr := json.Unmarshal([]byte(cached), &checksJSON); jsonErr == nil {
			cfg.logger.Debug("cache hit", "key", checksCacheKey)
		} else {
			cfg.logger.Warn("invalid cache entry", "key", checksCacheKey, "error", jsonErr)
			checksJSON = nil
		}
	}

	if checksJSON == nil {
		checks, err := cfg.store.ListChecks(ctx)
		if err != nil {
			cfg.emitter.EmitError(w, r, http.StatusInternalServerError, "Error getting checks", err)
			return
		}
		checksJSON = make([]CheckJSON, len(checks))
		for i, c := range checks {
			checksJSON[i] = checkToCheckJSON(c)
		}
		if cacheErr := cfg.cache.Set(ctx, checksCacheKey, checksJSON, checksCacheTTL); cacheErr != nil {
			cfg.logger.Warn("error setting to redis", "key", checksCacheKey, "error", cacheErr)
		}
	}

	p := NewResponse(http.StatusOK)
	p.Set("status", http.StatusOK)
	p.Set("response", http.StatusText(http.StatusOK))
	p.Set("count", len(checksJSON))
	p.Set("data", checksJSON)
	cfg.emitter.Emit(w, r, p, true)
}

// @Summary      Dashboard summary
// @Description  Returns per-state check counts, cached and periodically
// @Description  refreshed by the scheduler.
// @Tags         checks
// @Produce      json
// @Router       /api/summary [get]
func (cfg *apiConfig) handlerSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.emitter.EmitError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	ctx := r.Context()

	var counts []StateCount
	if cached, err := cfg.cache.Get(ctx, summaryCacheKey); err == nil {
		if jsonErr := json.Unmarshal([]byte(cached), &counts); jsonErr == nil {
			cfg.logger.Debug("cache hit", "key", summaryCacheKey)
		} else {
			cfg.logger.Warn("invalid cache entry", "key", summaryCacheKey, "error", jsonErr)
			counts = nil
		}
	}

	if counts == nil {
		var err error
		counts, err = cfg.store.CountChecksByState(ctx)
		if err != nil {
			cfg.emitter.EmitError(w, r, http.StatusInternalServerError, "Error getting summary", err)
			return
		}
		if cacheErr := cfg.cache.Set(ctx, summaryCacheKey, counts, summaryCacheTTL); cacheErr != nil {
			cfg.logger.Warn("error setting to redis", "key", summaryCacheKey, "error", cacheErr)
		}
	}

	var total int64
	for _, sc := range counts {
		total += sc.Count
	}

	p := NewResponse(http.StatusOK)
	p.Set("status", http.StatusOK)
	p.Set("response", http.StatusText(http.StatusOK))
	p.Set("total", total)
	p.Set("data", counts)
	cfg.emitter.Emit(w, r, p, true)
}

// handlerConfig provides client-side applications with necessary
// configuration, such as whether debug output is available. JSON-P is
// deliberately disallowed here so the config document cannot be pulled
// cross-origin via a script tag.

// @Summary      Get application configuration
// @Tags         configuration
// @Produce      json
// @Router       /api/config [get]
func (cfg *apiConfig) handlerConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.emitter.EmitError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	p := NewResponse(http.StatusOK)
	p.Set("dev_mode", cfg.devMode)
	p.Set("debug_mode", cfg.debugMode)
	p.Set("summary_interval", cfg.summaryInterval.String())
	cfg.emitter.Emit(w, r, p, false)
}

// handlerReset is a development-only endpoint that wipes all stored checks
// and flushes the Redis cache.

// @Summary      Reset checks and cache (development only)
// @Tags         development
// @Produce      json
// @Router       /dev/reset [post]
func (cfg *apiConfig) handlerReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.emitter.EmitError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	cfg.logger.Debug("reset request received")

	ctx := r.Context()

	if err := cfg.store.DeleteAllChecks(ctx); err != nil {
		cfg.emitter.EmitError(w, r, http.StatusInternalServerError, "Failed to reset checks", err)
		return
	}
	if err := cfg.cache.Flush(ctx); err != nil {
		cfg.emitter.EmitError(w, r, http.StatusInternalServerError, "Failed to flush cache", err)
		return
	}

	p := NewResponse(http.StatusOK)
	p.Set("status", http.StatusOK)
	p.Set("response", http.StatusText(http.StatusOK))
	p.Set("message", "checks and cache reset")
	cfg.emitter.Emit(w, r, p, true)
}
