package main

import (
	"time"

	"github.com/google/uuid"
)

// Check is a monitored service check as stored in the database.
type Check struct {
	ID        uuid.UUID
	Name      string
	State     string
	LatencyMS int64
	CheckedAt time.Time
}

// StateCount is one row of the dashboard summary: how many checks currently
// report a given state.
type StateCount struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

type CheckJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	LatencyMS int64  `json:"latency_ms"`
	CheckedAt string `json:"checked_at"`
}

func checkToCheckJSON(c Check) CheckJSON {
	return CheckJSON{
		ID:        c.ID.String(),
		Name:      c.Name,
		State:     c.State,
		LatencyMS: c.LatencyMS,
		CheckedAt: c.CheckedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}
