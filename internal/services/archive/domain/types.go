// Package domain holds archive service types and ports
package domain

import (
	"time"

	"printprof/internal/core/gcode"
)

// RunArchive is one parsed run headed for the columnar store
type RunArchive struct {
	RunID    string
	Label    string
	File     string
	ParsedAt time.Time
	Moves    []gcode.Move
}

// RunSummary is a stored run as read back from the archive
type RunSummary struct {
	RunID    string    `db:"run_id" json:"run_id"`
	Label    string    `db:"label" json:"label"`
	File     string    `db:"file" json:"file"`
	ParsedAt time.Time `db:"parsed_at" json:"parsed_at"`
	Moves    uint64    `db:"moves" json:"moves"`
	TimeS    float64   `db:"time_s" json:"time_s"`
	DistMM   float64   `db:"dist_mm" json:"dist_mm"`
}
