// Package domain holds the export service contract
package domain

import (
	"context"

	profiledom "printprof/internal/services/profile/domain"
)

// Manifest lists the files one export produced, in write order
type Manifest struct {
	Files []string `json:"files"`
}

// WriterPort renders a profile report into CSV tables and a JSON document
// under a target directory
type WriterPort interface {
	WriteReport(ctx context.Context, rep *profiledom.Report, dir string) (Manifest, error)
}
