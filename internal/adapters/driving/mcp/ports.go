package mcp

import (
	"errors"

	"github.com/joelmbaka/introspect/internal/core/ports/driving"
)

// ErrMissingReportService is returned when the server is built without a
// report service.
var ErrMissingReportService = errors.New("mcp: report service is required")

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Report runs the report generation pipeline.
	Report driving.ReportService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Report == nil {
		return ErrMissingReportService
	}
	return nil
}
