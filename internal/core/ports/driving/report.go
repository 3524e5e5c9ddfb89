// Package driving provides interfaces for primary adapters (inbound ports).
package driving

import (
	"context"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

// ReportService is the single inbound operation of the system: turn a
// natural-language request into a structured journal analysis report.
//
// GenerateReport never returns an error; every failure mode is contained
// inside the pipeline and shaped into a response with Success=false and a
// bounded diagnostic message.
type ReportService interface {
	GenerateReport(ctx context.Context, req domain.ReportRequest) domain.ReportResponse
}
