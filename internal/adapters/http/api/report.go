package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/framecount/internal/adapters/report"
	"github.com/okian/framecount/internal/domain/model"
)

// ReportDependencies builds a report from the current estimate.
type ReportDependencies interface {
	Report(ctx context.Context, cfg model.ReportConfig) report.Document
}

// ReportHandler handles GET /report.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleReport handles GET /report?format=markdown|csv|json. Presentation
// fields come from the query string; download=true adds an attachment
// filename derived from the title.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format, err := report.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	doc := h.deps.Report(r.Context(), model.ReportConfig{
		Title:    q.Get("title"),
		Author:   q.Get("author"),
		Period:   q.Get("period"),
		ReportID: q.Get("report_id"),
		Notes:    q.Get("notes"),
	})

	w.Header().Set("Content-Type", format.ContentType())
	if download, _ := strconv.ParseBool(q.Get("download")); download {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(doc.Title, format.Ext())))
	}
	// The format was parsed above, so a failure here is a client write error.
	_ = report.Render(w, doc, format)
}
