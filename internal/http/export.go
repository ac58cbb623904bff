package http

import (
	"mime"
	"net/http"
	"strconv"

	applog "budget/internal/log"
	"budget/internal/report"
	"budget/internal/report/xlsx"
)

// handleExport serves the current budget as a workbook. Workbooks are cached
// per (revision, language); any mutation moves to a new key.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	labels := report.LabelsFor(requestLocale(r, s.defaultLocale))
	snap := s.store.Snapshot()
	key := strconv.FormatUint(snap.Revision, 10) + ":" + labels.Tag.String()

	data, hit, err := s.exportLoader.Get(key, func() ([]byte, error) {
		return xlsx.Bytes(report.Build(snap.State.Expenses, snap.Summary, labels))
	})
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to render workbook",
			applog.FieldLocale, labels.Tag.String(), applog.FieldError, err)
		ErrorResponse(http.StatusInternalServerError, "failed to render workbook").Write(w)
		return
	}

	cacheStatus := "MISS"
	if hit {
		cacheStatus = "HIT"
	}
	name := report.FileName(s.now(), labels)
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
