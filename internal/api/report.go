package api

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/pos-backend/internal/domain/report"
)

type salesReportRequest struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	var req salesReportRequest
	if !decode(w, r, &req) {
		return
	}
	h.reportWindow(w, r, req.StartDate, req.EndDate)
}

// dailyReport covers the trailing 24 hours.
func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	end := time.Now().UTC()
	h.reportWindow(w, r, end.Add(-24*time.Hour), end)
}

// monthlyReport covers the trailing 30 days.
func (h *Handler) monthlyReport(w http.ResponseWriter, r *http.Request) {
	end := time.Now().UTC()
	h.reportWindow(w, r, end.AddDate(0, 0, -30), end)
}

func (h *Handler) reportWindow(w http.ResponseWriter, r *http.Request, start, end time.Time) {
	rep, err := report.Generate(r.Context(), h.reports, start, end)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) { encSalesReport(e, *rep) })
}
