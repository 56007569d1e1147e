package report

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/steppin/internal/analytics"
	"github.com/MrJamesThe3rd/steppin/internal/http/respond"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/logx"
	"github.com/MrJamesThe3rd/steppin/internal/report"
)

type Handler struct {
	analytics *analytics.Service
	ledger    *ledger.Service
}

func NewHandler(a *analytics.Service, l *ledger.Service) *Handler {
	return &Handler{analytics: a, ledger: l}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/sales.csv", h.salesCSV)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	scope, err := analytics.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	rep, err := h.analytics.Summary(r.Context(), scope)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, rep)
}

// salesCSV serves one day's sales, today by default. An empty day is the
// header row alone; X-Sales-Count lets clients skip saving it.
func (h *Handler) salesCSV(w http.ResponseWriter, r *http.Request) {
	day := h.ledger.Now()

	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, s, h.ledger.Location())
		if err != nil {
			respond.BadRequest(w, "date", "want YYYY-MM-DD")
			return
		}

		day = parsed
	}

	sales, err := h.ledger.OnDate(r.Context(), day)
	if err != nil {
		respond.Error(w, err)
		return
	}

	out, err := report.ToCSV(sales, h.ledger.Location())
	if err != nil {
		respond.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName(day)+`"`)
	w.Header().Set("X-Sales-Count", strconv.Itoa(len(sales)))

	if _, err := w.Write([]byte(out)); err != nil {
		logx.Error().Err(err).Msg("failed to write csv")
	}
}
