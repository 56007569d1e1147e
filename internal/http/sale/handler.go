package sale

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/steppin/internal/http/respond"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/sale"
)

type Handler struct {
	coordinator *sale.Coordinator
	ledger      *ledger.Service
}

func NewHandler(coordinator *sale.Coordinator, l *ledger.Service) *Handler {
	return &Handler{coordinator: coordinator, ledger: l}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.sell)
	r.Get("/", h.list)
}

type sellRequest struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Size            string          `json:"size"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	PaymentMethod   string          `json:"payment_method"`
	CustomerType    string          `json:"customer_type"`
}

// toRequest fills the till's defaults for omitted enums. Unknown values pass
// through so the coordinator rejects them with the offending field.
func (req sellRequest) toRequest() sale.Request {
	pm := ledger.PaymentCash
	if req.PaymentMethod != "" {
		if parsed, ok := ledger.ParsePaymentMethod(req.PaymentMethod); ok {
			pm = parsed
		} else {
			pm = ledger.PaymentMethod(req.PaymentMethod)
		}
	}

	ct := ledger.CustomerWalkIn
	if req.CustomerType != "" {
		if parsed, ok := ledger.ParseCustomerType(req.CustomerType); ok {
			ct = parsed
		} else {
			ct = ledger.CustomerType(req.CustomerType)
		}
	}

	return sale.Request{
		ProductID:       req.ProductID,
		Size:            req.Size,
		Quantity:        req.Quantity,
		DiscountPercent: req.DiscountPercent,
		PaymentMethod:   pm,
		CustomerType:    ct,
	}
}

func (h *Handler) sell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "body", err.Error())
		return
	}

	s, err := h.coordinator.Sell(r.Context(), req.toRequest())
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, s)
}

// list accepts date=YYYY-MM-DD, or an inclusive start_date/end_date pair,
// read in the ledger's time zone. order=desc lists newest first.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc := h.ledger.Location()

	var filter ledger.Filter

	if s := q.Get("date"); s != "" {
		day, err := time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			respond.BadRequest(w, "date", "want YYYY-MM-DD")
			return
		}

		filter = h.ledger.DayFilter(day)
	}

	if s := q.Get("start_date"); s != "" {
		start, err := time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			respond.BadRequest(w, "start_date", "want YYYY-MM-DD")
			return
		}

		filter.From = &start
	}

	if s := q.Get("end_date"); s != "" {
		end, err := time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			respond.BadRequest(w, "end_date", "want YYYY-MM-DD")
			return
		}

		end = end.AddDate(0, 0, 1)
		filter.To = &end
	}

	list := h.ledger.List
	if q.Get("order") == "desc" {
		list = h.ledger.ListNewestFirst
	}

	sales, err := list(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if sales == nil {
		sales = []*ledger.Sale{}
	}

	respond.JSON(w, http.StatusOK, sales)
}
