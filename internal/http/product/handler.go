package product

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/http/respond"
	"github.com/MrJamesThe3rd/steppin/internal/importer"
)

type Handler struct {
	svc       *catalog.Service
	importSvc *importer.Service
}

func NewHandler(svc *catalog.Service, importSvc *importer.Service) *Handler {
	return &Handler{svc: svc, importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/import", h.importSheet)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Put("/{id}/stock/{size}", h.setStock)
	r.Delete("/{id}", h.delete)
}

type productResponse struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Category   string          `json:"category"`
	Sizes      map[string]int  `json:"sizes"`
	TotalStock int             `json:"total_stock"`
	DateAdded  time.Time       `json:"date_added"`
}

func (h *Handler) toResponse(p *catalog.Product) productResponse {
	return productResponse{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Category:   p.Category,
		Sizes:      h.svc.Sizes().Quantities(p.Stock),
		TotalStock: p.TotalStock(),
		DateAdded:  p.DateAdded,
	}
}

func (h *Handler) toResponseList(products []*catalog.Product) []productResponse {
	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = h.toResponse(p)
	}

	return resp
}

type createProductRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Sizes    map[string]int  `json:"sizes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "body", err.Error())
		return
	}

	p, err := h.svc.Create(r.Context(), catalog.CreateParams{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		Sizes:    req.Sizes,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, h.toResponse(p))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, h.toResponseList(products))
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "id", "invalid id")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, h.toResponse(p))
}

type updateProductRequest struct {
	Name     *string          `json:"name,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Category *string          `json:"category,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "body", err.Error())
		return
	}

	p, err := h.svc.Update(r.Context(), id, catalog.UpdateParams{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, h.toResponse(p))
}

type setStockRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "quantity", err.Error())
		return
	}

	if req.Quantity == nil {
		respond.BadRequest(w, "quantity", "is required")
		return
	}

	p, err := h.svc.SetStock(r.Context(), id, chi.URLParam(r, "size"), *req.Quantity)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, h.toResponse(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type importResponse struct {
	Imported int               `json:"imported"`
	Products []productResponse `json:"products"`
}

func (h *Handler) importSheet(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respond.BadRequest(w, "file", "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, "file", "missing file")
		return
	}
	defer file.Close()

	products, err := h.importSvc.Import(r.Context(), file)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, importResponse{
		Imported: len(products),
		Products: h.toResponseList(products),
	})
}

type sizesResponse struct {
	Sizes []string `json:"sizes"`
}

// ListSizes serves the configured size range, mounted outside /products.
func (h *Handler) ListSizes(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, sizesResponse{Sizes: h.svc.Sizes().Labels()})
}
