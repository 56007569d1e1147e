package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrJamesThe3rd/steppin/internal/http/product"
	"github.com/MrJamesThe3rd/steppin/internal/http/report"
	"github.com/MrJamesThe3rd/steppin/internal/http/sale"
	"github.com/MrJamesThe3rd/steppin/internal/metrics"
)

func New(
	productsV1 *product.Handler,
	salesV1 *sale.Handler,
	reportsV1 *report.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)

	router.Handle("/metrics", metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", productsV1.Routes)

		r.Get("/sizes", productsV1.ListSizes)

		r.Route("/sales", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			salesV1.Routes(r)
		})

		r.Route("/reports", reportsV1.Routes)
	})

	return router
}
