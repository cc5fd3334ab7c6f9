package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(carts *CartHandler, checkouts *CheckoutHandler, webhooks *WebhookHandler, admin *AdminHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler)

	r.Route("/api/cart", func(r chi.Router) {
		r.Post("/session", carts.NewSession)
		r.Get("/", carts.GetCart)
		r.Post("/add", carts.AddLine)
		r.Put("/update", carts.UpdateLine)
		r.Delete("/remove", carts.RemoveLine)
	})

	r.Route("/api/checkout", func(r chi.Router) {
		r.Post("/create-intent", checkouts.CreateIntent)
		r.Post("/confirm", checkouts.Confirm)
	})

	r.Post("/api/webhooks/payment", webhooks.Receive)

	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/analytics", admin.Analytics)
		r.Get("/orders", admin.ListOrders)
		r.Put("/orders/{orderId}/status", admin.UpdateOrderStatus)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "lumeron",
	})
}
