package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Cart     CartService
	Checkout CheckoutService
	Orders   OrderStore
	Delivery DeliveryQuoter
	Importer PincodeImporter
	Auth     *Authenticator
	// Sandbox, when set, serves the development payment gateway under /sandbox.
	Sandbox http.Handler

	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

func NewRouter(d RouterDeps) http.Handler {
	cartHandler := NewCartHandler(d.Cart, d.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(d.Checkout, d.RequestTimeout)
	ordersHandler := NewOrdersHandler(d.Orders, d.RequestTimeout)
	pincodeHandler := NewPincodeHandler(d.Delivery, d.Importer, d.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestIDMiddleware)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	r.Use(middleware.RequestSize(d.MaxBodyBytes))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	if d.Sandbox != nil {
		r.Mount("/sandbox", d.Sandbox)
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/pincode/delivery-cost/{pincode}", pincodeHandler.DeliveryCost)

		r.Group(func(r chi.Router) {
			r.Use(d.Auth.Require(RoleUser))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/add", cartHandler.AddItem)
				r.Post("/remove", cartHandler.RemoveItem)
				r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/", cartHandler.ClearCart)
			})

			r.Post("/order/razorpay", checkoutHandler.CreateIntent)
			r.Post("/order/online", checkoutHandler.ConfirmPayment)
			r.Get("/order/user", ordersHandler.ListUserOrders)
		})

		r.Group(func(r chi.Router) {
			r.Use(d.Auth.Require(RoleSeller))

			r.Get("/order/seller", ordersHandler.ListAllOrders)
			r.Post("/order/status", ordersHandler.UpdateStatus)
			r.Post("/order/delete", ordersHandler.DeleteOrder)
			r.Post("/pincode/import", pincodeHandler.Import)
		})
	})

	return r
}
