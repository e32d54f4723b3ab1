package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"paymate/internal/auth"
	"paymate/internal/middleware"
	"paymate/internal/service"
)

// Handlers holds the services the HTTP layer delegates to.
type Handlers struct {
	auth     *service.AuthService
	expenses *service.ExpenseService
	groups   *service.GroupService
	payments *service.PaymentService
}

// NewHandlers creates the HTTP handler set over the given services.
func NewHandlers(authSvc *service.AuthService, expenses *service.ExpenseService, groups *service.GroupService, payments *service.PaymentService) *Handlers {
	return &Handlers{
		auth:     authSvc,
		expenses: expenses,
		groups:   groups,
		payments: payments,
	}
}

// Router assembles the full route tree with logging, CORS, and metrics
// middleware applied to every request.
func (h *Handlers) Router(jwtManager *auth.JWTManager) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS)
	r.Use(middleware.Metrics)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", middleware.MetricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		// Gateway callbacks authenticate out of band, not with user tokens.
		r.Post("/payments/webhook", h.handlePaymentWebhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtManager))

			r.Get("/auth/me", h.handleMe)

			r.Post("/expenses", h.handleCreateExpense)
			r.Get("/expenses", h.handleListExpenses)
			r.Get("/expenses/{id}", h.handleGetExpense)
			r.Post("/expenses/{id}/settle", h.handleSettleExpense)

			r.Post("/groups", h.handleCreateGroup)
			r.Get("/groups", h.handleListGroups)
			r.Get("/groups/{id}", h.handleGetGroup)
			r.Get("/groups/{id}/expenses", h.handleGroupExpenses)

			r.Post("/payments", h.handleCreatePayment)
		})
	})

	return r
}
