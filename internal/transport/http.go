package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pou26/rugas/internal/config"
	"github.com/pou26/rugas/internal/customer"
	"github.com/pou26/rugas/internal/handler"
	"github.com/pou26/rugas/internal/order"
	"github.com/pou26/rugas/internal/product"
)

func NewRouter(pool *pgxpool.Pool, cfg config.OrderConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	customerSvc := customer.NewService(customer.NewRepository(pool))
	productSvc := product.NewService(product.NewRepository(pool))
	orderSvc := order.NewService(
		order.NewRepository(pool),
		productSvc,
		customerSvc,
		order.NewNumberGenerator(),
		order.Policy{
			StrictTransitions: cfg.StrictTransitions,
			ValidateCustomer:  cfg.ValidateCustomer,
		},
	)

	r.Route("/api", func(api chi.Router) {
		handler.NewCustomerHandler(customerSvc).RegisterRoutes(api)
		handler.NewProductHandler(productSvc).RegisterRoutes(api)
		handler.NewOrderHandler(orderSvc).RegisterRoutes(api)
	})

	return r
}
