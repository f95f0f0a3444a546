package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/campusmerch-pos/api/internal/config"
	"github.com/campusmerch-pos/api/internal/handler"
	"github.com/campusmerch-pos/api/internal/middleware"
	"github.com/campusmerch-pos/api/internal/ws"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config  config.Config
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Txn     *handler.TransactionHandler
	Record  *handler.RecordHandler
	Hub     *ws.Hub
}

// New assembles the chi router: public auth and health endpoints, the
// websocket stock feed, and the JWT-protected API group.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	d.Auth.RegisterRoutes(r)

	r.Get("/ws/stock", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWS(d.Hub, d.Config.JWTSecret, w, req)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Config.JWTSecret))
		d.Product.RegisterRoutes(r)
		d.Txn.RegisterRoutes(r)
		d.Record.RegisterRoutes(r)
	})

	return r
}
