package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusmerch-pos/api/internal/cache"
	"github.com/campusmerch-pos/api/internal/config"
	"github.com/campusmerch-pos/api/internal/handler"
	"github.com/campusmerch-pos/api/internal/router"
	"github.com/campusmerch-pos/api/internal/service"
	"github.com/campusmerch-pos/api/internal/store"
	"github.com/campusmerch-pos/api/internal/store/memory"
	"github.com/campusmerch-pos/api/internal/store/postgres"
	"github.com/campusmerch-pos/api/internal/ws"
)

func main() {
	demo := flag.Bool("demo", false, "seed the in-memory store with demo staff and inventory")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	st, cleanup, err := openStore(ctx, cfg, *demo)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer cleanup()

	c := openCache(cfg)

	hub := ws.NewHub()
	go hub.Run()

	svc := service.New(st)

	deps := router.Deps{
		Config:  cfg,
		Auth:    handler.NewAuthHandler(st, cfg.JWTSecret),
		Product: handler.NewProductHandler(st, c),
		Txn:     handler.NewTransactionHandler(svc, c, hub),
		Record:  handler.NewRecordHandler(svc),
		Hub:     hub,
	}

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), router.New(deps)); err != nil {
		log.Fatal(err)
	}
}

// openStore connects to Postgres when DATABASE_URL is set, otherwise falls
// back to the in-memory store for local development.
func openStore(ctx context.Context, cfg config.Config, demo bool) (store.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		log.Println("Connected to database")
		return pg, pg.Close, nil
	}

	mem := memory.New()
	log.Println("DATABASE_URL not set, using in-memory store")
	if demo {
		if err := seedDemo(ctx, mem); err != nil {
			return nil, nil, fmt.Errorf("seed demo data: %w", err)
		}
		log.Println("Seeded demo staff and inventory")
	}
	return mem, func() {}, nil
}

func openCache(cfg config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.Noop{}
	}
	r := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := r.Ping(context.Background()); err != nil {
		log.Printf("WARNING: redis unreachable, caching disabled: %v", err)
		return cache.Noop{}
	}
	log.Println("Connected to redis")
	return r
}

func seedDemo(ctx context.Context, st store.Store) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := st.CreateStaff(ctx, store.Staff{
		Account:        "admin",
		Name:           "Store Admin",
		HashedPassword: string(hashed),
	}); err != nil {
		return err
	}

	products := []store.Product{
		{
			Key:      "hoodie-classic",
			Name:     "Classic Hoodie",
			Price:    1200,
			Category: "apparel",
			Variants: []store.Variant{
				{Label: "S", Front: 4, Warehouse: 10},
				{Label: "M", Front: 6, Warehouse: 12},
				{Label: "L", Front: 5, Warehouse: 8},
				{Label: "XL", Front: 3, Warehouse: 6},
			},
		},
		{
			Key:      "tee-crest",
			Name:     "Crest Tee",
			Price:    450,
			Category: "apparel",
			Variants: []store.Variant{
				{Label: "S", Front: 8, Warehouse: 20},
				{Label: "M", Front: 10, Warehouse: 24},
				{Label: "L", Front: 7, Warehouse: 16},
			},
		},
		{
			Key:      "mug-campus",
			Name:     "Campus Mug",
			Price:    250,
			Category: "drinkware",
			Variants: []store.Variant{
				{Label: "White", Front: 12, Warehouse: 30},
				{Label: "Navy", Front: 9, Warehouse: 18},
			},
		},
		{
			Key:      "sticker-pack",
			Name:     "Sticker Pack",
			Price:    80,
			Category: "accessories",
		},
	}
	for _, p := range products {
		if err := st.UpsertProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
