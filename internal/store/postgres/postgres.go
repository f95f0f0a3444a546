// Package postgres is the pgx-backed Store implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusmerch-pos/api/internal/enum"
	"github.com/campusmerch-pos/api/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the tables when missing. Good enough for a
// single-store deployment; no migration tooling involved.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			key       TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			price     INTEGER NOT NULL,
			category  TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS variants (
			product_key TEXT NOT NULL REFERENCES products(key) ON DELETE CASCADE,
			label       TEXT NOT NULL,
			front       INTEGER NOT NULL DEFAULT 0 CHECK (front >= 0),
			warehouse   INTEGER NOT NULL DEFAULT 0 CHECK (warehouse >= 0),
			sort_order  INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (product_key, label)
		);
		CREATE TABLE IF NOT EXISTS staff (
			account         TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			hashed_password TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS records (
			id         UUID PRIMARY KEY,
			flow       TEXT NOT NULL,
			staff      TEXT NOT NULL,
			identity   TEXT NOT NULL DEFAULT '',
			channel    TEXT NOT NULL DEFAULT '',
			order_id   TEXT NOT NULL DEFAULT '',
			giver      TEXT NOT NULL DEFAULT '',
			reason     TEXT NOT NULL DEFAULT '',
			total      INTEGER NOT NULL DEFAULT 0,
			diff       INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS record_items (
			record_id  UUID NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			old_item   BOOLEAN NOT NULL DEFAULT FALSE,
			position   INTEGER NOT NULL,
			name       TEXT NOT NULL,
			size       TEXT NOT NULL,
			qty        INTEGER NOT NULL,
			PRIMARY KEY (record_id, old_item, position)
		);
	`)
	return err
}

func (s *Store) ListProducts(ctx context.Context) ([]store.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.key, p.name, p.price, p.category, v.label, v.front, v.warehouse
		FROM products p
		LEFT JOIN variants v ON v.product_key = p.key
		ORDER BY p.key, v.sort_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []store.Product
	index := map[string]int{}
	for rows.Next() {
		var (
			p     store.Product
			label *string
			front, warehouse *int
		)
		if err := rows.Scan(&p.Key, &p.Name, &p.Price, &p.Category, &label, &front, &warehouse); err != nil {
			return nil, err
		}
		i, ok := index[p.Key]
		if !ok {
			i = len(products)
			index[p.Key] = i
			products = append(products, p)
		}
		if label != nil {
			products[i].Variants = append(products[i].Variants, store.Variant{
				Label:     *label,
				Front:     *front,
				Warehouse: *warehouse,
			})
		}
	}
	return products, rows.Err()
}

func (s *Store) GetProductByName(ctx context.Context, name string) (*store.Product, error) {
	var p store.Product
	err := s.pool.QueryRow(ctx, `
		SELECT key, name, price, category FROM products WHERE name = $1 LIMIT 1
	`, name).Scan(&p.Key, &p.Name, &p.Price, &p.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT label, front, warehouse FROM variants
		WHERE product_key = $1 ORDER BY sort_order
	`, p.Key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v store.Variant
		if err := rows.Scan(&v.Label, &v.Front, &v.Warehouse); err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, v)
	}
	return &p, rows.Err()
}

func (s *Store) UpsertProduct(ctx context.Context, p store.Product) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO products (key, name, price, category) VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET name = $2, price = $3, category = $4
	`, p.Key, p.Name, p.Price, p.Category)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM variants WHERE product_key = $1`, p.Key); err != nil {
		return err
	}
	for i, v := range p.Variants {
		_, err := tx.Exec(ctx, `
			INSERT INTO variants (product_key, label, front, warehouse, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, p.Key, v.Label, v.Front, v.Warehouse, i)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) ApplyAdjustments(ctx context.Context, adjustments []store.StockAdjustment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, adj := range adjustments {
		var key string
		err := tx.QueryRow(ctx, `SELECT key FROM products WHERE name = $1 LIMIT 1`, adj.Name).Scan(&key)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", store.ErrNotFound, adj.Name)
			}
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE variants
			SET front = front + $1, warehouse = warehouse + $2
			WHERE product_key = $3 AND label = $4
			  AND front + $1 >= 0 AND warehouse + $2 >= 0
		`, adj.Front, adj.Warehouse, key, adj.Label)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			// Distinguish a missing variant from an insufficient count.
			var exists bool
			if err := tx.QueryRow(ctx, `
				SELECT EXISTS (SELECT 1 FROM variants WHERE product_key = $1 AND label = $2)
			`, key, adj.Label).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: %s %s", store.ErrNoSuchVariant, adj.Name, adj.Label)
			}
			return fmt.Errorf("%w: %s %s", store.ErrInsufficientStock, adj.Name, adj.Label)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) GetStaff(ctx context.Context, account string) (*store.Staff, error) {
	var st store.Staff
	err := s.pool.QueryRow(ctx, `
		SELECT account, name, hashed_password FROM staff WHERE account = $1
	`, account).Scan(&st.Account, &st.Name, &st.HashedPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, account)
		}
		return nil, err
	}
	return &st, nil
}

func (s *Store) CreateStaff(ctx context.Context, st store.Staff) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO staff (account, name, hashed_password) VALUES ($1, $2, $3)
		ON CONFLICT (account) DO UPDATE SET name = $2, hashed_password = $3
	`, st.Account, st.Name, st.HashedPassword)
	return err
}

func (s *Store) AppendRecord(ctx context.Context, r store.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO records (id, flow, staff, identity, channel, order_id, giver, reason, total, diff, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.ID, r.Flow, r.Staff, r.Identity, r.Channel, r.OrderID, r.Giver, r.Reason, r.Total, r.Diff, r.CreatedAt)
	if err != nil {
		return err
	}

	insert := func(items []store.RecordItem, old bool) error {
		for i, item := range items {
			_, err := tx.Exec(ctx, `
				INSERT INTO record_items (record_id, old_item, position, name, size, qty)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, r.ID, old, i, item.Name, item.Size, item.Qty)
			if err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(r.Items, false); err != nil {
		return err
	}
	if err := insert(r.OldItems, true); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) LatestReturns(ctx context.Context, limit int) ([]store.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, flow, staff, identity, channel, total, created_at
		FROM records WHERE flow = $1
		ORDER BY created_at DESC LIMIT $2
	`, enum.FlowReturn, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		var r store.Record
		if err := rows.Scan(&r.ID, &r.Flow, &r.Staff, &r.Identity, &r.Channel, &r.Total, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		itemRows, err := s.pool.Query(ctx, `
			SELECT name, size, qty FROM record_items
			WHERE record_id = $1 AND old_item = FALSE ORDER BY position
		`, records[i].ID)
		if err != nil {
			return nil, err
		}
		for itemRows.Next() {
			var item store.RecordItem
			if err := itemRows.Scan(&item.Name, &item.Size, &item.Qty); err != nil {
				itemRows.Close()
				return nil, err
			}
			records[i].Items = append(records[i].Items, item)
		}
		itemRows.Close()
		if err := itemRows.Err(); err != nil {
			return nil, err
		}
	}
	return records, nil
}
