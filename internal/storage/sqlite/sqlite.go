// Package sqlite est le backend relationnel : database/sql au-dessus du
// driver pur Go modernc.org/sqlite, schéma embarqué appliqué à l'ouverture.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/storage"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password    TEXT NOT NULL DEFAULT '',
	is_admin    INTEGER NOT NULL DEFAULT 0,
	provider    TEXT NOT NULL DEFAULT '',
	provider_id TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS menu_items (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	price        REAL NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	popularity   INTEGER NOT NULL DEFAULT 0,
	rating_sum   INTEGER NOT NULL DEFAULT 0,
	rating_count INTEGER NOT NULL DEFAULT 0,
	available    INTEGER NOT NULL DEFAULT 1,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cart_items (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id      INTEGER NOT NULL,
	menu_item_id INTEGER NOT NULL REFERENCES menu_items(id) ON DELETE CASCADE,
	quantity     INTEGER NOT NULL CHECK (quantity > 0),
	UNIQUE (user_id, menu_item_id)
);

CREATE TABLE IF NOT EXISTS orders (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	reference  TEXT NOT NULL DEFAULT '',
	user_id    INTEGER NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	total      REAL NOT NULL DEFAULT 0,
	address    TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
	order_id     INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	menu_item_id INTEGER NOT NULL,
	name         TEXT NOT NULL,
	price        REAL NOT NULL,
	quantity     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cart_user   ON cart_items(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC);
`

type Store struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 { return value.UTC().UnixMilli() }

func fromMillis(value int64) time.Time { return time.UnixMilli(value).UTC() }

// Open ouvre (ou crée) la base SQLite et applique le schéma.
// Utiliser ":memory:" pour une base éphémère (tests).
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("chemin de la base SQLite manquant")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ouverture sqlite: %w", err)
	}
	// Le driver pur Go ne supporte qu'une écriture à la fois
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma foreign_keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("application du schéma: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// =============================================
// UTILISATEURS
// =============================================

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password, is_admin, provider, provider_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.Password, u.IsAdmin, u.Provider, u.ProviderID, toMillis(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return storage.ErrEmailTaken
		}
		return fmt.Errorf("insertion utilisateur: %w", err)
	}

	u.ID, err = res.LastInsertId()
	return err
}

func (s *Store) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var createdAt int64
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.IsAdmin, &u.Provider, &u.ProviderID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, is_admin, provider, provider_id, created_at
		 FROM users WHERE id = ?`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, is_admin, provider, provider_id, created_at
		 FROM users WHERE email = ?`, email))
}

func (s *Store) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE id = ?`, isAdmin, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// =============================================
// MENU
// =============================================

const menuColumns = `id, name, description, price, category, image_url,
	popularity, rating_sum, rating_count, available, created_at, updated_at`

func (s *Store) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO menu_items (name, description, price, category, image_url,
		   popularity, rating_sum, rating_count, available, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Price, item.Category, item.ImageURL,
		item.Popularity, item.RatingSum, item.RatingCount, item.Available,
		toMillis(item.CreatedAt), toMillis(item.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insertion plat: %w", err)
	}

	item.ID, err = res.LastInsertId()
	return err
}

func scanMenuItem(scan func(dest ...any) error) (models.MenuItem, error) {
	var item models.MenuItem
	var createdAt, updatedAt int64
	err := scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.Category,
		&item.ImageURL, &item.Popularity, &item.RatingSum, &item.RatingCount,
		&item.Available, &createdAt, &updatedAt)
	if err != nil {
		return item, err
	}
	item.CreatedAt = fromMillis(createdAt)
	item.UpdatedAt = fromMillis(updatedAt)
	return item, nil
}

func (s *Store) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = ?`, id)
	item, err := scanMenuItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListMenuItems(ctx context.Context, filter storage.MenuFilter) ([]models.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items`
	var conds []string
	var args []any

	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.OnlyAvailable {
		conds = append(conds, "available = 1")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		conds = append(conds, "LOWER(name || ' ' || description) LIKE ?")
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	switch filter.SortBy {
	case storage.SortPopularity:
		query += " ORDER BY popularity DESC, id ASC"
	case storage.SortRating:
		query += ` ORDER BY CASE WHEN rating_count = 0 THEN 0
			ELSE CAST(rating_sum AS REAL) / rating_count END DESC, id ASC`
	case storage.SortPrice:
		query += " ORDER BY price ASC, id ASC"
	default:
		query += " ORDER BY id ASC"
	}

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	} else if filter.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("liste du menu: %w", err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		item, err := scanMenuItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	item.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE menu_items SET name = ?, description = ?, price = ?, category = ?,
		   image_url = ?, available = ?, updated_at = ?
		 WHERE id = ?`,
		item.Name, item.Description, item.Price, item.Category,
		item.ImageURL, item.Available, toMillis(item.UpdatedAt), item.ID)
	if err != nil {
		return fmt.Errorf("mise à jour plat: %w", err)
	}
	return requireRowAffected(res)
}

func (s *Store) DeleteMenuItem(ctx context.Context, id int64) error {
	// Le ON DELETE CASCADE retire aussi le plat des paniers
	res, err := s.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (s *Store) BumpPopularity(ctx context.Context, id int64, delta int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE menu_items SET popularity = popularity + ? WHERE id = ?`, delta, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (s *Store) RateMenuItem(ctx context.Context, id int64, stars int) error {
	if stars < 1 || stars > 5 {
		return storage.ErrInvalidRating
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE menu_items SET rating_sum = rating_sum + ?, rating_count = rating_count + 1
		 WHERE id = ?`, stars, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// =============================================
// PANIER
// =============================================

func (s *Store) UpsertCartItem(ctx context.Context, userID, menuItemID int64, quantity int) error {
	if quantity <= 0 {
		return storage.ErrInvalidQuantity
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, menu_item_id, quantity) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, menu_item_id) DO UPDATE SET quantity = excluded.quantity`,
		userID, menuItemID, quantity)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return storage.ErrNotFound
		}
		return fmt.Errorf("mise à jour panier: %w", err)
	}
	return nil
}

func (s *Store) ListCart(ctx context.Context, userID int64) ([]models.CartItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, menu_item_id, quantity FROM cart_items
		 WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("lecture panier: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var ci models.CartItem
		if err := rows.Scan(&ci.ID, &ci.UserID, &ci.MenuItemID, &ci.Quantity); err != nil {
			return nil, err
		}
		items = append(items, ci)
	}
	return items, rows.Err()
}

func (s *Store) RemoveCartItem(ctx context.Context, userID, menuItemID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = ? AND menu_item_id = ?`, userID, menuItemID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	return err
}

// =============================================
// COMMANDES
// =============================================

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (reference, user_id, status, total, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.Reference, o.UserID, o.Status, o.Total, o.Address,
		toMillis(o.CreatedAt), toMillis(o.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insertion commande: %w", err)
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	for _, item := range o.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, menu_item_id, name, price, quantity)
			 VALUES (?, ?, ?, ?, ?)`,
			o.ID, item.MenuItemID, item.Name, item.Price, item.Quantity); err != nil {
			return fmt.Errorf("insertion ligne de commande: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) loadOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT menu_item_id, name, price, quantity FROM order_items
		 WHERE order_id = ? ORDER BY rowid ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.MenuItemID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, reference, user_id, status, total, address, created_at, updated_at
		 FROM orders WHERE id = ?`, id).
		Scan(&o.ID, &o.Reference, &o.UserID, &o.Status, &o.Total, &o.Address, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.CreatedAt = fromMillis(createdAt)
	o.UpdatedAt = fromMillis(updatedAt)

	if o.Items, err = s.loadOrderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) listOrders(ctx context.Context, where string, args ...any) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reference, user_id, status, total, address, created_at, updated_at
		 FROM orders `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("liste des commandes: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		var createdAt, updatedAt int64
		if err := rows.Scan(&o.ID, &o.Reference, &o.UserID, &o.Status, &o.Total,
			&o.Address, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		o.CreatedAt = fromMillis(createdAt)
		o.UpdatedAt = fromMillis(updatedAt)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].Items, err = s.loadOrderItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.listOrders(ctx, "WHERE user_id = ?", userID)
}

func (s *Store) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	if status == "" {
		return s.listOrders(ctx, "")
	}
	return s.listOrders(ctx, "WHERE status = ?", status)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !models.ValidStatusTransition(current, status) {
		return storage.ErrInvalidTransition
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, toMillis(time.Now().UTC()), id); err != nil {
		return err
	}
	return tx.Commit()
}
