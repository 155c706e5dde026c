package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	basketDomain "github.com/davicafu/hexashop/internal/basket/domain"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/db/sqlstore"
)

const (
	cartColumns = `id, user_name, created_at, created_by, updated_at, updated_by`
	itemColumns = `id, shopping_cart_id, product_id, quantity, color, price, product_name`
)

var cartFields = sqlstore.NewColumns("id", "user_name", "created_at", "updated_at").
	With("items.product_id", `EXISTS (SELECT 1 FROM shopping_cart_items i WHERE i.shopping_cart_id = shopping_carts.id AND i.product_id %s ?)`)

// CartRepo guarda cada carrito en shopping_carts y sus líneas en shopping_cart_items.
type CartRepo struct {
	db      *sql.DB
	dialect sqlstore.Dialect
}

var (
	_ basketDomain.ShoppingCartReader = (*CartRepo)(nil)
	_ sqlstore.Writer                 = (*CartRepo)(nil)
)

func NewCartRepo(db *sql.DB, dialect sqlstore.Dialect) *CartRepo {
	return &CartRepo{db: db, dialect: dialect}
}

func (r *CartRepo) Name() string { return basketDomain.ShoppingCartEntityName }

// ------------------ Lectura ------------------

func (r *CartRepo) Get(ctx context.Context, id uuid.UUID) (*basketDomain.ShoppingCart, bool, error) {
	return r.FindOne(ctx, sharedDomain.Where("id", sharedDomain.OpEq, id))
}

func (r *CartRepo) FindOne(ctx context.Context, criteria sharedDomain.Criteria) (*basketDomain.ShoppingCart, bool, error) {
	carts, _, err := r.query(ctx, criteria, sharedDomain.PageRequest{PageSize: 1}, false)
	if err != nil || len(carts) == 0 {
		return nil, false, err
	}
	return carts[0], true, nil
}

func (r *CartRepo) List(ctx context.Context, criteria sharedDomain.Criteria, page sharedDomain.PageRequest) ([]*basketDomain.ShoppingCart, int64, error) {
	return r.query(ctx, criteria, page, true)
}

func (r *CartRepo) query(ctx context.Context, criteria sharedDomain.Criteria, page sharedDomain.PageRequest, withCount bool) ([]*basketDomain.ShoppingCart, int64, error) {
	where, args, err := sqlstore.BuildWhere(r.dialect, criteria, cartFields)
	if err != nil {
		return nil, 0, err
	}
	order, err := sqlstore.BuildOrder(page.Sort, cartFields, "user_name")
	if err != nil {
		return nil, 0, err
	}
	limit, limitArgs := sqlstore.BuildPage(page)

	var total int64
	if withCount {
		if err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT COUNT(*) FROM shopping_carts`+where), args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count shopping carts: %w", err)
		}
	}

	rows, err := r.db.QueryContext(ctx,
		r.dialect.Rebind(`SELECT `+cartColumns+` FROM shopping_carts`+where+order+limit),
		append(args, limitArgs...)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		ids      []uuid.UUID
		entities = make(map[uuid.UUID]sharedDomain.Entity)
		names    = make(map[uuid.UUID]string)
	)
	for rows.Next() {
		var (
			e        sharedDomain.Entity
			userName string
		)
		if err := rows.Scan(&e.ID, &userName, &e.CreatedAt, &e.CreatedBy, &e.UpdatedAt, &e.UpdatedBy); err != nil {
			return nil, 0, err
		}
		ids = append(ids, e.ID)
		entities[e.ID] = e
		names[e.ID] = userName
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	carts := make([]*basketDomain.ShoppingCart, 0, len(ids))
	for _, id := range ids {
		carts = append(carts, basketDomain.RestoreShoppingCart(entities[id], names[id], items[id]))
	}
	if !withCount {
		total = int64(len(carts))
	}
	return carts, total, nil
}

func (r *CartRepo) loadItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]basketDomain.ShoppingCartItem, error) {
	out := make(map[uuid.UUID][]basketDomain.ShoppingCartItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(
		`SELECT `+itemColumns+` FROM shopping_cart_items
		 WHERE shopping_cart_id IN (`+strings.Join(placeholders, ",")+`)
		 ORDER BY shopping_cart_id, position`), args...)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it basketDomain.ShoppingCartItem
		if err := rows.Scan(&it.ID, &it.ShoppingCartID, &it.ProductID, &it.Quantity, &it.Color, &it.Price, &it.ProductName); err != nil {
			return nil, err
		}
		out[it.ShoppingCartID] = append(out[it.ShoppingCartID], it)
	}
	return out, rows.Err()
}

// ------------------ Escritura (dentro de la transacción del commit) ------------------

func (r *CartRepo) Insert(ctx context.Context, tx *sqlstore.Tx, entity sharedDomain.Auditable) error {
	c, err := asCart(entity)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO shopping_carts (`+cartColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserName, c.CreatedAt, c.CreatedBy, c.UpdatedAt, c.UpdatedBy,
	); err != nil {
		return err
	}
	return writeItems(ctx, tx, c)
}

// Update reescribe las líneas: el carrito es dueño de ellas y no tienen identidad fuera de él.
func (r *CartRepo) Update(ctx context.Context, tx *sqlstore.Tx, entity sharedDomain.Auditable) error {
	c, err := asCart(entity)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE shopping_carts SET user_name = ?, updated_at = ?, updated_by = ? WHERE id = ?`,
		c.UserName, c.UpdatedAt, c.UpdatedBy, c.ID,
	)
	if err != nil {
		return err
	}
	if err := sqlstore.RowsAffectedOrNotFound(res, c); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM shopping_cart_items WHERE shopping_cart_id = ?`, c.ID); err != nil {
		return err
	}
	return writeItems(ctx, tx, c)
}

func (r *CartRepo) Delete(ctx context.Context, tx *sqlstore.Tx, entity sharedDomain.Auditable) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM shopping_cart_items WHERE shopping_cart_id = ?`, entity.GetID()); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM shopping_carts WHERE id = ?`, entity.GetID())
	if err != nil {
		return err
	}
	return sqlstore.RowsAffectedOrNotFound(res, entity)
}

func writeItems(ctx context.Context, tx *sqlstore.Tx, c *basketDomain.ShoppingCart) error {
	for pos, it := range c.Items() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO shopping_cart_items (`+itemColumns+`, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, c.ID, it.ProductID, it.Quantity, it.Color, it.Price, it.ProductName, pos,
		); err != nil {
			return fmt.Errorf("insert cart item %s: %w", it.ProductID, err)
		}
	}
	return nil
}

func asCart(entity sharedDomain.Auditable) (*basketDomain.ShoppingCart, error) {
	c, ok := entity.(*basketDomain.ShoppingCart)
	if !ok {
		return nil, fmt.Errorf("shopping cart writer received %T", entity)
	}
	return c, nil
}

// ------------------ Inicialización de DB ------------------

// InitSchema crea las tablas del carrito si no existen.
func InitSchema(ctx context.Context, db *sql.DB, d sqlstore.Dialect) error {
	stmts := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS shopping_carts (
			id %[1]s PRIMARY KEY,
			user_name VARCHAR(100) NOT NULL UNIQUE,
			created_at %[2]s NULL,
			created_by TEXT NULL,
			updated_at %[2]s NULL,
			updated_by TEXT NULL
		)`, d.UUIDType(), d.TimestampType()),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS shopping_cart_items (
			id %[1]s PRIMARY KEY,
			shopping_cart_id %[1]s NOT NULL REFERENCES shopping_carts(id) ON DELETE CASCADE,
			product_id %[1]s NOT NULL,
			quantity INTEGER NOT NULL,
			color VARCHAR(30) NOT NULL DEFAULT '',
			price %[2]s NOT NULL,
			product_name VARCHAR(100) NOT NULL,
			position INTEGER NOT NULL
		)`, d.UUIDType(), d.DecimalType()),
		`CREATE INDEX IF NOT EXISTS idx_cart_items_product ON shopping_cart_items (product_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
