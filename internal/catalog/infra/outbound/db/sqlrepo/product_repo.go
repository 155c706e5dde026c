package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	catalogDomain "github.com/davicafu/hexashop/internal/catalog/domain"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/db/sqlstore"
)

const productColumns = `id, name, description, image_file, price, created_at, created_by, updated_at, updated_by`

var productFields = sqlstore.NewColumns("id", "name", "description", "image_file", "price", "created_at", "updated_at").
	With("category", `EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = products.id AND pc.category %s ?)`)

// ProductRepo es lector (domain.Reader) y escritor (sqlstore.Writer) de productos.
type ProductRepo struct {
	db      *sql.DB
	dialect sqlstore.Dialect
}

var (
	_ catalogDomain.ProductReader = (*ProductRepo)(nil)
	_ sqlstore.Writer             = (*ProductRepo)(nil)
)

func NewProductRepo(db *sql.DB, dialect sqlstore.Dialect) *ProductRepo {
	return &ProductRepo{db: db, dialect: dialect}
}

func (r *ProductRepo) Name() string { return catalogDomain.ProductEntityName }

// ------------------ Lectura ------------------

func (r *ProductRepo) Get(ctx context.Context, id uuid.UUID) (*catalogDomain.Product, bool, error) {
	return r.FindOne(ctx, sharedDomain.Where("id", sharedDomain.OpEq, id))
}

func (r *ProductRepo) FindOne(ctx context.Context, criteria sharedDomain.Criteria) (*catalogDomain.Product, bool, error) {
	items, _, err := r.query(ctx, criteria, sharedDomain.PageRequest{PageSize: 1}, false)
	if err != nil || len(items) == 0 {
		return nil, false, err
	}
	return items[0], true, nil
}

func (r *ProductRepo) List(ctx context.Context, criteria sharedDomain.Criteria, page sharedDomain.PageRequest) ([]*catalogDomain.Product, int64, error) {
	return r.query(ctx, criteria, page, true)
}

func (r *ProductRepo) query(ctx context.Context, criteria sharedDomain.Criteria, page sharedDomain.PageRequest, withCount bool) ([]*catalogDomain.Product, int64, error) {
	where, args, err := sqlstore.BuildWhere(r.dialect, criteria, productFields)
	if err != nil {
		return nil, 0, err
	}
	order, err := sqlstore.BuildOrder(page.Sort, productFields, "name")
	if err != nil {
		return nil, 0, err
	}
	limit, limitArgs := sqlstore.BuildPage(page)

	var total int64
	if withCount {
		if err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT COUNT(*) FROM products`+where), args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count products: %w", err)
		}
	}

	query := r.dialect.Rebind(`SELECT ` + productColumns + ` FROM products` + where + order + limit)
	rows, err := r.db.QueryContext(ctx, query, append(args, limitArgs...)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []*catalogDomain.Product
	for rows.Next() {
		p := &catalogDomain.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ImageFile, &p.Price,
			&p.CreatedAt, &p.CreatedBy, &p.UpdatedAt, &p.UpdatedBy); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.loadCategories(ctx, products); err != nil {
		return nil, 0, err
	}
	if !withCount {
		total = int64(len(products))
	}
	return products, total, nil
}

func (r *ProductRepo) loadCategories(ctx context.Context, products []*catalogDomain.Product) error {
	if len(products) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*catalogDomain.Product, len(products))
	placeholders := make([]string, 0, len(products))
	args := make([]interface{}, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		p.Category = []string{}
		placeholders = append(placeholders, "?")
		args = append(args, p.ID)
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(
		`SELECT product_id, category FROM product_categories
		 WHERE product_id IN (`+strings.Join(placeholders, ",")+`)
		 ORDER BY product_id, position`), args...)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id       uuid.UUID
			category string
		)
		if err := rows.Scan(&id, &category); err != nil {
			return err
		}
		if p, ok := byID[id]; ok {
			p.Category = append(p.Category, category)
		}
	}
	return rows.Err()
}

// ------------------ Escritura (dentro de la transacción del commit) ------------------

func (r *ProductRepo) Insert(ctx context.Context, tx *sqlstore.Tx, entity sharedDomain.Auditable) error {
	p, err := asProduct(entity)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.ImageFile, p.Price, p.CreatedAt, p.CreatedBy, p.UpdatedAt, p.UpdatedBy,
	); err != nil {
		return err
	}
	return r.writeCategories(ctx, tx, p)
}

func (r *ProductRepo) Update(ctx context.Context, tx *sqlstore.Tx, entity sharedDomain.Auditable) error {
	p, err := asProduct(entity)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, image_file = ?, price = ?, updated_at = ?, updated_by = ?
		 WHERE id = ?`,
		p.Name, p.Description, p.ImageFile, p.Price, p.UpdatedAt, p.UpdatedBy, p.ID,
	)
	if err != nil {
		return err
	}
	if err := sqlstore.RowsAffectedOrNotFound(res, p); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = ?`, p.ID); err != nil {
		return err
	}
	return r.writeCategories(ctx, tx, p)
}

func (r *ProductRepo) Delete(ctx context.Context, tx *sqlstore.Tx, entity sharedDomain.Auditable) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = ?`, entity.GetID()); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, entity.GetID())
	if err != nil {
		return err
	}
	return sqlstore.RowsAffectedOrNotFound(res, entity)
}

func (r *ProductRepo) writeCategories(ctx context.Context, tx *sqlstore.Tx, p *catalogDomain.Product) error {
	for i, c := range p.Category {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_categories (product_id, position, category) VALUES (?, ?, ?)`,
			p.ID, i, c,
		); err != nil {
			return fmt.Errorf("insert category %q: %w", c, err)
		}
	}
	return nil
}

func asProduct(entity sharedDomain.Auditable) (*catalogDomain.Product, error) {
	p, ok := entity.(*catalogDomain.Product)
	if !ok {
		return nil, fmt.Errorf("product writer received %T", entity)
	}
	return p, nil
}

// ------------------ Inicialización de DB ------------------

// InitSchema crea las tablas del catálogo si no existen.
func InitSchema(ctx context.Context, db *sql.DB, d sqlstore.Dialect) error {
	stmts := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS products (
			id %[1]s PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			image_file TEXT NOT NULL,
			price %[2]s NOT NULL,
			created_at %[3]s NULL,
			created_by TEXT NULL,
			updated_at %[3]s NULL,
			updated_by TEXT NULL
		)`, d.UUIDType(), d.DecimalType(), d.TimestampType()),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS product_categories (
			product_id %s NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			category TEXT NOT NULL,
			PRIMARY KEY (product_id, position)
		)`, d.UUIDType()),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
