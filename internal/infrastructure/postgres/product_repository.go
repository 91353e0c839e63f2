package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, account_id, name, barcode, unit, category, price, min_quantity, description, search_name, created_at, updated_at`

// Create persiste un nuevo producto. (account_id, barcode) es único.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.AccountID, p.Name, p.Barcode, p.Unit, p.Category,
		p.Price, p.MinQuantity, p.Description, p.SearchName, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID. nil sin error = no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByAccountAndBarcode obtiene un producto por cuenta y código de barras.
func (r *ProductRepo) GetByAccountAndBarcode(ctx context.Context, accountID, barcode string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE account_id = $1 AND barcode = $2`
	p, err := scanProduct(r.q.QueryRow(ctx, query, accountID, barcode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by barcode: %w", err)
	}
	return p, nil
}

// List lista productos de la cuenta en orden alfabético, con filtro opcional por
// search_name (término ya normalizado) o barcode exacto.
func (r *ProductRepo) List(ctx context.Context, accountID, search string, limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE account_id = $1`
	args := []any{accountID}
	if search != "" {
		query += ` AND (search_name LIKE '%' || $2 || '%' OR barcode = $2) ORDER BY name ASC LIMIT $3 OFFSET $4`
		args = append(args, search, limit, offset)
	} else {
		query += ` ORDER BY name ASC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Update actualiza metadatos del producto. Barcode inmutable; cantidad vía movimientos.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET name = $2, unit = $3, category = $4, price = $5,
			min_quantity = $6, description = $7, search_name = $8, updated_at = $9
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Unit, p.Category, p.Price,
		p.MinQuantity, p.Description, p.SearchName, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete elimina un producto de la cuenta. El registro de stock cae en cascada;
// los movimientos históricos se conservan.
func (r *ProductRepo) Delete(ctx context.Context, accountID, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM products WHERE account_id = $1 AND id = $2`, accountID, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// ListBelowMinQuantity devuelve los productos de la cuenta cuyo stock actual es
// menor que su umbral mínimo, mayor déficit primero. Producto sin registro de
// stock cuenta como cantidad 0.
func (r *ProductRepo) ListBelowMinQuantity(ctx context.Context, accountID string) ([]repository.LowStockItem, error) {
	query := `
		SELECT p.id, p.barcode, p.name, COALESCE(s.quantity, 0) AS current_quantity, p.min_quantity
		FROM products p
		LEFT JOIN stock_records s ON s.account_id = p.account_id AND s.product_id = p.id
		WHERE p.account_id = $1
		  AND p.min_quantity > 0
		  AND COALESCE(s.quantity, 0) < p.min_quantity
		ORDER BY (p.min_quantity - COALESCE(s.quantity, 0)) DESC`
	rows, err := r.q.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list below min quantity: %w", err)
	}
	defer rows.Close()
	var items []repository.LowStockItem
	for rows.Next() {
		var it repository.LowStockItem
		if err := rows.Scan(&it.ProductID, &it.Barcode, &it.Name, &it.Quantity, &it.MinQuantity); err != nil {
			return nil, fmt.Errorf("scan low stock item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Barcode, &p.Unit, &p.Category,
		&p.Price, &p.MinQuantity, &p.Description, &p.SearchName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
