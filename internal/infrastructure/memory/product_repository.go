package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo catálogo de productos en memoria.
type ProductRepo struct {
	store *Store
}

// NewProductRepository construye el repositorio de productos.
func NewProductRepository(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

// Create persiste un producto. (account_id, barcode) único.
func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.products {
		if existing.AccountID == p.AccountID && existing.Barcode == p.Barcode {
			return domain.ErrDuplicate
		}
	}
	stored := *p
	r.store.products[p.ID] = &stored
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p, ok := r.store.products[id]; ok {
		out := *p
		return &out, nil
	}
	return nil, nil
}

func (r *ProductRepo) GetByAccountAndBarcode(_ context.Context, accountID, barcode string) (*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.products {
		if p.AccountID == accountID && p.Barcode == barcode {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

// List filtra por cuenta y término normalizado, ordena alfabéticamente y pagina.
func (r *ProductRepo) List(_ context.Context, accountID, search string, limit, offset int) ([]*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var all []*entity.Product
	for _, p := range r.store.products {
		if p.AccountID != accountID {
			continue
		}
		if search != "" && !strings.Contains(p.SearchName, search) && p.Barcode != search {
			continue
		}
		out := *p
		all = append(all, &out)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *p
	r.store.products[p.ID] = &stored
	return nil
}

// Delete elimina el producto y su registro de stock; el log de movimientos se conserva.
func (r *ProductRepo) Delete(_ context.Context, accountID, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok || p.AccountID != accountID {
		return domain.ErrNotFound
	}
	delete(r.store.products, id)
	delete(r.store.stock, stockKey(accountID, id))
	return nil
}

// ListBelowMinQuantity productos con stock < umbral mínimo, mayor déficit primero.
func (r *ProductRepo) ListBelowMinQuantity(_ context.Context, accountID string) ([]repository.LowStockItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var items []repository.LowStockItem
	for _, p := range r.store.products {
		if p.AccountID != accountID || p.MinQuantity <= 0 {
			continue
		}
		var qty int64
		if rec, ok := r.store.stock[stockKey(accountID, p.ID)]; ok {
			qty = rec.Quantity
		}
		if qty < p.MinQuantity {
			items = append(items, repository.LowStockItem{
				ProductID:   p.ID,
				Barcode:     p.Barcode,
				Name:        p.Name,
				Quantity:    qty,
				MinQuantity: p.MinQuantity,
			})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].MinQuantity-items[i].Quantity > items[j].MinQuantity-items[j].Quantity
	})
	return items, nil
}
