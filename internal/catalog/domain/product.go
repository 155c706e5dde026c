package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
)

const ProductEntityName = "Product"

type Product struct {
	sharedDomain.Aggregate
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageFile   string          `json:"image_file"`
	Price       decimal.Decimal `json:"price"`
	Category    []string        `json:"category"`
}

func (*Product) EntityName() string { return ProductEntityName }

// ProductSnapshot es la copia por valor que viaja en los eventos.
type ProductSnapshot struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageFile   string          `json:"image_file"`
	Price       decimal.Decimal `json:"price"`
	Category    []string        `json:"category"`
}

func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageFile:   p.ImageFile,
		Price:       p.Price,
		Category:    append([]string(nil), p.Category...),
	}
}

// --- Métodos de dominio ---

// NewProduct valida y crea el producto con su evento ProductCreated.
func NewProduct(id uuid.UUID, name, description, imageFile string, price decimal.Decimal, category []string) (*Product, error) {
	if err := checkInvariants(name, price); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	p := &Product{
		Aggregate:   sharedDomain.Aggregate{Entity: sharedDomain.Entity{ID: id}},
		Name:        name,
		Description: description,
		ImageFile:   imageFile,
		Price:       price,
		Category:    append([]string(nil), category...),
	}
	p.RaiseEvent(ProductCreatedEvent{
		EventBase: sharedDomain.NewEventBase(ProductCreated, p.ID),
		Product:   p.Snapshot(),
	})
	return p, nil
}

// Update solo emite ProductPriceChanged si el precio cambia.
func (p *Product) Update(name, description, imageFile string, price decimal.Decimal, category []string) error {
	if err := checkInvariants(name, price); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.ImageFile = imageFile
	p.Category = append([]string(nil), category...)

	if p.Price.Equal(price) {
		return nil
	}

	old := p.Price
	p.Price = price
	p.RaiseEvent(ProductPriceChangedEvent{
		EventBase: sharedDomain.NewEventBase(ProductPriceChanged, p.ID),
		OldPrice:  old,
		Product:   p.Snapshot(),
	})
	return nil
}

// InCategory compara sin distinguir mayúsculas.
func (p *Product) InCategory(category string) bool {
	for _, c := range p.Category {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

func checkInvariants(name string, price decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return sharedDomain.NewBadRequestError("product name is required")
	}
	if price.IsNegative() {
		return sharedDomain.NewBadRequestError("product price cannot be negative", "price: "+price.String())
	}
	return nil
}
