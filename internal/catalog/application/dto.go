package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogDomain "github.com/davicafu/hexashop/internal/catalog/domain"
)

type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description" validate:"required"`
	ImageFile   string          `json:"image_file" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Category    []string        `json:"category" validate:"required,min=1"`
}

func ToProductDTO(p *catalogDomain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageFile:   p.ImageFile,
		Price:       p.Price,
		Category:    append([]string(nil), p.Category...),
	}
}

type PriceTrendDTO struct {
	From  time.Time                       `json:"from"`
	To    time.Time                       `json:"to"`
	Days  []catalogDomain.DailyPriceTrend `json:"days"`
	Total uint64                          `json:"total"`
}
