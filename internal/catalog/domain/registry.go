package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/hexashop/internal/shared/domain/events"
)

const ProductAggregateType = "product"

// NewEventRegistry son los eventos de integración que el catálogo escribe en la outbox.
func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		sharedEvents.ProductPriceChanged: {
			Type:  reflect.TypeOf(sharedEvents.ProductPriceChangedIntegrationEvent{}),
			Topic: sharedEvents.CatalogTopic,
		},
	}
}
