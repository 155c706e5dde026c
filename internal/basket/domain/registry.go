package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/hexashop/internal/shared/domain/events"
)

const BasketAggregateType = "basket"

// NewEventRegistry son los eventos de integración que el carrito escribe en la outbox.
func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		sharedEvents.BasketCheckout: {
			Type:  reflect.TypeOf(sharedEvents.BasketCheckoutIntegrationEvent{}),
			Topic: sharedEvents.BasketTopic,
		},
	}
}
