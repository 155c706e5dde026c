package events

import (
	"encoding/json"
	"reflect"
	"time"
)

// IntegrationEvent es el sobre común de todos los eventos que cruzan módulos por el broker.
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // contenido específico del evento

	Key   string `json:"-"`
	Topic string `json:"-"`
}

// PartitionKey implementa bus.Keyer.
func (e IntegrationEvent) PartitionKey() string { return e.Key }

// EventTopic implementa bus.Topical.
func (e IntegrationEvent) EventTopic() string { return e.Topic }

// EventMetadata asocia un tipo de evento con su contrato Go y su topic.
type EventMetadata struct {
	Type  reflect.Type
	Topic string
}

// MergeRegistries une los registros de cada módulo. Un tipo repetido lo sobrescribe el último.
func MergeRegistries(registries ...map[string]EventMetadata) map[string]EventMetadata {
	merged := make(map[string]EventMetadata)
	for _, r := range registries {
		for k, v := range r {
			merged[k] = v
		}
	}
	return merged
}
