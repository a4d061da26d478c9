package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const CartEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "cart_event",
	"fields" : [
		{"name": "session_id", "type": "string"},
		{"name": "kind", "type": "string"},
		{"name": "product_id", "type": "long"},
		{"name": "product_title", "type": "string"},
		{"name": "unit_price", "type": "string"},
		{"name": "quantity", "type": "long"},
		{"name": "cart_total", "type": "string"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

// CartEventV1 is a cart change as written to the cart events topic.
// Money values are decimal strings.
type CartEventV1 struct {
	SessionID    string    `avro:"session_id"`
	Kind         string    `avro:"kind"`
	ProductID    int64     `avro:"product_id"`
	ProductTitle string    `avro:"product_title"`
	UnitPrice    string    `avro:"unit_price"`
	Quantity     int64     `avro:"quantity"`
	CartTotal    string    `avro:"cart_total"`
	OccurredAt   time.Time `avro:"occurred_at"`
}

func CartEventV1Avro() avro.Schema {
	return avro.MustParse(CartEventSchemaTextV1)
}
