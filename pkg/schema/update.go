package schema

const ProductUpdateSchemaTextV1 = `{
	"type": "record",
	"namespace": "stockwear",
	"name": "product_update",
	"fields": [
		{"name": "product_id", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "image", "type": "string"},
		{"name": "price", "type": "double"},
		{"name": "category", "type": "string"},
		{"name": "sizes", "type": {"type": "map", "values": "long"}},
		{"name": "created_at", "type": "long"}
	]
}`

// ProductUpdateV1 is the payload published after an edit is applied.
// created_at is unix milliseconds and is the product's original creation
// time, not the edit time.
type ProductUpdateV1 struct {
	ProductID string         `avro:"product_id"`
	Name      string         `avro:"name"`
	Image     string         `avro:"image"`
	Price     float64        `avro:"price"`
	Category  string         `avro:"category"`
	Sizes     map[string]int `avro:"sizes"`
	CreatedAt int64          `avro:"created_at"`
}
