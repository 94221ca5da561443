package shopify

import (
	"encoding/json"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

type gqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors gqlerror.List   `json:"errors"`
}

// CartLine is one merchandise line of a new Shopify cart.
type CartLine struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type cartCreateData struct {
	CartCreate *struct {
		Cart *struct {
			CheckoutURL string `json:"checkoutUrl"`
		} `json:"cart"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"cartCreate"`
}

// VariantAvailability mirrors the ProductVariant availability fields.
// QuantityAvailable is nil when the store does not track inventory or the
// token lacks the unauthenticated_read_product_inventory scope.
type VariantAvailability struct {
	ID                string `json:"id"`
	AvailableForSale  bool   `json:"availableForSale"`
	QuantityAvailable *int   `json:"quantityAvailable"`
}

type variantAvailabilityData struct {
	ProductVariant *VariantAvailability `json:"productVariant"`
}

type productVariantAvailabilityData struct {
	Product *struct {
		Variants struct {
			Edges []struct {
				Node *VariantAvailability `json:"node"`
			} `json:"edges"`
		} `json:"variants"`
	} `json:"product"`
}
