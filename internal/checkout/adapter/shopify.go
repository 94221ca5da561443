package adapter

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/shopify"
)

type CartCreator interface {
	CreateCart(ctx context.Context, lines []shopify.CartLine) (string, error)
}

// ShopifySubmitter creates Shopify carts and maps client failures onto the
// checkout error types.
type ShopifySubmitter struct {
	client CartCreator
}

func NewShopifySubmitter(client CartCreator) *ShopifySubmitter {
	return &ShopifySubmitter{client: client}
}

func (s *ShopifySubmitter) CreateCheckout(ctx context.Context, lines []checkout.Line) (string, error) {
	in := make([]shopify.CartLine, 0, len(lines))
	for _, l := range lines {
		in = append(in, shopify.CartLine{MerchandiseID: l.MerchandiseID, Quantity: l.Quantity})
	}

	url, err := s.client.CreateCart(ctx, in)
	if err != nil {
		return "", mapError(err)
	}
	return url, nil
}

func mapError(err error) error {
	if ce, ok := errors.Into[*shopify.ConfigError](err); ok {
		return &checkout.ConfigError{Message: ce.Message, Err: err}
	}
	if ue, ok := errors.Into[*shopify.UserErrors](err); ok {
		return &checkout.ValidationError{Messages: ue.Messages()}
	}
	if re, ok := errors.Into[*shopify.RemoteError](err); ok {
		return &checkout.RemoteError{Message: re.Message, Err: err}
	}
	return &checkout.RemoteError{Err: err}
}
