package adapter

import (
	"context"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/inventory"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/shopify"
)

type AvailabilityClient interface {
	VariantAvailability(ctx context.Context, variantID string) (shopify.VariantAvailability, error)
	ProductVariantAvailability(ctx context.Context, handle string) ([]shopify.VariantAvailability, error)
}

// ShopifyFetcher reads variant availability from the Storefront API.
type ShopifyFetcher struct {
	client AvailabilityClient
}

func NewShopifyFetcher(client AvailabilityClient) *ShopifyFetcher {
	return &ShopifyFetcher{client: client}
}

func (f *ShopifyFetcher) VariantAvailability(ctx context.Context, variantID string) (inventory.Record, error) {
	v, err := f.client.VariantAvailability(ctx, variantID)
	if err != nil {
		return inventory.Record{}, err
	}
	return toRecord(v), nil
}

func (f *ShopifyFetcher) ProductVariantAvailability(ctx context.Context, handle string) (map[string]inventory.Record, error) {
	variants, err := f.client.ProductVariantAvailability(ctx, handle)
	if err != nil {
		return nil, err
	}
	out := make(map[string]inventory.Record, len(variants))
	for _, v := range variants {
		out[v.ID] = toRecord(v)
	}
	return out, nil
}

func toRecord(v shopify.VariantAvailability) inventory.Record {
	r := inventory.Record{AvailableForSale: v.AvailableForSale}
	if v.QuantityAvailable != nil {
		r.QuantityAvailable = inventory.Quantity(*v.QuantityAvailable)
	}
	return r
}
