package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeItemsWritesNumericPrice(t *testing.T) {
	b, err := EncodeItems([]LineItem{{
		ID:              "hat-1",
		Name:            "Hat",
		Price:           decimal.RequireFromString("39.99"),
		Quantity:        2,
		RemoteVariantID: "gid://shopify/ProductVariant/1",
	}})
	require.NoError(t, err)

	assert.JSONEq(t, `[{"id":"hat-1","name":"Hat","price":39.99,"image":"","quantity":2,"remoteVariantId":"gid://shopify/ProductVariant/1"}]`, string(b))
}

func TestEncodeEmptyIsArray(t *testing.T) {
	b, err := EncodeItems(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestDecodeItems(t *testing.T) {
	tests := map[string]struct {
		input string
		want  []LineItem
	}{
		"empty input": {input: "", want: nil},
		"legacy variant field": {
			input: `[{"id":"hat-1","name":"Hat","price":39.99,"image":"h.png","quantity":1,"variant":"M","color":"red","shopifyVariantId":"gid://shopify/ProductVariant/1"}]`,
			want: []LineItem{{
				ID: "hat-1", Name: "Hat", Price: decimal.RequireFromString("39.99"), Image: "h.png",
				Quantity: 1, Variant: "M", Color: "red", RemoteVariantID: "gid://shopify/ProductVariant/1",
			}},
		},
		"quoted price": {
			input: `[{"id":"a","price":"12.50","quantity":3}]`,
			want:  []LineItem{{ID: "a", Price: decimal.RequireFromString("12.5"), Quantity: 3}},
		},
		"drops invalid entries": {
			input: `[{"id":"","price":1,"quantity":1},{"id":"b","price":1,"quantity":0},{"id":"c","price":-1,"quantity":1},{"id":"d","price":"x","quantity":1},42,{"id":"ok","price":1,"quantity":1}]`,
			want:  []LineItem{{ID: "ok", Price: decimal.NewFromInt(1), Quantity: 1}},
		},
		"merges duplicate ids": {
			input: `[{"id":"a","price":2,"quantity":1},{"id":"b","price":1,"quantity":1},{"id":"a","price":2,"quantity":2}]`,
			want: []LineItem{
				{ID: "a", Price: decimal.NewFromInt(2), Quantity: 3},
				{ID: "b", Price: decimal.NewFromInt(1), Quantity: 1},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeItems([]byte(tt.input))
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.True(t, tt.want[i].Price.Equal(got[i].Price), "price %s", got[i].Price)
				got[i].Price = tt.want[i].Price
				assert.Equal(t, tt.want[i], got[i])
			}
		})
	}
}

func TestDecodeItemsRejectsNonArray(t *testing.T) {
	_, err := DecodeItems([]byte(`{"id":"a"}`))
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []LineItem{
		{ID: "b", Name: "B", Price: decimal.RequireFromString("0.10"), Quantity: 1, Color: "navy"},
		{ID: "a", Name: "A", Price: decimal.RequireFromString("39.99"), Quantity: 7, Variant: "L", RemoteVariantID: "gid://x/1"},
	}
	b, err := EncodeItems(in)
	require.NoError(t, err)

	out, err := DecodeItems(b)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i := range in {
		assert.True(t, in[i].Price.Equal(out[i].Price))
		assert.Equal(t, in[i].ID, out[i].ID)
		assert.Equal(t, in[i].Quantity, out[i].Quantity)
		assert.Equal(t, in[i].RemoteVariantID, out[i].RemoteVariantID)
		assert.Equal(t, in[i].Color, out[i].Color)
	}
}
