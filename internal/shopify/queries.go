package shopify

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// document is a GraphQL operation checked for syntax when the package loads.
type document struct {
	name  string
	query string
}

func mustParse(name, query string) document {
	doc, err := parser.ParseQuery(&ast.Source{Name: name, Input: query})
	if err != nil {
		panic(fmt.Sprintf("shopify: invalid %s document: %v", name, err))
	}
	if len(doc.Operations) != 1 || doc.Operations[0].Name != name {
		panic(fmt.Sprintf("shopify: %s document must contain exactly one operation named %s", name, name))
	}
	return document{name: name, query: query}
}

var (
	cartCreateMutation = mustParse("CartCreate", `
mutation CartCreate($lines: [CartLineInput!]!) {
  cartCreate(input: { lines: $lines }) {
    cart {
      checkoutUrl
    }
    userErrors {
      field
      message
    }
  }
}`)

	variantAvailabilityQuery = mustParse("VariantAvailability", `
query VariantAvailability($id: ID!) {
  productVariant(id: $id) {
    id
    availableForSale
    quantityAvailable
  }
}`)

	productVariantAvailabilityQuery = mustParse("ProductVariantAvailability", `
query ProductVariantAvailability($handle: String!) {
  product(handle: $handle) {
    variants(first: 100) {
      edges {
        node {
          id
          availableForSale
          quantityAvailable
        }
      }
    }
  }
}`)
)
