// Package shopify is a small typed client for the Shopify Storefront
// GraphQL API.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

const (
	DefaultAPIVersion = "2024-07"
	HeaderAccessToken = "X-Shopify-Storefront-Access-Token"

	maxResponseBytes = 1 << 20
)

type Config struct {
	StoreDomain string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration

	// Endpoint replaces the URL derived from StoreDomain.
	Endpoint string
}

type Client struct {
	HTTP *http.Client

	domain   string
	token    string
	version  string
	endpoint string
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = DefaultAPIVersion
	}
	return &Client{
		HTTP:     httpClient,
		domain:   NormalizeHost(cfg.StoreDomain),
		token:    strings.TrimSpace(cfg.AccessToken),
		version:  version,
		endpoint: strings.TrimSpace(cfg.Endpoint),
	}
}

var schemePrefix = regexp.MustCompile(`^https?://`)

// NormalizeHost strips a leading scheme and trailing slashes from a store
// domain.
func NormalizeHost(v string) string {
	v = schemePrefix.ReplaceAllString(strings.TrimSpace(v), "")
	return strings.TrimRight(v, "/")
}

// Endpoint returns the GraphQL URL the client posts to.
func (c *Client) Endpoint() string {
	if c.endpoint != "" {
		return c.endpoint
	}
	return fmt.Sprintf("https://%s/api/%s/graphql.json", c.domain, c.version)
}

// CheckConfig returns a ConfigError when the domain or token is missing.
func (c *Client) CheckConfig() error {
	if c.domain == "" && c.endpoint == "" {
		return &ConfigError{
			Setting: "SHOPIFY_STORE_DOMAIN",
			Message: "Missing Shopify store domain. Set SHOPIFY_STORE_DOMAIN.",
		}
	}
	if c.token == "" {
		return &ConfigError{
			Setting: "SHOPIFY_STOREFRONT_ACCESS_TOKEN",
			Message: "Missing Shopify Storefront access token. Set SHOPIFY_STOREFRONT_ACCESS_TOKEN.",
		}
	}
	return nil
}

// CreateCart creates a cart holding lines and returns its checkout URL.
func (c *Client) CreateCart(ctx context.Context, lines []CartLine) (string, error) {
	var data cartCreateData
	if err := c.do(ctx, cartCreateMutation, map[string]any{"lines": lines}, &data); err != nil {
		return "", err
	}

	if data.CartCreate != nil && len(data.CartCreate.UserErrors) > 0 {
		return "", &UserErrors{Errors: data.CartCreate.UserErrors}
	}
	if data.CartCreate == nil || data.CartCreate.Cart == nil || data.CartCreate.Cart.CheckoutURL == "" {
		return "", &RemoteError{Op: cartCreateMutation.name, Message: "Shopify did not return a checkout URL."}
	}
	return data.CartCreate.Cart.CheckoutURL, nil
}

func (c *Client) VariantAvailability(ctx context.Context, variantID string) (VariantAvailability, error) {
	var data variantAvailabilityData
	if err := c.do(ctx, variantAvailabilityQuery, map[string]any{"id": variantID}, &data); err != nil {
		return VariantAvailability{}, err
	}
	if data.ProductVariant == nil {
		return VariantAvailability{}, errors.Wrapf(ErrNotFound, "variant %q when fetching availability", variantID)
	}
	return *data.ProductVariant, nil
}

// ProductVariantAvailability returns the first 100 variants of the product
// with the given handle.
func (c *Client) ProductVariantAvailability(ctx context.Context, handle string) ([]VariantAvailability, error) {
	var data productVariantAvailabilityData
	if err := c.do(ctx, productVariantAvailabilityQuery, map[string]any{"handle": handle}, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, errors.Wrapf(ErrNotFound, "product with handle %q", handle)
	}

	out := make([]VariantAvailability, 0, len(data.Product.Variants.Edges))
	for _, edge := range data.Product.Variants.Edges {
		if edge.Node == nil || edge.Node.ID == "" {
			continue
		}
		out = append(out, *edge.Node)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, doc document, vars map[string]any, out any) error {
	if err := c.CheckConfig(); err != nil {
		return err
	}

	body, err := json.Marshal(gqlRequest{Query: doc.query, OperationName: doc.name, Variables: vars})
	if err != nil {
		return errors.Wrap(err, "encode graphql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return &RemoteError{Op: doc.name, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderAccessToken, c.token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &RemoteError{Op: doc.name, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &RemoteError{Op: doc.name, Status: resp.StatusCode, Err: err}
	}

	var gr gqlResponse
	decodeErr := json.Unmarshal(raw, &gr)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &RemoteError{Op: doc.name, Status: resp.StatusCode}
		if decodeErr == nil && len(gr.Errors) > 0 {
			re.Message = gr.Errors[0].Message
		}
		return re
	}
	if decodeErr != nil {
		return &RemoteError{Op: doc.name, Status: resp.StatusCode, Err: errors.Wrap(decodeErr, "decode graphql response")}
	}

	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		if len(gr.Errors) > 0 {
			return &RemoteError{Op: doc.name, Status: resp.StatusCode, Message: gr.Errors[0].Message}
		}
		return &RemoteError{Op: doc.name, Status: resp.StatusCode, Err: errors.New("response had no data")}
	}

	if err := json.Unmarshal(gr.Data, out); err != nil {
		return &RemoteError{Op: doc.name, Status: resp.StatusCode, Err: errors.Wrap(err, "decode graphql data")}
	}
	return nil
}
