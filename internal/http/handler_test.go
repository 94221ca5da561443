package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/inventory"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

const (
	hatVariant     = "gid://shopify/ProductVariant/1"
	defaultVariant = "gid://shopify/ProductVariant/99"
	productHandle  = "aspenova-hat"
)

type fakeFetcher struct {
	mu       sync.Mutex
	records  map[string]inventory.Record
	handles  []string
	variants []string
	err      error
}

func (f *fakeFetcher) VariantAvailability(_ context.Context, id string) (inventory.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variants = append(f.variants, id)
	if f.err != nil {
		return inventory.Record{}, f.err
	}
	rec, ok := f.records[id]
	if !ok {
		return inventory.Record{}, errors.New("not found")
	}
	return rec, nil
}

func (f *fakeFetcher) ProductVariantAvailability(_ context.Context, handle string) (map[string]inventory.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handles = append(f.handles, handle)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]inventory.Record, len(f.records))
	for id, rec := range f.records {
		out[id] = rec
	}
	return out, nil
}

type fakeSubmitter struct {
	url   string
	err   error
	lines []checkout.Line
}

func (f *fakeSubmitter) CreateCheckout(_ context.Context, lines []checkout.Line) (string, error) {
	f.lines = lines
	return f.url, f.err
}

type stubCheckout struct {
	err error
}

func (s stubCheckout) Checkout(context.Context, *cart.Store) (checkout.Result, error) {
	return checkout.Result{}, s.err
}

type blockingAvailability struct{}

func (blockingAvailability) Get(ctx context.Context, _ []string, _ ...inventory.LookupOption) (inventory.Snapshot, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type testEnv struct {
	router    http.Handler
	sessions  *cart.Sessions
	fetcher   *fakeFetcher
	submitter *fakeSubmitter
}

func newTestEnv(t *testing.T, mutate func(d *Deps)) *testEnv {
	t.Helper()
	log := logger.Discard()
	slot := storage.NewMemory()
	sessions := cart.NewSessions(func(id string) *cart.Store {
		return cart.NewStore(cart.NewSlotPersistence(slot, id), cart.WithLogger(log))
	})
	fetcher := &fakeFetcher{records: map[string]inventory.Record{
		hatVariant: {AvailableForSale: true, QuantityAvailable: inventory.Quantity(5)},
	}}
	cache := inventory.NewCache(fetcher, inventory.Options{Logger: log})
	sub := &fakeSubmitter{url: "https://aspenova.myshopify.com/cart/c/1"}

	d := Deps{
		Logger:              log,
		Sessions:            sessions,
		Availability:        cache,
		Checkout:            checkout.NewBuilder(cache, sub, checkout.WithLogger(log)),
		ProductHandle:       productHandle,
		DefaultVariantID:    defaultVariant,
		AvailabilityTimeout: time.Second,
	}
	if mutate != nil {
		mutate(&d)
	}
	return &testEnv{
		router:    NewRouter(NewHandler(d), RouterOptions{Logger: log, CORSAllowOrigins: []string{"https://aspenova.com"}}),
		sessions:  sessions,
		fetcher:   fetcher,
		submitter: sub,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set(middleware.HeaderSessionID, "sess-1")
	req.Header.Set(middleware.HeaderCorrelationID, "corr-1")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) cart.Snapshot {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var snap cart.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const hatJSON = `{"id":"hat-1","name":"Hat","price":39.99,"image":"/img/hat.png","remoteVariantId":"` + hatVariant + `"}`

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}

func TestSessionCookieIssuedWhenMissing(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	sid := rec.Header().Get(middleware.HeaderSessionID)
	require.NotEmpty(t, sid)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.Equal(t, sid, cookies[0].Value)
}

func TestAnonymousRequestsDoNotRetainUnboundedStores(t *testing.T) {
	log := logger.Discard()
	slot := storage.NewMemory()
	sessions := cart.NewSessions(func(id string) *cart.Store {
		return cart.NewStore(cart.NewSlotPersistence(slot, id), cart.WithLogger(log))
	}, cart.WithMaxSessions(10))
	env := newTestEnv(t, func(d *Deps) { d.Sessions = sessions })

	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.LessOrEqual(t, sessions.Len(), 10)
}

func TestAddItemTwice(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(t, http.MethodPost, "/api/cart/items", hatJSON)
	snap := decodeSnapshot(t, env.do(t, http.MethodPost, "/api/cart/items", hatJSON))

	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.Equal(t, 2, snap.TotalItems)
	assert.Equal(t, "79.98", snap.TotalPrice.StringFixed(2))
	assert.True(t, snap.IsOpen)

	other := decodeSnapshot(t, env.do(t, http.MethodGet, "/api/cart", ""))
	assert.Equal(t, snap, other)
}

func TestAddItemFallsBackToDefaultVariant(t *testing.T) {
	env := newTestEnv(t, nil)

	snap := decodeSnapshot(t, env.do(t, http.MethodPost, "/api/cart/items", `{"id":"poster","name":"Poster","price":"10"}`))

	require.Len(t, snap.Items, 1)
	assert.Equal(t, defaultVariant, snap.Items[0].RemoteVariantID)
}

func TestAddItemRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"invalid json":   `{"id":`,
		"missing id":     `{"name":"Hat","price":1}`,
		"negative price": `{"id":"hat-1","price":-1}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, nil)

			rec := env.do(t, http.MethodPost, "/api/cart/items", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "corr-1", decodeError(t, rec).CorrelationID)
			assert.Zero(t, env.sessions.Get("sess-1").Len())
		})
	}
}

func TestUpdateRemoveAndClear(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/cart/items", hatJSON)
	env.do(t, http.MethodPost, "/api/cart/items", `{"id":"tee-1","name":"Tee","price":20}`)

	snap := decodeSnapshot(t, env.do(t, http.MethodPatch, "/api/cart/items/hat-1", `{"quantity":4}`))
	assert.Equal(t, 5, snap.TotalItems)

	snap = decodeSnapshot(t, env.do(t, http.MethodPatch, "/api/cart/items/tee-1", `{"quantity":0}`))
	require.Len(t, snap.Items, 1)

	snap = decodeSnapshot(t, env.do(t, http.MethodDelete, "/api/cart/items/nope", ""))
	require.Len(t, snap.Items, 1)

	snap = decodeSnapshot(t, env.do(t, http.MethodDelete, "/api/cart/items/hat-1", ""))
	assert.Empty(t, snap.Items)

	env.do(t, http.MethodPost, "/api/cart/items", hatJSON)
	snap = decodeSnapshot(t, env.do(t, http.MethodDelete, "/api/cart", ""))
	assert.Empty(t, snap.Items)
	assert.True(t, snap.TotalPrice.IsZero())
}

func TestUpdateItemRequiresQuantity(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPatch, "/api/cart/items/hat-1", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenAndClose(t *testing.T) {
	env := newTestEnv(t, nil)

	assert.True(t, decodeSnapshot(t, env.do(t, http.MethodPost, "/api/cart/open", "")).IsOpen)
	assert.False(t, decodeSnapshot(t, env.do(t, http.MethodPost, "/api/cart/close", "")).IsOpen)
}

func TestGetAvailability(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/availability?variantId="+hatVariant+",gid://shopify/ProductVariant/7", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]*inventory.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	require.NotNil(t, body[hatVariant])
	assert.True(t, body[hatVariant].AvailableForSale)
	assert.Equal(t, 5, *body[hatVariant].QuantityAvailable)
	assert.Nil(t, body["gid://shopify/ProductVariant/7"])
	assert.Equal(t, []string{productHandle}, env.fetcher.handles)
}

func TestGetAvailabilityHandleOverride(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/availability?variantId="+hatVariant+"&handle=other", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"other"}, env.fetcher.handles)
}

func TestGetAvailabilityWithoutHandleQueriesVariants(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.ProductHandle = "" })

	rec := env.do(t, http.MethodGet, "/api/availability?variantId="+hatVariant, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.fetcher.handles)
	assert.Equal(t, []string{hatVariant}, env.fetcher.variants)
}

func TestGetAvailabilityMissingVariant(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/availability", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAvailabilityTimeout(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Availability = blockingAvailability{}
		d.AvailabilityTimeout = 10 * time.Millisecond
	})

	rec := env.do(t, http.MethodGet, "/api/availability?variantId="+hatVariant, "")

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, checkout.NoticeUnreachable, decodeError(t, rec).Error)
}

func TestCheckoutSuccess(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/cart/items", hatJSON)
	env.do(t, http.MethodPost, "/api/cart/items", hatJSON)

	rec := env.do(t, http.MethodPost, "/api/checkout", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res checkout.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "https://aspenova.myshopify.com/cart/c/1", res.CheckoutURL)
	assert.Equal(t, checkout.NoticeRedirect, res.Notice)
	assert.Equal(t, []checkout.Line{{MerchandiseID: hatVariant, Quantity: 2}}, env.submitter.lines)
	assert.Equal(t, []string{productHandle}, env.fetcher.handles)
	assert.Zero(t, env.sessions.Get("sess-1").Len())
}

func TestCheckoutBlockedByRefreshedAvailability(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/cart/items", hatJSON)
	env.do(t, http.MethodPatch, "/api/cart/items/hat-1", `{"quantity":6}`)

	rec := env.do(t, http.MethodPost, "/api/checkout", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Only 5 units of Hat are available.", decodeError(t, rec).Error)
	assert.Nil(t, env.submitter.lines)
	assert.Equal(t, 6, env.sessions.Get("sess-1").TotalItems())
}

func TestCheckoutRefreshFailureDoesNotBlock(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fetcher.err = errors.New("upstream down")
	env.do(t, http.MethodPost, "/api/cart/items", hatJSON)

	rec := env.do(t, http.MethodPost, "/api/checkout", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutErrorStatus(t *testing.T) {
	tests := map[string]struct {
		err    error
		status int
		notice string
	}{
		"empty cart":      {err: checkout.ErrEmptyCart, status: http.StatusBadRequest, notice: checkout.NoticeEmptyCart},
		"blocked":         {err: &checkout.BlockedError{Name: "Hat", Reason: checkout.NotForSale}, status: http.StatusConflict, notice: "Hat is not available yet. Remove it to continue."},
		"missing variant": {err: &checkout.MissingVariantError{Name: "Poster"}, status: http.StatusUnprocessableEntity, notice: `Missing Shopify variant mapping for "Poster".`},
		"validation":      {err: &checkout.ValidationError{Messages: []string{"Quantity is too high"}}, status: http.StatusUnprocessableEntity, notice: "Quantity is too high"},
		"config":          {err: &checkout.ConfigError{Message: "Missing Shopify store domain. Set SHOPIFY_STORE_DOMAIN."}, status: http.StatusServiceUnavailable, notice: "Missing Shopify store domain. Set SHOPIFY_STORE_DOMAIN."},
		"remote":          {err: &checkout.RemoteError{}, status: http.StatusBadGateway, notice: checkout.NoticeUnreachable},
		"unknown":         {err: errors.New("boom"), status: http.StatusInternalServerError, notice: "Unable to start checkout. Please try again."},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, func(d *Deps) { d.Checkout = stubCheckout{err: tt.err} })

			rec := env.do(t, http.MethodPost, "/api/checkout", "")

			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.notice, body.Error)
			assert.Equal(t, "corr-1", body.CorrelationID)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "https://aspenova.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, "https://aspenova.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
