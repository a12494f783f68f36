package gateway_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prabhat76/lincee-cart/internal/domain"
	"github.com/prabhat76/lincee-cart/internal/gateway"
	"github.com/prabhat76/lincee-cart/internal/port"
)

func newGateway(t *testing.T, handler http.Handler) port.CartGateway {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw, err := gateway.NewHTTP(server.URL, 5*time.Second, zap.NewNop())
	require.NoError(t, err)

	return gw
}

func TestNewHTTP(t *testing.T) {
	_, err := gateway.NewHTTP("", time.Second, nil)
	require.EqualError(t, err, "baseURL is empty")
}

func TestListItems(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cart/user/42/items", r.URL.Path)

		_, _ = w.Write([]byte(`[
			{"id":55,"productId":10,"quantity":2,"size":"M","unitPrice":19.99,"currency":"EUR","productName":"Linen Shirt","imageUrl":"img/10.jpg"},
			{"id":56,"productId":7,"quantity":1,"unitPrice":5.50,"currency":"EUR","productName":"Socks"}
		]`))
	}))

	items, err := gw.ListItems(t.Context(), "42")
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, int64(55), first.ServerID)
	assert.Equal(t, int64(10), first.ProductID)
	assert.Equal(t, 2, first.Quantity)
	assert.Equal(t, domain.Variant{Size: "M"}, first.Variant)
	assert.True(t, first.UnitPrice.Amount.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, "EUR", first.UnitPrice.Currency.String())
	assert.Equal(t, "Linen Shirt", first.DisplayName)
	assert.Equal(t, "img/10.jpg", first.ImageRef)
}

func TestListItemsErrors(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		handler   http.HandlerFunc
		wantError string
	}{
		{
			name:      "empty user ID",
			userID:    "",
			wantError: "userID is empty",
		},
		{
			name:   "server error",
			userID: "42",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantError: "unexpected status 500",
		},
		{
			name:   "invalid currency",
			userID: "42",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"id":1,"productId":1,"quantity":1,"unitPrice":1,"currency":"no"}]`))
			},
			wantError: "currency[no] is not valid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := tt.handler
			if handler == nil {
				handler = func(w http.ResponseWriter, r *http.Request) {}
			}
			gw := newGateway(t, handler)

			_, err := gw.ListItems(t.Context(), tt.userID)
			require.ErrorContains(t, err, tt.wantError)
		})
	}
}

func TestCreateItem(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cart/user/42/items", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 10, body["productId"])
		assert.EqualValues(t, 2, body["quantity"])
		assert.Equal(t, "M", body["size"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":55,"productId":10,"quantity":2}`))
	}))

	serverID, err := gw.CreateItem(t.Context(), "42", 10, 2, domain.Variant{Size: "M"})
	require.NoError(t, err)
	assert.Equal(t, int64(55), serverID)
}

func TestCreateItemErrors(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	_, err := gw.CreateItem(t.Context(), "", 10, 1, domain.Variant{})
	require.EqualError(t, err, "userID is empty")

	_, err = gw.CreateItem(t.Context(), "42", 10, 0, domain.Variant{})
	require.EqualError(t, err, "quantity[0] is not positive")

	// Response without an item id is unusable for reconciliation.
	_, err = gw.CreateItem(t.Context(), "42", 10, 1, domain.Variant{})
	require.ErrorContains(t, err, "no item id")
}

func TestUpdateItem(t *testing.T) {
	var gotQuantity int
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/cart/items/55", r.URL.Path)

		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotQuantity = body["quantity"]
	}))

	require.NoError(t, gw.UpdateItem(t.Context(), 55, 3))
	assert.Equal(t, 3, gotQuantity)

	require.EqualError(t, gw.UpdateItem(t.Context(), 0, 3), "serverID is zero")
	require.EqualError(t, gw.UpdateItem(t.Context(), 55, 0), "quantity[0] is not positive")
}

func TestDeleteItem(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantDeleted bool
		wantError   string
	}{
		{name: "deleted", status: http.StatusNoContent, wantDeleted: true},
		{name: "already gone", status: http.StatusNotFound, wantDeleted: false},
		{name: "server error", status: http.StatusInternalServerError, wantError: "unexpected status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/cart/items/55", r.URL.Path)
				w.WriteHeader(tt.status)
			}))

			deleted, err := gw.DeleteItem(t.Context(), 55)
			if tt.wantError != "" {
				require.ErrorContains(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDeleted, deleted)
		})
	}
}

func TestClear(t *testing.T) {
	var gotPath string
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, gw.Clear(t.Context(), "42"))
	assert.Equal(t, "/cart/user/42", gotPath)

	require.EqualError(t, gw.Clear(t.Context(), ""), "userID is empty")
}
