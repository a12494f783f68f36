package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"github.com/prabhat76/lincee-cart/internal/domain"
	"github.com/prabhat76/lincee-cart/internal/port"
)

// Endpoint layout of the cart service:
//
//	GET    {base}/cart/user/{userId}/items
//	POST   {base}/cart/user/{userId}/items
//	PATCH  {base}/cart/items/{cartItemId}
//	DELETE {base}/cart/items/{cartItemId}
//	DELETE {base}/cart/user/{userId}

type httpGateway struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTP(baseURL string, timeout time.Duration, logger *zap.Logger) (port.CartGateway, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("url.Parse: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &httpGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type cartItemDTO struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	Quantity    int             `json:"quantity"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Currency    string          `json:"currency"`
	ProductName string          `json:"productName"`
	ImageURL    string          `json:"imageUrl"`
}

type createItemDTO struct {
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

type updateItemDTO struct {
	Quantity int `json:"quantity"`
}

func (g *httpGateway) ListItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID is empty")
	}

	var dtos []cartItemDTO
	endpoint := fmt.Sprintf("%s/cart/user/%s/items", g.baseURL, url.PathEscape(userID))
	if err := g.do(ctx, http.MethodGet, endpoint, nil, &dtos); err != nil {
		return nil, fmt.Errorf("do: %w", err)
	}

	items, err := mapItemDTOsToDomain(dtos)
	if err != nil {
		return nil, fmt.Errorf("mapItemDTOsToDomain: %w", err)
	}

	return items, nil
}

func (g *httpGateway) CreateItem(ctx context.Context, userID string, productID int64, quantity int, variant domain.Variant) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("userID is empty")
	}
	if quantity < 1 {
		return 0, fmt.Errorf("quantity[%d] is not positive", quantity)
	}

	body := createItemDTO{
		ProductID: productID,
		Quantity:  quantity,
		Size:      variant.Size,
		Color:     variant.Color,
	}

	var created cartItemDTO
	endpoint := fmt.Sprintf("%s/cart/user/%s/items", g.baseURL, url.PathEscape(userID))
	if err := g.do(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return 0, fmt.Errorf("do: %w", err)
	}

	if created.ID == 0 {
		return 0, fmt.Errorf("server returned no item id")
	}

	return created.ID, nil
}

func (g *httpGateway) UpdateItem(ctx context.Context, serverID int64, quantity int) error {
	if serverID == 0 {
		return fmt.Errorf("serverID is zero")
	}
	if quantity < 1 {
		return fmt.Errorf("quantity[%d] is not positive", quantity)
	}

	endpoint := fmt.Sprintf("%s/cart/items/%s", g.baseURL, strconv.FormatInt(serverID, 10))
	if err := g.do(ctx, http.MethodPatch, endpoint, updateItemDTO{Quantity: quantity}, nil); err != nil {
		return fmt.Errorf("do: %w", err)
	}

	return nil
}

func (g *httpGateway) DeleteItem(ctx context.Context, serverID int64) (bool, error) {
	if serverID == 0 {
		return false, fmt.Errorf("serverID is zero")
	}

	endpoint := fmt.Sprintf("%s/cart/items/%s", g.baseURL, strconv.FormatInt(serverID, 10))
	err := g.do(ctx, http.MethodDelete, endpoint, nil, nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("do: %w", err)
	}

	return true, nil
}

func (g *httpGateway) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("userID is empty")
	}

	endpoint := fmt.Sprintf("%s/cart/user/%s", g.baseURL, url.PathEscape(userID))
	if err := g.do(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("do: %w", err)
	}

	return nil
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func (g *httpGateway) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("client.Do: %w", err)
	}
	defer resp.Body.Close()

	g.logger.Debug("cart gateway call",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}

	return nil
}

func mapItemDTOToDomain(dto cartItemDTO) (domain.CartItem, error) {
	parsedCurrency, err := currency.ParseISO(dto.Currency)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("currency[%s] is not valid: %w", dto.Currency, err)
	}

	return domain.CartItem{
		ProductID: dto.ProductID,
		ServerID:  dto.ID,
		Quantity:  dto.Quantity,
		Variant:   domain.Variant{Size: dto.Size, Color: dto.Color},
		UnitPrice: domain.Money{
			Amount:   dto.UnitPrice,
			Currency: parsedCurrency,
		},
		DisplayName: dto.ProductName,
		ImageRef:    dto.ImageURL,
	}, nil
}

func mapItemDTOsToDomain(dtos []cartItemDTO) ([]domain.CartItem, error) {
	var items []domain.CartItem

	for _, dto := range dtos {
		item, err := mapItemDTOToDomain(dto)
		if err != nil {
			return nil, fmt.Errorf("mapItemDTOToDomain: %w", err)
		}

		items = append(items, item)
	}

	return items, nil
}
