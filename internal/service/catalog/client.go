package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

const (
	defaultClientTimeout = 5 * time.Second
	maxErrorBodyBytes    = 512
)

// Client — HTTP-клиент сервиса товаров и остатков:
//
//	GET {base}/stock/{id}    -> {"id": 1, "amount": 3}
//	GET {base}/products/{id} -> {"id": 1, "title": "...", "price": 179.9, "image": "..."}
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
}

// ClientOption настраивает Client.
type ClientOption func(*Client)

// WithHTTPClient подменяет http.Client (транспорт трассировки не добавляется).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout задаёт таймаут одного запроса.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithClientLogger задаёт logger.
func WithClientLogger(logger *log.Entry) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient создаёт клиента каталога с otelhttp-транспортом.
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   defaultClientTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: log.WithField("component", "catalog-client"),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// GetStock запрашивает остаток товара.
func (c *Client) GetStock(ctx context.Context, productID int) (domain.Stock, error) {
	var stock domain.Stock
	if err := c.get(ctx, "/stock/"+strconv.Itoa(productID), &stock); err != nil {
		return domain.Stock{}, err
	}
	if stock.ID == 0 {
		stock.ID = productID
	}
	return stock, nil
}

// GetProduct запрашивает карточку товара.
func (c *Client) GetProduct(ctx context.Context, productID int) (domain.Product, error) {
	var product domain.Product
	if err := c.get(ctx, "/products/"+strconv.Itoa(productID), &product); err != nil {
		return domain.Product{}, err
	}
	product.Amount = 0
	return product, nil
}

// Ping проверяет доступность каталога (для health check).
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/products", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: ping status %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request %s: %w", domain.ErrRemoteUnavailable, path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("catalog request failed")
		return fmt.Errorf("%w: GET %s: %w", domain.ErrRemoteUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.logger.WithFields(log.Fields{
			"path":   path,
			"status": resp.StatusCode,
			"body":   strings.TrimSpace(string(body)),
		}).Warn("catalog returned non-2xx")
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: GET %s: %w", domain.ErrRemoteUnavailable, path, ErrUnknownProduct)
		}
		return fmt.Errorf("%w: GET %s: status %d", domain.ErrRemoteUnavailable, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", domain.ErrRemoteUnavailable, path, err)
	}
	return nil
}

var _ domain.CatalogService = (*Client)(nil)
