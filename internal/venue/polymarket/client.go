package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"hftmm/pkg/fixedpoint"
	"hftmm/pkg/types"
)

// restOrder is the wire payload for POST /orders. Price/size travel as
// decimal strings; the CLOB API rejects floats with more precision than
// its tick size.
type restOrder struct {
	TokenID string `json:"tokenID"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Side    string `json:"side"`
	OrderID string `json:"clientOrderId"`
}

type restOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderID"`
	Status  string `json:"status"`
}

type restCancelResponse struct {
	Canceled []string `json:"canceled"`
}

type restBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type restBookResponse struct {
	Bids []restBookLevel `json:"bids"`
	Asks []restBookLevel `json:"asks"`
}

// Client is the Polymarket CLOB REST client: rate-limited via
// golang.org/x/time/rate (the ambient REST-shaping concern; the core
// risk gate keeps its own CAS-based counter for the synchronous
// pre-trade path), retried on 5xx via resty, and authenticated with L2
// HMAC headers on every mutating call.
type Client struct {
	http   *resty.Client
	auth   *Auth
	dryRun bool

	orderLimiter  *rate.Limiter
	cancelLimiter *rate.Limiter
	bookLimiter   *rate.Limiter
}

// NewClient constructs a REST client against baseURL.
func NewClient(baseURL string, auth *Auth, dryRun bool) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:          http,
		auth:          auth,
		dryRun:        dryRun,
		orderLimiter:  rate.NewLimiter(rate.Limit(50), 350),
		cancelLimiter: rate.NewLimiter(rate.Limit(30), 300),
		bookLimiter:   rate.NewLimiter(rate.Limit(15), 150),
	}
}

// GetOrderBook fetches the L2 book for a symbol (Polymarket token ID).
func (c *Client) GetOrderBook(ctx context.Context, symbol types.Symbol) ([]types.PriceLevel, []types.PriceLevel, error) {
	if err := c.bookLimiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	var result restBookResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token_id", symbol.String()).
		SetResult(&result).
		Get("/book")
	if err != nil {
		return nil, nil, fmt.Errorf("get book: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, nil, fmt.Errorf("get book: status %d: %s", resp.StatusCode(), resp.String())
	}

	bids := make([]types.PriceLevel, 0, len(result.Bids))
	for _, l := range result.Bids {
		p, err := fixedpoint.FromDecimalString(l.Price)
		if err != nil {
			continue
		}
		q, err := fixedpoint.QtyFromDecimalString(l.Size)
		if err != nil {
			continue
		}
		bids = append(bids, types.PriceLevel{Price: p, Qty: q})
	}
	asks := make([]types.PriceLevel, 0, len(result.Asks))
	for _, l := range result.Asks {
		p, err := fixedpoint.FromDecimalString(l.Price)
		if err != nil {
			continue
		}
		q, err := fixedpoint.QtyFromDecimalString(l.Size)
		if err != nil {
			continue
		}
		asks = append(asks, types.PriceLevel{Price: p, Qty: q})
	}
	return bids, asks, nil
}

// PostOrder places a single order and returns the venue-assigned OrderId
// (0 on failure), matching the venue.Adapter.SendOrder contract.
func (c *Client) PostOrder(ctx context.Context, order types.Order) types.OrderId {
	if c.dryRun {
		return order.Id
	}
	if err := c.orderLimiter.Wait(ctx); err != nil {
		return 0
	}

	payload := restOrder{
		TokenID: order.Symbol.String(),
		Price:   fixedpoint.ToDecimalString(order.Price),
		Size:    fixedpoint.QtyToDecimalString(order.Qty),
		Side:    order.Side.String(),
		OrderID: fmt.Sprintf("%d", order.Id),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0
	}
	headers, err := c.auth.L2Headers("POST", "/orders", string(body))
	if err != nil {
		return 0
	}

	var result restOrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(payload).
		SetResult(&result).
		Post("/orders")
	if err != nil || resp.StatusCode() != http.StatusOK || !result.Success {
		return 0
	}
	return hashOrderID(result.OrderID)
}

// CancelOrder cancels a single order by venue id.
func (c *Client) CancelOrder(ctx context.Context, venueOrderID string) bool {
	if c.dryRun {
		return true
	}
	if err := c.cancelLimiter.Wait(ctx); err != nil {
		return false
	}

	body, _ := json.Marshal(struct {
		OrderIDs []string `json:"orderIDs"`
	}{OrderIDs: []string{venueOrderID}})
	headers, err := c.auth.L2Headers("DELETE", "/orders", string(body))
	if err != nil {
		return false
	}

	var result restCancelResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(json.RawMessage(body)).
		SetResult(&result).
		Delete("/orders")
	return err == nil && resp.StatusCode() == http.StatusOK && len(result.Canceled) > 0
}

// CancelAllForSymbol cancels every resting order for one symbol.
func (c *Client) CancelAllForSymbol(ctx context.Context, symbol types.Symbol) {
	if c.dryRun {
		return
	}
	if err := c.cancelLimiter.Wait(ctx); err != nil {
		return
	}
	body := fmt.Sprintf(`{"market":%q}`, symbol.String())
	headers, err := c.auth.L2Headers("DELETE", "/cancel-market-orders", body)
	if err != nil {
		return
	}
	c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(json.RawMessage(body)).
		Delete("/cancel-market-orders")
}

// hashOrderID maps a venue order id string onto a types.OrderId. FNV-1a
// keeps this dependency-free and deterministic for a given venue id.
func hashOrderID(s string) types.OrderId {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	if h == 0 {
		h = 1
	}
	return types.OrderId(h)
}
