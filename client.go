// Package openiap is the single entry point applications hold: one
// vendor-neutral purchase surface over whichever native store adapter is
// active, plus the three listener streams (purchase-updated,
// purchase-error, promoted-product).
package openiap

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/openiap/openiap-go/adapter"
	"github.com/openiap/openiap-go/errcode"
	"github.com/openiap/openiap-go/event"
	"github.com/openiap/openiap-go/model"
	"github.com/openiap/openiap-go/request"
	"github.com/openiap/openiap-go/verify"
)

var ErrNoVerifier = errors.New("no verification provider configured")

type Client struct {
	log      *zap.Logger
	adapter  adapter.Adapter
	pub      *adapter.Publisher
	verifier verify.Verifier
}

// New builds a client over the given adapter. The publisher must be the
// one the adapter publishes through. verifier may be nil when entitlement
// verification is delegated elsewhere.
func New(log *zap.Logger, a adapter.Adapter, pub *adapter.Publisher, verifier verify.Verifier) *Client {
	return &Client{
		log:      log,
		adapter:  a,
		pub:      pub,
		verifier: verifier,
	}
}

func (c *Client) InitConnection(ctx context.Context) error {
	return c.adapter.InitConnection(ctx)
}

func (c *Client) EndConnection(ctx context.Context) error {
	return c.adapter.EndConnection(ctx)
}

// GetStore returns the user-facing identifier of the active store.
func (c *Client) GetStore() string {
	return c.adapter.Platform().StoreName()
}

func (c *Client) CanMakePayments(ctx context.Context) (bool, error) {
	return c.adapter.CanMakePayments(ctx)
}

// FetchProducts resolves the SKUs against the native catalog. Validation
// happens here, before any native call.
func (c *Client) FetchProducts(ctx context.Context, skus []string, query request.QueryType) ([]*model.Product, error) {
	req, err := request.Products(skus, query)
	if err != nil {
		return nil, err
	}
	return c.adapter.FetchProducts(ctx, req)
}

// RequestPurchase launches the native purchase flow for an
// already-validated request. The outcome arrives on the streams.
func (c *Client) RequestPurchase(ctx context.Context, req *request.Request) error {
	return c.adapter.RequestPurchase(ctx, req)
}

func (c *Client) FinishTransaction(ctx context.Context, purchase *model.Purchase, consumable bool) error {
	return c.adapter.FinishTransaction(ctx, purchase, consumable)
}

// GetAvailablePurchases returns the owned purchases as the native store
// reports them.
func (c *Client) GetAvailablePurchases(ctx context.Context) ([]*model.Purchase, error) {
	return c.adapter.RestorePurchases(ctx)
}

// GetActiveSubscriptions derives the renewal view of owned subscription
// purchases. With subscriptionIDs empty every owned purchase is
// considered; otherwise only the listed product IDs.
func (c *Client) GetActiveSubscriptions(ctx context.Context, subscriptionIDs []string) ([]model.ActiveSubscription, error) {
	purchases, err := c.adapter.RestorePurchases(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(subscriptionIDs))
	for _, id := range subscriptionIDs {
		wanted[id] = true
	}

	now := time.Now()
	subs := make([]model.ActiveSubscription, 0, len(purchases))
	for _, p := range purchases {
		if len(wanted) > 0 && !wanted[p.ProductID] {
			continue
		}
		subs = append(subs, model.SubscriptionStatus(p, now))
	}
	return subs, nil
}

// VerifyPurchase hands the opaque purchase token to the external
// verification provider.
func (c *Client) VerifyPurchase(ctx context.Context, purchase *model.Purchase) (verify.Entitlement, error) {
	if c.verifier == nil {
		return verify.EntitlementInauthentic, ErrNoVerifier
	}
	return c.verifier.VerifyPurchase(ctx, purchase)
}

// PurchaseUpdates subscribes to the ordered purchase-updated stream.
// Detach with ClosePurchaseUpdates.
func (c *Client) PurchaseUpdates() *event.BufferedStream[*model.Purchase] {
	return c.pub.SubscribePurchases()
}

func (c *Client) ClosePurchaseUpdates(id string) {
	c.pub.UnsubscribePurchases(id)
}

// PurchaseErrors subscribes to the purchase-error stream.
func (c *Client) PurchaseErrors() *event.BufferedStream[*errcode.PurchaseError] {
	return c.pub.SubscribeErrors()
}

func (c *Client) ClosePurchaseErrors(id string) {
	c.pub.UnsubscribeErrors(id)
}

// PromotedProduct returns the current store-initiated purchase prompt, if
// any.
func (c *Client) PromotedProduct() (*model.Product, bool) {
	return c.pub.Promoted()
}

// PromotedProducts signals each new store-initiated prompt; a newer prompt
// overwrites an undelivered one.
func (c *Client) PromotedProducts() <-chan *model.Product {
	return c.pub.PromotedChannel()
}
