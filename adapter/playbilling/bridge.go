// Package playbilling implements Adapter over the Play Billing client,
// reached through a Bridge. Native payloads cross the bridge as the
// billing library's JSON representations; everything on this side is
// translation.
package playbilling

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openiap/openiap-go/request"
)

// PurchasesUpdate is one onPurchasesUpdated callback: a billing response
// code plus the purchases it covers (empty on failure).
type PurchasesUpdate struct {
	ResponseCode int
	Purchases    []json.RawMessage
}

// Bridge is the boundary to the native Play Billing client.
type Bridge interface {
	// QueryProductDetails resolves SKUs of one product class ("inapp" or
	// "subs") to product-details JSON representations.
	QueryProductDetails(ctx context.Context, skus []string, productType string) ([]json.RawMessage, error)

	// LaunchBillingFlow starts the native purchase UI. Launch failures
	// surface as *NativeError; the outcome itself arrives on
	// PurchasesUpdated.
	LaunchBillingFlow(ctx context.Context, payload request.GooglePurchase) error

	// PurchasesUpdated is the ordered native callback queue, including
	// purchases left unacknowledged by a previous session, which the
	// client redelivers when a listener attaches.
	PurchasesUpdated() <-chan PurchasesUpdate

	// Acknowledge marks a non-consumable purchase as acknowledged.
	Acknowledge(ctx context.Context, purchaseToken string) error

	// Consume consumes a consumable purchase, returning it to the
	// purchasable pool.
	Consume(ctx context.Context, purchaseToken string) error

	// QueryPurchases returns the purchases the client currently reports
	// as owned.
	QueryPurchases(ctx context.Context) ([]json.RawMessage, error)

	// IsReady reports whether the billing service can take purchases.
	IsReady(ctx context.Context) (bool, error)
}

// NativeError is a billing-level failure carrying the native response
// code integer.
type NativeError struct {
	Code int
	SKU  string
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("playbilling: response code %d (sku %s)", e.Code, e.SKU)
}
