// Package storekit implements Adapter over the StoreKit 2 runtime,
// reached through a Bridge. Native payloads cross the bridge as the
// StoreKit JSON representations; everything on this side is translation.
package storekit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openiap/openiap-go/request"
)

// Bridge is the boundary to the native StoreKit 2 runtime. Implementations
// own the actual store handle; this package never reimplements StoreKit.
type Bridge interface {
	// QueryProducts resolves SKUs to StoreKit product JSON representations.
	QueryProducts(ctx context.Context, skus []string) ([]json.RawMessage, error)

	// Purchase runs the native purchase flow for one SKU. It returns when
	// the flow concludes; failures (including user cancellation) surface
	// as *NativeError. A successful purchase is not returned here: the
	// store delivers it on the Transactions channel.
	Purchase(ctx context.Context, payload request.ApplePurchase) error

	// Transactions is the ordered native transaction stream. The store
	// redelivers unfinished transactions from previous sessions when a
	// listener attaches.
	Transactions() <-chan json.RawMessage

	// PromotedProducts carries store-initiated purchase prompts.
	PromotedProducts() <-chan json.RawMessage

	// Finish marks a delivered transaction as finished with the store.
	Finish(ctx context.Context, transactionID string) error

	// CurrentEntitlements returns the transactions the store currently
	// considers owned.
	CurrentEntitlements(ctx context.Context) ([]json.RawMessage, error)

	CanMakePayments(ctx context.Context) (bool, error)
}

// NativeError is a StoreKit-level failure. Code is the native error
// identifier, which on this platform is the canonical member name itself.
type NativeError struct {
	Code string
	SKU  string
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("storekit: %s (sku %s)", e.Code, e.SKU)
}
