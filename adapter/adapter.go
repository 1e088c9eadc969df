// Package adapter defines the capability surface a native store adapter
// implements, plus the connection lifecycle and event publishing shared by
// every implementation. Adapters are the only components permitted to talk
// to a native store.
package adapter

import (
	"context"

	"github.com/openiap/openiap-go/model"
	"github.com/openiap/openiap-go/request"
)

// Adapter is the fixed capability interface over one native store. There
// are two production variants (StoreKit, Play Billing) plus an in-memory
// variant for tests and unsupported platforms; the variant is selected by
// explicit construction at process setup.
type Adapter interface {
	Platform() model.Platform

	// InitConnection brings up the native store handle and the single
	// long-lived listener task. Idempotent: calling it while connected is
	// a success no-op and never double-registers the listener.
	InitConnection(ctx context.Context) error

	// EndConnection cancels the listener task. Native notifications
	// delivered afterwards are dropped, not queued.
	EndConnection(ctx context.Context) error

	// FetchProducts resolves the queried SKUs against the native catalog.
	FetchProducts(ctx context.Context, req *request.ProductRequest) ([]*model.Product, error)

	// RequestPurchase launches the native purchase flow. The outcome is
	// never returned here: the native purchase UI is modal and
	// store-driven, so results arrive on the purchase-updated stream and
	// failures on the purchase-error stream.
	RequestPurchase(ctx context.Context, req *request.Request) error

	// FinishTransaction acknowledges (or, for consumables, consumes) a
	// delivered transaction with the native store.
	FinishTransaction(ctx context.Context, purchase *model.Purchase, consumable bool) error

	// RestorePurchases returns the caller's owned purchases as the native
	// store reports them.
	RestorePurchases(ctx context.Context) ([]*model.Purchase, error)

	CanMakePayments(ctx context.Context) (bool, error)
}
