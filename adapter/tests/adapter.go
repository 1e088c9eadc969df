// Package tests holds the adapter conformance suite, run against any
// implementation that can simulate native store behavior.
package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/openiap/openiap-go/adapter"
	"github.com/openiap/openiap-go/errcode"
	"github.com/openiap/openiap-go/event"
	"github.com/openiap/openiap-go/model"
	"github.com/openiap/openiap-go/request"
)

// Simulator is an Adapter whose native side can be scripted.
type Simulator interface {
	adapter.Adapter

	RegisterProduct(*model.Product)
	SeedUnfinished(*model.Purchase)
	CancelNextPurchase()
	FailNextPurchase(errcode.Code)
	DeferNextPurchase()
}

const eventWait = 2 * time.Second

// RunAdapterTests runs the conformance suite. The publisher must be the
// one the adapter publishes through; teardown restores pristine state
// between test functions.
func RunAdapterTests(t *testing.T, sim Simulator, pub *adapter.Publisher, teardown func()) {
	for _, tf := range []func(t *testing.T, sim Simulator, pub *adapter.Publisher){
		testConnectionLifecycle,
		testFetchProducts,
		testPurchaseHappyPath,
		testPurchaseCancelled,
		testPurchaseFailures,
		testUnfinishedRedelivery,
		testNoEventsAfterEndConnection,
		testFinishTransaction,
		testConcurrentFetches,
	} {
		tf(t, sim, pub)
		teardown()
	}
}

func coinProduct(platform model.Platform) *model.Product {
	p := &model.Product{
		ID:           "coin_100",
		Title:        "100 Coins",
		Description:  "A pile of 100 coins",
		DisplayPrice: "$0.99",
		Price:        decimal.RequireFromString("0.99"),
		Currency:     "USD",
		Type:         model.ProductTypeInApp,
		Platform:     platform,
	}
	switch platform {
	case model.PlatformApple:
		p.Apple = &model.AppleProductDetails{}
	case model.PlatformGoogle:
		p.Google = &model.GoogleProductDetails{PriceAmountMicros: 990000}
	}
	return p
}

func subscriptionProduct(platform model.Platform) *model.Product {
	p := &model.Product{
		ID:           "premium_monthly",
		Title:        "Premium Monthly",
		DisplayPrice: "$4.99",
		Price:        decimal.RequireFromString("4.99"),
		Currency:     "USD",
		Type:         model.ProductTypeSubscription,
		Platform:     platform,
	}
	switch platform {
	case model.PlatformApple:
		p.Apple = &model.AppleProductDetails{
			SubscriptionPeriod: &model.SubscriptionPeriod{Unit: model.PeriodUnitMonth, Value: 1},
		}
	case model.PlatformGoogle:
		p.Google = &model.GoogleProductDetails{
			SubscriptionOffers: []model.GoogleSubscriptionOffer{{
				BasePlanID: "monthly",
				OfferToken: "token-monthly",
			}},
		}
	}
	return p
}

func purchaseReq(t *testing.T, sim Simulator, sku string, query request.QueryType) *request.Request {
	t.Helper()

	b := request.New(query)
	if sim.Platform() == model.PlatformGoogle {
		b.Google(request.GooglePurchase{SKUs: []string{sku}})
	} else {
		b.Apple(request.ApplePurchase{SKU: sku})
	}
	req, err := b.Build()
	require.NoError(t, err)
	return req
}

func waitPurchase(t *testing.T, s *event.BufferedStream[*model.Purchase]) *model.Purchase {
	t.Helper()

	select {
	case p := <-s.Channel():
		return p
	case <-time.After(eventWait):
		t.Fatal("timed out waiting for purchase event")
		return nil
	}
}

func waitError(t *testing.T, s *event.BufferedStream[*errcode.PurchaseError]) *errcode.PurchaseError {
	t.Helper()

	select {
	case e := <-s.Channel():
		return e
	case <-time.After(eventWait):
		t.Fatal("timed out waiting for error event")
		return nil
	}
}

func requireNoPurchase(t *testing.T, s *event.BufferedStream[*model.Purchase]) {
	t.Helper()

	select {
	case p := <-s.Channel():
		t.Fatalf("unexpected purchase event for %s", p.ProductID)
	case <-time.After(100 * time.Millisecond):
	}
}

func testConnectionLifecycle(t *testing.T, sim Simulator, pub *adapter.Publisher) {
	t.Run("ConnectionLifecycle", func(t *testing.T) {
		ctx := context.Background()

		// Operations before init fail with NotPrepared.
		_, err := sim.RestorePurchases(ctx)
		var pe *errcode.PurchaseError
		require.True(t, errors.As(err, &pe))
		require.Equal(t, errcode.NotPrepared, pe.Code)

		// Double init is a success no-op.
		require.NoError(t, sim.InitConnection(ctx))
		require.NoError(t, sim.InitConnection(ctx))

		sim.RegisterProduct(coinProduct(sim.Platform()))
		purchases := pub.SubscribePurchases()
		defer pub.UnsubscribePurchases(purchases.ID())

		require.NoError(t, sim.RequestPurchase(ctx, purchaseReq(t, sim, "coin_100", request.QueryInApp)))
		waitPurchase(t, purchases)
		// A second listener would deliver the event twice.
		requireNoPurchase(t, purchases)

		require.NoError(t, sim.EndConnection(ctx))
		require.NoError(t, sim.EndConnection(ctx))
	})
}

func testFetchProducts(t *testing.T, sim Simulator, pub *adapter.Publisher) {
	t.Run("FetchProducts", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, sim.InitConnection(ctx))

		sim.RegisterProduct(coinProduct(sim.Platform()))
		sim.RegisterProduct(subscriptionProduct(sim.Platform()))

		req, err := request.Products([]string{"coin_100"}, request.QueryInApp)
		require.NoError(t, err)

		products, err := sim.FetchProducts(ctx, req)
		require.NoError(t, err)
		require.Len(t, products, 1)
		require.Equal(t, "coin_100", products[0].ID)
		require.Equal(t, model.ProductTypeInApp, products[0].Type)

		// A subscription query does not surface in-app products.
		req, err = request.Products([]string{"coin_100", "premium_monthly"}, request.QuerySubscription)
		require.NoError(t, err)
		products, err = sim.FetchProducts(ctx, req)
		require.NoError(t, err)
		require.Len(t, products, 1)
		require.Equal(t, "premium_monthly", products[0].ID)

		// Unregistered SKUs are simply absent, not an error.
		req, err = request.Products([]string{"nope"}, request.QueryAll)
		require.NoError(t, err)
		products, err = sim.FetchProducts(ctx, req)
		require.NoError(t, err)
		require.Empty(t, products)
	})
}

func testPurchaseHappyPath(t *testing.T, sim Simulator, pub *adapter.Publisher) {
	t.Run("PurchaseHappyPath", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, sim.InitConnection(ctx))
		sim.RegisterProduct(coinProduct(sim.Platform()))

		purchases := pub.SubscribePurchases()
		defer pub.UnsubscribePurchases(purchases.ID())

		require.NoError(t, sim.RequestPurchase(ctx, purchaseReq(t, sim, "coin_100", request.QueryInApp)))

		p := waitPurchase(t, purchases)
		require.Equal(t, "coin_100", p.ProductID)
		require.Equal(t, model.PurchaseStatePurchased, p.State)
		require.Equal(t, sim.Platform(), p.Platform)
		require.NotEmpty(t, p.TransactionID)
		require.NotEmpty(t, p.Token)

		// Exactly one platform extension, matching the tag.
		switch p.Platform {
		case model.PlatformApple:
			require.NotNil(t, p.Apple)
			require.Nil(t, p.Google)
			// Version-gated fields the native side never reported stay nil.
			require.Nil(t, p.Apple.ExpirationDate)
			require.Nil(t, p.Apple.RevocationDate)
		case model.PlatformGoogle:
			require.NotNil(t, p.Google)
			require.Nil(t, p.Apple)
		}

		restored, err := sim.RestorePurchases(ctx)
		require.NoError(t, err)
		require.Len(t, restored, 1)
	})
}

func testPurchaseCancelled(t *testing.T, sim Simulator, pub *adapter.Publisher) {
	t.Run("PurchaseCancelled", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, sim.InitConnection(ctx))
		sim.RegisterProduct(coinProduct(sim.Platform()))

		purchases := pub.SubscribePurchases()
		defer pub.UnsubscribePurchases(purchases.ID())
		errs := pub.SubscribeErrors()
		defer pub.UnsubscribeErrors(errs.ID())

		sim.CancelNextPurchase()
		require.NoError(t, sim.RequestPurchase(ctx, purchaseReq(t, sim, "coin_100", request.QueryInApp)))

		e := waitError(t, errs)
		require.Equal(t, errcode.UserCancelled, e.Code)
		require.Equal(t, "coin_100", e.ProductID)
		require.Equal(t, sim.Platform(), e.Platform)
		requireNoPurchase(t, purchases)
	})
}

func testPurchaseFailures(t *testing.T, sim Simulator, pub *adapter.Publisher) {
	t.Run("PurchaseFailures", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, sim.InitConnection(ctx))
		sim.RegisterProduct(coinProduct(sim.Platform()))

		errs := pub.SubscribeErrors()
		defer pub.UnsubscribeErrors(errs.ID())
		purchases := pub.SubscribePurchases()
		defer pub.UnsubscribePurchases(purchases.ID())

		// Unknown SKU surfaces asynchronously, not as a sync error.
		require.NoError(t, sim.RequestPurchase(ctx, purchaseReq(t, sim, "missing_sku", request.QueryInApp)))
		require.Equal(t, errcode.SkuNotFound, waitError(t, errs).Code)

		sim.FailNextPurchase(errcode.NetworkError)
		require.NoError(t, sim.RequestPurchase(ctx, purchaseReq(t, sim, "coin_100", request.QueryInApp)))
		require.Equal(t, errcode.NetworkError, waitError(t, errs).Code)

		sim.DeferNextPurchase()
		require.NoError(t, sim.RequestPurchase(ctx, purchaseReq(t, sim, "coin_100", request.QueryInApp)))
		require.Equal(t, model.PurchaseStatePending, waitPurchase(t, purchases).State)
	})
}

func testUnfinishedRedelivery(t *testing.T, sim Simulator, pub *adapter.Publisher) {
	t.Run("UnfinishedRedelivery", func(t *testing.T) {
		ctx := context.Background()

		leftover := &model.Purchase{
			ProductID:       "coin_100",
			TransactionID:   "txn-previous-session",
			Token:           "token-previous-session",
			TransactionDate: time.Now().Add(-time.Hour),
			State:           model.PurchaseStatePurchased,
			Quantity:        1,
			Platform:        sim.Platform(),
		}
		sim.SeedUnfinished(leftover)

		purchases := pub.SubscribePurchases()
		defer pub.UnsubscribePurchases(purchases.ID())

		require.NoError(t, sim.InitConnection(ctx))

		p := waitPurchase(t, purchases)
		require.Equal(t, "txn-previous-session", p.TransactionID)
	})
}

func testNoEventsAfterEndConnection(t *testing.T, sim Simulator, pub *adapter.Publisher) {
	t.Run("NoEventsAfterEndConnection", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, sim.InitConnection(ctx))
		sim.RegisterProduct(coinProduct(sim.Platform()))

		purchases := pub.SubscribePurchases()
		defer pub.UnsubscribePurchases(purchases.ID())

		require.NoError(t, sim.EndConnection(ctx))

		// A native notification arriving after disconnect is not
		// published: the listener is gone and nothing buffers on its
		// behalf.
		sim.SeedUnfinished(&model.Purchase{
			ProductID:     "coin_100",
			TransactionID: "txn-late",
			Token:         "token-late",
			State:         model.PurchaseStatePurchased,
			Platform:      sim.Platform(),
		})
		requireNoPurchase(t, purchases)
	})
}

func testFinishTransaction(t *testing.T, sim Simulator, pub *adapter.Publisher) {
	t.Run("FinishTransaction", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, sim.InitConnection(ctx))
		sim.RegisterProduct(coinProduct(sim.Platform()))

		purchases := pub.SubscribePurchases()
		defer pub.UnsubscribePurchases(purchases.ID())

		require.NoError(t, sim.RequestPurchase(ctx, purchaseReq(t, sim, "coin_100", request.QueryInApp)))
		p := waitPurchase(t, purchases)

		require.NoError(t, sim.FinishTransaction(ctx, p, false))

		// Finishing twice reports the transaction as already finished.
		err := sim.FinishTransaction(ctx, p, false)
		var pe *errcode.PurchaseError
		require.True(t, errors.As(err, &pe))
		require.Equal(t, errcode.ReceiptFinished, pe.Code)

		// Consuming removes the purchase from the owned set.
		require.NoError(t, sim.RequestPurchase(ctx, purchaseReq(t, sim, "coin_100", request.QueryInApp)))
		p = waitPurchase(t, purchases)
		require.NoError(t, sim.FinishTransaction(ctx, p, true))

		restored, err := sim.RestorePurchases(ctx)
		require.NoError(t, err)
		for _, r := range restored {
			require.NotEqual(t, p.TransactionID, r.TransactionID)
		}
	})
}

func testConcurrentFetches(t *testing.T, sim Simulator, pub *adapter.Publisher) {
	t.Run("ConcurrentFetches", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, sim.InitConnection(ctx))
		sim.RegisterProduct(coinProduct(sim.Platform()))
		sim.RegisterProduct(subscriptionProduct(sim.Platform()))

		inApp, err := request.Products([]string{"coin_100"}, request.QueryInApp)
		require.NoError(t, err)
		subs, err := request.Products([]string{"premium_monthly"}, request.QuerySubscription)
		require.NoError(t, err)

		type result struct {
			products []*model.Product
			err      error
		}
		results := make(chan result, 2)
		go func() {
			products, err := sim.FetchProducts(ctx, inApp)
			results <- result{products, err}
		}()
		go func() {
			products, err := sim.FetchProducts(ctx, subs)
			results <- result{products, err}
		}()

		seen := map[string]bool{}
		for i := 0; i < 2; i++ {
			r := <-results
			require.NoError(t, r.err)
			require.Len(t, r.products, 1)
			seen[r.products[0].ID] = true
		}
		require.True(t, seen["coin_100"])
		require.True(t, seen["premium_monthly"])
	})
}
