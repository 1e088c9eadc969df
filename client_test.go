package openiap

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openiap/openiap-go/adapter"
	"github.com/openiap/openiap-go/adapter/memory"
	"github.com/openiap/openiap-go/errcode"
	"github.com/openiap/openiap-go/model"
	"github.com/openiap/openiap-go/request"
	memverify "github.com/openiap/openiap-go/verify/memory"
)

func setupClient(t *testing.T) (*Client, *memory.Adapter) {
	log := zap.Must(zap.NewDevelopment())
	pub := adapter.NewPublisher()
	sim := memory.New(model.PlatformApple, log, pub)

	pubKey, _, err := memverify.GenerateKeyPair()
	require.NoError(t, err)

	client := New(log, sim, pub, memverify.NewMemoryVerifier(pubKey))
	t.Cleanup(func() {
		require.NoError(t, client.EndConnection(context.Background()))
	})
	return client, sim
}

func TestClient_GetStore(t *testing.T) {
	client, _ := setupClient(t)
	require.Equal(t, "app-store", client.GetStore())
}

func TestClient_PurchaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, sim := setupClient(t)

	sim.RegisterProduct(&model.Product{
		ID:           "coin_100",
		Title:        "100 Coins",
		DisplayPrice: "$0.99",
		Price:        decimal.RequireFromString("0.99"),
		Currency:     "USD",
		Type:         model.ProductTypeInApp,
		Platform:     model.PlatformApple,
	})

	require.NoError(t, client.InitConnection(ctx))

	ok, err := client.CanMakePayments(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	products, err := client.FetchProducts(ctx, []string{"coin_100"}, request.QueryInApp)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "coin_100", products[0].ID)

	updates := client.PurchaseUpdates()
	defer client.ClosePurchaseUpdates(updates.ID())

	req, err := request.New(request.QueryInApp).
		Apple(request.ApplePurchase{SKU: "coin_100"}).
		Build()
	require.NoError(t, err)
	require.NoError(t, client.RequestPurchase(ctx, req))

	var purchase *model.Purchase
	select {
	case purchase = <-updates.Channel():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for purchase update")
	}
	require.Equal(t, "coin_100", purchase.ProductID)
	require.Equal(t, model.PurchaseStatePurchased, purchase.State)

	owned, err := client.GetAvailablePurchases(ctx)
	require.NoError(t, err)
	require.Len(t, owned, 1)

	require.NoError(t, client.FinishTransaction(ctx, purchase, true))

	owned, err = client.GetAvailablePurchases(ctx)
	require.NoError(t, err)
	require.Empty(t, owned)
}

func TestClient_PurchaseErrorsStream(t *testing.T) {
	ctx := context.Background()
	client, sim := setupClient(t)

	sim.RegisterProduct(&model.Product{
		ID:       "coin_100",
		Type:     model.ProductTypeInApp,
		Platform: model.PlatformApple,
	})
	require.NoError(t, client.InitConnection(ctx))

	errs := client.PurchaseErrors()
	defer client.ClosePurchaseErrors(errs.ID())

	sim.CancelNextPurchase()

	req, err := request.New(request.QueryInApp).
		Apple(request.ApplePurchase{SKU: "coin_100"}).
		Build()
	require.NoError(t, err)
	require.NoError(t, client.RequestPurchase(ctx, req))

	select {
	case e := <-errs.Channel():
		require.Equal(t, errcode.UserCancelled, e.Code)
		require.Equal(t, "coin_100", e.ProductID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for purchase error")
	}
}

func TestClient_GetActiveSubscriptions(t *testing.T) {
	ctx := context.Background()
	client, sim := setupClient(t)
	require.NoError(t, client.InitConnection(ctx))

	expiry := time.Now().Add(30*24*time.Hour + time.Hour)
	sim.SeedUnfinished(&model.Purchase{
		ProductID:     "premium_monthly",
		TransactionID: "txn-1",
		Token:         "memory:premium_monthly:seed",
		State:         model.PurchaseStatePurchased,
		Quantity:      1,
		Platform:      model.PlatformApple,
		Apple: &model.ApplePurchaseDetails{
			OriginalTransactionID: "txn-1",
			ExpirationDate:        &expiry,
		},
	})
	sim.SeedUnfinished(&model.Purchase{
		ProductID:     "coin_100",
		TransactionID: "txn-2",
		Token:         "memory:coin_100:seed",
		State:         model.PurchaseStatePurchased,
		Quantity:      1,
		Platform:      model.PlatformApple,
	})

	subs, err := client.GetActiveSubscriptions(ctx, []string{"premium_monthly"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "premium_monthly", subs[0].ProductID)
	require.True(t, subs[0].IsActive)
	require.False(t, subs[0].WillExpireSoon)
	require.Equal(t, 30, subs[0].DaysUntilExpiration)

	// Empty filter means every owned purchase is considered.
	subs, err = client.GetActiveSubscriptions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, subs, 2)
}

func TestClient_VerifyPurchase(t *testing.T) {
	ctx := context.Background()

	log := zap.Must(zap.NewDevelopment())
	pub := adapter.NewPublisher()
	sim := memory.New(model.PlatformApple, log, pub)

	pubKey, privKey, err := memverify.GenerateKeyPair()
	require.NoError(t, err)

	client := New(log, sim, pub, memverify.NewMemoryVerifier(pubKey))

	entitlement, err := client.VerifyPurchase(ctx, &model.Purchase{
		Token: memverify.SignToken(privKey, "entitled"),
	})
	require.NoError(t, err)
	require.Equal(t, "entitled", entitlement.String())

	entitlement, err = client.VerifyPurchase(ctx, &model.Purchase{
		Token: "forged|entitled",
	})
	require.NoError(t, err)
	require.Equal(t, "inauthentic", entitlement.String())

	bare := New(log, sim, pub, nil)
	_, err = bare.VerifyPurchase(ctx, &model.Purchase{Token: "anything"})
	require.ErrorIs(t, err, ErrNoVerifier)
}

func TestClient_PromotedProducts(t *testing.T) {
	ctx := context.Background()
	client, sim := setupClient(t)

	sim.RegisterProduct(&model.Product{
		ID:       "promo_pack",
		Type:     model.ProductTypeInApp,
		Platform: model.PlatformApple,
	})
	require.NoError(t, client.InitConnection(ctx))

	_, ok := client.PromotedProduct()
	require.False(t, ok)

	sim.PromoteProduct("promo_pack")

	select {
	case p := <-client.PromotedProducts():
		require.Equal(t, "promo_pack", p.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for promoted product")
	}

	current, ok := client.PromotedProduct()
	require.True(t, ok)
	require.Equal(t, "promo_pack", current.ID)
}
