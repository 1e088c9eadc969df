package storekit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openiap/openiap-go/model"
)

func TestMapProduct(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "premium_monthly",
		"displayName": "Premium Monthly",
		"description": "Monthly premium access",
		"displayPrice": "$4.99",
		"price": "4.99",
		"currencyCode": "USD",
		"type": "autoRenewable",
		"isFamilyShareable": true,
		"subscriptionGroupIdentifier": "21341234",
		"subscription": {
			"subscriptionPeriod": {"unit": "month", "value": 1},
			"introductoryOffer": {
				"id": "intro_week",
				"displayPrice": "$0.00",
				"price": "0",
				"paymentMode": "freeTrial",
				"periodCount": 1,
				"subscriptionPeriod": {"unit": "week", "value": 1}
			}
		}
	}`)

	p, err := mapProduct(raw)
	require.NoError(t, err)

	require.Equal(t, "premium_monthly", p.ID)
	require.Equal(t, "Premium Monthly", p.Title)
	require.Equal(t, "$4.99", p.DisplayPrice)
	require.Equal(t, "4.99", p.Price.String())
	require.Equal(t, "USD", p.Currency)
	require.Equal(t, model.ProductTypeSubscription, p.Type)
	require.Equal(t, model.PlatformApple, p.Platform)

	require.NotNil(t, p.Apple)
	require.Nil(t, p.Google)
	require.True(t, p.Apple.IsFamilyShareable)
	require.Equal(t, "21341234", p.Apple.SubscriptionGroupID)
	require.Equal(t, model.PeriodUnitMonth, p.Apple.SubscriptionPeriod.Unit)
	require.Equal(t, 1, p.Apple.SubscriptionPeriod.Value)
	require.Equal(t, "intro_week", p.Apple.IntroductoryOffer.ID)
	require.Equal(t, "freeTrial", p.Apple.IntroductoryOffer.PaymentMode)
	require.JSONEq(t, string(raw), string(p.Apple.JSONRepresentation))
}

func TestMapProduct_InApp(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "coin_100",
		"displayName": "100 Coins",
		"displayPrice": "$0.99",
		"price": "0.99",
		"currencyCode": "USD",
		"type": "consumable"
	}`)

	p, err := mapProduct(raw)
	require.NoError(t, err)
	require.Equal(t, model.ProductTypeInApp, p.Type)
	require.Nil(t, p.Apple.SubscriptionPeriod)
	require.Nil(t, p.Apple.IntroductoryOffer)
}

func TestMapProduct_BadPayload(t *testing.T) {
	_, err := mapProduct(json.RawMessage(`{"id": "x", "price": "not-a-number"}`))
	require.Error(t, err)

	_, err = mapProduct(json.RawMessage(`not json`))
	require.Error(t, err)
}

func TestMapTransaction(t *testing.T) {
	raw := json.RawMessage(`{
		"transactionId": "2000000123456789",
		"originalTransactionId": "2000000100000000",
		"productId": "premium_monthly",
		"purchaseDate": 1735689600000,
		"expiresDate": 1738368000000,
		"environment": "Production",
		"appAccountToken": "b6a1b2d0-0000-4000-8000-000000000000",
		"inAppOwnershipType": "PURCHASED",
		"quantity": 1,
		"signedTransaction": "eyJhbGciOi..."
	}`)

	p, err := mapTransaction(raw)
	require.NoError(t, err)

	require.Equal(t, "premium_monthly", p.ProductID)
	require.Equal(t, "2000000123456789", p.TransactionID)
	require.Equal(t, "eyJhbGciOi...", p.Token)
	require.Equal(t, model.PurchaseStatePurchased, p.State)
	require.Equal(t, model.PlatformApple, p.Platform)
	require.Equal(t, int64(1735689600000), p.TransactionDate.UnixMilli())

	require.NotNil(t, p.Apple)
	require.Nil(t, p.Google)
	require.Equal(t, "2000000100000000", p.Apple.OriginalTransactionID)
	require.Equal(t, "Production", p.Apple.Environment)
	require.NotNil(t, p.Apple.ExpirationDate)
	require.Equal(t, int64(1738368000000), p.Apple.ExpirationDate.UnixMilli())

	// Fields the native payload omitted stay nil, not zero placeholders.
	require.Nil(t, p.Apple.RevocationDate)
	require.Nil(t, p.Apple.RevocationReason)
}

func TestMapTransaction_VersionGatedFieldsAbsent(t *testing.T) {
	// A payload from a runtime predating expiration/revocation reporting.
	raw := json.RawMessage(`{
		"transactionId": "2000000123456789",
		"productId": "coin_100",
		"purchaseDate": 1735689600000,
		"signedTransaction": "blob"
	}`)

	p, err := mapTransaction(raw)
	require.NoError(t, err)
	require.Nil(t, p.Apple.ExpirationDate)
	require.Nil(t, p.Apple.RevocationDate)
	require.Nil(t, p.Apple.RevocationReason)
	require.Empty(t, p.Apple.AppAccountToken)
	require.Equal(t, 1, p.Quantity, "quantity defaults rather than zeroing")
}

func TestMapTransaction_Revoked(t *testing.T) {
	raw := json.RawMessage(`{
		"transactionId": "2000000123456789",
		"productId": "coin_100",
		"purchaseDate": 1735689600000,
		"revocationDate": 1735776000000,
		"revocationReason": 0,
		"signedTransaction": "blob"
	}`)

	p, err := mapTransaction(raw)
	require.NoError(t, err)
	require.Equal(t, model.PurchaseStateUnspecified, p.State)
	require.NotNil(t, p.Apple.RevocationDate)
	require.NotNil(t, p.Apple.RevocationReason)
	require.Equal(t, 0, *p.Apple.RevocationReason)
}
