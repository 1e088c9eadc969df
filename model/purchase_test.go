package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPurchase_Clone(t *testing.T) {
	expiry := time.Now().Add(30 * 24 * time.Hour)
	reason := 1
	original := &Purchase{
		ProductID:       "premium_monthly",
		TransactionID:   "2000000123",
		Token:           "signed-transaction-blob",
		TransactionDate: time.Now(),
		State:           PurchaseStatePurchased,
		Quantity:        1,
		Platform:        PlatformApple,
		Apple: &ApplePurchaseDetails{
			OriginalTransactionID: "2000000001",
			Environment:           "Production",
			ExpirationDate:        &expiry,
			RevocationReason:      &reason,
		},
	}

	clone := original.Clone()
	require.Equal(t, original, clone)

	*clone.Apple.ExpirationDate = clone.Apple.ExpirationDate.Add(time.Hour)
	clone.Apple.OriginalTransactionID = "tampered"
	require.Equal(t, "2000000001", original.Apple.OriginalTransactionID)
	require.Equal(t, expiry, *original.Apple.ExpirationDate)
}

func TestPurchase_ReceiptID(t *testing.T) {
	a := &Purchase{Token: "token-a"}
	b := &Purchase{Token: "token-b"}

	require.NotEmpty(t, a.ReceiptID())
	require.Equal(t, a.ReceiptID(), a.ReceiptID())
	require.NotEqual(t, a.ReceiptID(), b.ReceiptID())
	require.NotContains(t, a.ReceiptID(), "token-a")
}

func TestSubscriptionStatus(t *testing.T) {
	now := time.Now()

	t.Run("ActiveWithExpiry", func(t *testing.T) {
		expiry := now.Add(30 * 24 * time.Hour)
		p := &Purchase{
			ProductID: "premium_monthly",
			State:     PurchaseStatePurchased,
			Platform:  PlatformApple,
			Apple:     &ApplePurchaseDetails{ExpirationDate: &expiry},
		}

		sub := SubscriptionStatus(p, now)
		require.True(t, sub.IsActive)
		require.False(t, sub.WillExpireSoon)
		require.Equal(t, 30, sub.DaysUntilExpiration)
	})

	t.Run("ExpiringSoon", func(t *testing.T) {
		expiry := now.Add(3 * 24 * time.Hour)
		p := &Purchase{
			State:    PurchaseStatePurchased,
			Platform: PlatformApple,
			Apple:    &ApplePurchaseDetails{ExpirationDate: &expiry},
		}

		sub := SubscriptionStatus(p, now)
		require.True(t, sub.IsActive)
		require.True(t, sub.WillExpireSoon)
		require.Equal(t, 3, sub.DaysUntilExpiration)
	})

	t.Run("Expired", func(t *testing.T) {
		expiry := now.Add(-time.Hour)
		p := &Purchase{
			State:    PurchaseStatePurchased,
			Platform: PlatformApple,
			Apple:    &ApplePurchaseDetails{ExpirationDate: &expiry},
		}

		sub := SubscriptionStatus(p, now)
		require.False(t, sub.IsActive)
		require.Equal(t, 0, sub.DaysUntilExpiration)
	})

	t.Run("Revoked", func(t *testing.T) {
		expiry := now.Add(30 * 24 * time.Hour)
		revoked := now.Add(-time.Hour)
		p := &Purchase{
			State:    PurchaseStatePurchased,
			Platform: PlatformApple,
			Apple: &ApplePurchaseDetails{
				ExpirationDate: &expiry,
				RevocationDate: &revoked,
			},
		}

		require.False(t, SubscriptionStatus(p, now).IsActive)
	})

	t.Run("NoExpiryReported", func(t *testing.T) {
		p := &Purchase{
			State:    PurchaseStatePurchased,
			Platform: PlatformGoogle,
			Google:   &GooglePurchaseDetails{AutoRenewing: true},
		}

		sub := SubscriptionStatus(p, now)
		require.True(t, sub.IsActive)
		require.True(t, sub.AutoRenewing)
		require.Nil(t, sub.ExpirationDate)
		require.Equal(t, -1, sub.DaysUntilExpiration)
	})
}
