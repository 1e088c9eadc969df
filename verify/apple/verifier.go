package apple

import (
	"context"
	"time"

	"github.com/devsisters/go-applereceipt"
	"github.com/devsisters/go-applereceipt/applepki"

	"github.com/openiap/openiap-go/model"
	"github.com/openiap/openiap-go/verify"
)

// AppleVerifier judges App Store receipts against Apple's certificate
// chain. The token is expected in the base64 PKCS#7 receipt encoding.
type AppleVerifier struct {
	// bundleID is the app's bundle identifier, e.g. "com.example.app".
	bundleID string
}

func NewAppleVerifier(bundleID string) verify.Verifier {
	return &AppleVerifier{bundleID: bundleID}
}

func (v *AppleVerifier) VerifyPurchase(ctx context.Context, purchase *model.Purchase) (verify.Entitlement, error) {
	receipt, err := applereceipt.DecodeBase64(purchase.Token, applepki.CertPool())
	if err != nil {
		// A token that doesn't decode against Apple's chain is a forged
		// or foreign receipt, not a provider failure.
		return verify.EntitlementInauthentic, nil
	}

	if receipt.BundleIdentifier != v.bundleID {
		return verify.EntitlementInauthentic, nil
	}

	for _, inApp := range receipt.InAppPurchaseReceipts {
		if inApp.ProductIdentifier != purchase.ProductID {
			continue
		}
		if !inApp.CancellationDate.IsZero() {
			return verify.EntitlementCanceled, nil
		}
		if !inApp.SubscriptionExpirationDate.IsZero() &&
			inApp.SubscriptionExpirationDate.Before(time.Now()) {
			return verify.EntitlementExpired, nil
		}
		return verify.EntitlementEntitled, nil
	}

	// The receipt is genuine but does not cover this product.
	return verify.EntitlementInauthentic, nil
}
