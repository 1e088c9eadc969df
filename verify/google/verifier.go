package google

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/api/androidpublisher/v3"
	"google.golang.org/api/option"

	"github.com/openiap/openiap-go/model"
	"github.com/openiap/openiap-go/verify"
)

// GoogleVerifier judges Play purchase tokens through the Play Developer
// API.
type GoogleVerifier struct {
	// serviceAccountJSON is the contents of a service account key file
	// with access to the Play Developer API.
	serviceAccountJSON []byte

	// packageName is the Android app's package name.
	packageName string
}

func NewGoogleVerifier(serviceAccountJSON []byte, packageName string) verify.Verifier {
	return &GoogleVerifier{
		serviceAccountJSON: serviceAccountJSON,
		packageName:        packageName,
	}
}

func (v *GoogleVerifier) VerifyPurchase(ctx context.Context, purchase *model.Purchase) (verify.Entitlement, error) {
	svc, err := androidpublisher.NewService(ctx, option.WithCredentialsJSON(v.serviceAccountJSON))
	if err != nil {
		return verify.EntitlementInauthentic, errors.Wrap(err, "creating android publisher client")
	}

	if purchase.Google != nil && purchase.Google.AutoRenewing {
		return v.verifySubscription(ctx, svc, purchase)
	}
	return v.verifyProduct(ctx, svc, purchase)
}

func (v *GoogleVerifier) verifyProduct(ctx context.Context, svc *androidpublisher.Service, purchase *model.Purchase) (verify.Entitlement, error) {
	call := svc.Purchases.Products.Get(v.packageName, purchase.ProductID, purchase.Token)
	product, err := call.Context(ctx).Do()
	if err != nil {
		// A token the API does not recognize (404) is not ours.
		return verify.EntitlementInauthentic, nil
	}

	// PurchaseState: 0 purchased, 1 canceled, 2 pending.
	switch product.PurchaseState {
	case 0:
		return verify.EntitlementEntitled, nil
	case 1:
		return verify.EntitlementCanceled, nil
	default:
		return verify.EntitlementExpired, nil
	}
}

func (v *GoogleVerifier) verifySubscription(ctx context.Context, svc *androidpublisher.Service, purchase *model.Purchase) (verify.Entitlement, error) {
	call := svc.Purchases.Subscriptions.Get(v.packageName, purchase.ProductID, purchase.Token)
	sub, err := call.Context(ctx).Do()
	if err != nil {
		return verify.EntitlementInauthentic, nil
	}

	if sub.ExpiryTimeMillis > 0 && time.UnixMilli(sub.ExpiryTimeMillis).Before(time.Now()) {
		return verify.EntitlementExpired, nil
	}
	if sub.UserCancellationTimeMillis > 0 {
		return verify.EntitlementCanceled, nil
	}
	return verify.EntitlementEntitled, nil
}
