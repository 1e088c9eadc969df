// Package verify defines the external verification provider boundary. The
// core hands the opaque purchase token to a provider and receives back an
// entitlement judgment; it never parses or trusts the token itself.
package verify

import (
	"context"

	"github.com/openiap/openiap-go/model"
)

// Entitlement is the provider's judgment of whether a purchase currently
// grants access.
type Entitlement uint8

const (
	EntitlementInauthentic Entitlement = iota
	EntitlementEntitled
	EntitlementExpired
	EntitlementCanceled
)

func (e Entitlement) String() string {
	switch e {
	case EntitlementEntitled:
		return "entitled"
	case EntitlementExpired:
		return "expired"
	case EntitlementCanceled:
		return "canceled"
	default:
		return "inauthentic"
	}
}

type Verifier interface {

	// VerifyPurchase judges the purchase's proof-of-purchase token.
	// An unverifiable or forged token is EntitlementInauthentic, not an
	// error; errors are reserved for provider-level failures.
	VerifyPurchase(ctx context.Context, purchase *model.Purchase) (Entitlement, error)
}
