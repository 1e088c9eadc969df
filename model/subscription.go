package model

import "time"

// expireSoonWindow is how far before expiration a subscription starts
// reporting WillExpireSoon.
const expireSoonWindow = 7 * 24 * time.Hour

// ActiveSubscription is a derived, read-only view over a Purchase plus the
// store-reported renewal metadata. It is computed on demand and never
// stored.
type ActiveSubscription struct {
	ProductID           string
	TransactionID       string
	IsActive            bool
	AutoRenewing        bool
	ExpirationDate      *time.Time
	WillExpireSoon      bool
	DaysUntilExpiration int
	Platform            Platform
}

// SubscriptionStatus derives the renewal view of a subscription purchase at
// the given instant. Purchases with no expiration reported (Google purchases
// without server-side expiry, lifetime entitlements) are considered active
// with an unknown horizon.
func SubscriptionStatus(p *Purchase, now time.Time) ActiveSubscription {
	sub := ActiveSubscription{
		ProductID:           p.ProductID,
		TransactionID:       p.TransactionID,
		IsActive:            p.State == PurchaseStatePurchased,
		DaysUntilExpiration: -1,
		Platform:            p.Platform,
	}

	if p.Google != nil {
		sub.AutoRenewing = p.Google.AutoRenewing
	}
	if p.Apple == nil || p.Apple.ExpirationDate == nil {
		return sub
	}

	expiry := *p.Apple.ExpirationDate
	sub.ExpirationDate = &expiry
	if p.Apple.RevocationDate != nil || !expiry.After(now) {
		sub.IsActive = false
		sub.DaysUntilExpiration = 0
		return sub
	}

	remaining := expiry.Sub(now)
	sub.WillExpireSoon = remaining <= expireSoonWindow
	sub.DaysUntilExpiration = int(remaining / (24 * time.Hour))
	return sub
}
