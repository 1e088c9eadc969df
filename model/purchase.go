package model

import (
	"crypto/sha256"
	"time"

	"github.com/mr-tron/base58"
)

type PurchaseState uint8

const (
	PurchaseStateUnspecified PurchaseState = iota
	PurchaseStatePurchased
	PurchaseStatePending
)

func (s PurchaseState) String() string {
	switch s {
	case PurchaseStatePurchased:
		return "purchased"
	case PurchaseStatePending:
		return "pending"
	default:
		return "unspecified"
	}
}

// Purchase is one completed, pending, or historical transaction. It is
// immutable once constructed: finalization (acknowledge/consume/finish) is a
// separate side-effecting operation keyed by TransactionID and Token, never
// a mutation of the record.
type Purchase struct {
	ProductID     string
	TransactionID string

	// Token is the opaque proof-of-purchase blob: a signed StoreKit 2
	// transaction representation on Apple, a purchase token on Google.
	// This layer never parses it.
	Token string

	TransactionDate time.Time
	State           PurchaseState
	Quantity        int
	Platform        Platform

	// At most one of these is set, matching Platform.
	Apple  *ApplePurchaseDetails
	Google *GooglePurchaseDetails
}

// ApplePurchaseDetails carries StoreKit-only transaction attributes.
// Version-gated fields native runtimes predating the capability never
// report stay nil.
type ApplePurchaseDetails struct {
	OriginalTransactionID string
	Environment           string
	OwnershipType         string
	AppAccountToken       string
	ExpirationDate        *time.Time
	RevocationDate        *time.Time
	RevocationReason      *int
}

// GooglePurchaseDetails carries Play-Billing-only transaction attributes.
type GooglePurchaseDetails struct {
	OrderID             string
	PackageName         string
	IsAcknowledged      bool
	AutoRenewing        bool
	ObfuscatedAccountID string
	DataSignature       string
}

func (p *Purchase) Clone() *Purchase {
	if p == nil {
		return nil
	}

	clone := *p
	if p.Apple != nil {
		apple := *p.Apple
		if p.Apple.ExpirationDate != nil {
			t := *p.Apple.ExpirationDate
			apple.ExpirationDate = &t
		}
		if p.Apple.RevocationDate != nil {
			t := *p.Apple.RevocationDate
			apple.RevocationDate = &t
		}
		if p.Apple.RevocationReason != nil {
			r := *p.Apple.RevocationReason
			apple.RevocationReason = &r
		}
		clone.Apple = &apple
	}
	if p.Google != nil {
		google := *p.Google
		clone.Google = &google
	}
	return &clone
}

// ReceiptID returns a stable, log-safe fingerprint of the purchase token.
// The raw token is both large and sensitive, so it never appears in logs or
// map keys directly.
func (p *Purchase) ReceiptID() string {
	sum := sha256.Sum256([]byte(p.Token))
	return base58.Encode(sum[:])
}
