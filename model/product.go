package model

import (
	"github.com/shopspring/decimal"
)

type ProductType uint8

const (
	ProductTypeUnknown ProductType = iota
	ProductTypeInApp
	ProductTypeSubscription
)

func (t ProductType) String() string {
	switch t {
	case ProductTypeInApp:
		return "in-app"
	case ProductTypeSubscription:
		return "subscription"
	default:
		return "unknown"
	}
}

// Product is a purchasable offering as reported by a store. It is created
// transiently on every product fetch and owned by the caller that receives
// it; this layer never persists products.
type Product struct {
	ID           string
	Title        string
	Description  string
	DisplayPrice string
	Price        decimal.Decimal
	Currency     string
	Type         ProductType
	Platform     Platform

	// At most one of these is set, matching Platform. Fields the native
	// store did not report stay nil.
	Apple  *AppleProductDetails
	Google *GoogleProductDetails
}

// AppleProductDetails carries StoreKit-only product attributes.
type AppleProductDetails struct {
	IsFamilyShareable   bool
	SubscriptionGroupID string
	SubscriptionPeriod  *SubscriptionPeriod
	IntroductoryOffer   *AppleSubscriptionOffer

	// JSONRepresentation is the raw StoreKit 2 product payload, retained
	// for the external verification provider.
	JSONRepresentation []byte
}

type SubscriptionPeriod struct {
	Unit  PeriodUnit
	Value int
}

type PeriodUnit uint8

const (
	PeriodUnitUnknown PeriodUnit = iota
	PeriodUnitDay
	PeriodUnitWeek
	PeriodUnitMonth
	PeriodUnitYear
)

func (u PeriodUnit) String() string {
	switch u {
	case PeriodUnitDay:
		return "day"
	case PeriodUnitWeek:
		return "week"
	case PeriodUnitMonth:
		return "month"
	case PeriodUnitYear:
		return "year"
	default:
		return "unknown"
	}
}

type AppleSubscriptionOffer struct {
	ID           string
	DisplayPrice string
	Price        decimal.Decimal
	PaymentMode  string
	Period       SubscriptionPeriod
	PeriodCount  int
}

// GoogleProductDetails carries Play-Billing-only product attributes.
type GoogleProductDetails struct {
	PriceAmountMicros  int64
	OriginalPrice      string
	SubscriptionOffers []GoogleSubscriptionOffer
}

type GoogleSubscriptionOffer struct {
	OfferID       string
	BasePlanID    string
	OfferToken    string
	PricingPhases []GooglePricingPhase
}

type GooglePricingPhase struct {
	FormattedPrice   string
	PriceAmountMicros int64
	CurrencyCode     string
	BillingPeriod    string
	BillingCycleCount int
	RecurrenceMode   int
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}

	clone := *p
	if p.Apple != nil {
		apple := *p.Apple
		if p.Apple.SubscriptionPeriod != nil {
			period := *p.Apple.SubscriptionPeriod
			apple.SubscriptionPeriod = &period
		}
		if p.Apple.IntroductoryOffer != nil {
			offer := *p.Apple.IntroductoryOffer
			apple.IntroductoryOffer = &offer
		}
		if p.Apple.JSONRepresentation != nil {
			apple.JSONRepresentation = append([]byte(nil), p.Apple.JSONRepresentation...)
		}
		clone.Apple = &apple
	}
	if p.Google != nil {
		google := *p.Google
		google.SubscriptionOffers = make([]GoogleSubscriptionOffer, len(p.Google.SubscriptionOffers))
		for i, offer := range p.Google.SubscriptionOffers {
			offer.PricingPhases = append([]GooglePricingPhase(nil), offer.PricingPhases...)
			google.SubscriptionOffers[i] = offer
		}
		clone.Google = &google
	}
	return &clone
}
