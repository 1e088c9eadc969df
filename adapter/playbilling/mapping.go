package playbilling

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/openiap/openiap-go/model"
)

const micros = 1_000_000

// productDetailsPayload is the billing library's product-details JSON as
// the bridge delivers it.
type productDetailsPayload struct {
	ProductID   string `json:"productId"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`

	OneTimePurchaseOfferDetails *struct {
		FormattedPrice    string `json:"formattedPrice"`
		PriceAmountMicros int64  `json:"priceAmountMicros"`
		PriceCurrencyCode string `json:"priceCurrencyCode"`
		OriginalPrice     string `json:"originalPrice"`
	} `json:"oneTimePurchaseOfferDetails"`

	SubscriptionOfferDetails []struct {
		BasePlanID    string `json:"basePlanId"`
		OfferID       string `json:"offerId"`
		OfferToken    string `json:"offerToken"`
		PricingPhases struct {
			PricingPhaseList []struct {
				FormattedPrice    string `json:"formattedPrice"`
				PriceAmountMicros int64  `json:"priceAmountMicros"`
				PriceCurrencyCode string `json:"priceCurrencyCode"`
				BillingPeriod     string `json:"billingPeriod"`
				BillingCycleCount int    `json:"billingCycleCount"`
				RecurrenceMode    int    `json:"recurrenceMode"`
			} `json:"pricingPhaseList"`
		} `json:"pricingPhases"`
	} `json:"subscriptionOfferDetails"`
}

// purchasePayload is the billing library's purchase JSON plus the data
// signature the bridge attaches.
type purchasePayload struct {
	OrderID             string `json:"orderId"`
	PackageName         string `json:"packageName"`
	ProductID           string `json:"productId"`
	PurchaseTimeMs      int64  `json:"purchaseTime"`
	PurchaseState       int    `json:"purchaseState"`
	PurchaseToken       string `json:"purchaseToken"`
	Quantity            int    `json:"quantity"`
	Acknowledged        bool   `json:"acknowledged"`
	AutoRenewing        bool   `json:"autoRenewing"`
	ObfuscatedAccountID string `json:"obfuscatedAccountId"`
	DataSignature       string `json:"dataSignature"`
}

func priceFromMicros(m int64) decimal.Decimal {
	return decimal.NewFromInt(m).Div(decimal.NewFromInt(micros))
}

// mapProductDetails translates one native product-details payload into the
// canonical record. Pure; price comes from the one-time offer or, for
// subscriptions, the first pricing phase of the first offer.
func mapProductDetails(raw json.RawMessage) (*model.Product, error) {
	var payload productDetailsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding billing product details payload")
	}

	productType := model.ProductTypeInApp
	if payload.Type == "subs" {
		productType = model.ProductTypeSubscription
	}

	product := &model.Product{
		ID:          payload.ProductID,
		Title:       payload.Title,
		Description: payload.Description,
		Type:        productType,
		Platform:    model.PlatformGoogle,
		Google:      &model.GoogleProductDetails{},
	}

	if o := payload.OneTimePurchaseOfferDetails; o != nil {
		product.DisplayPrice = o.FormattedPrice
		product.Price = priceFromMicros(o.PriceAmountMicros)
		product.Currency = o.PriceCurrencyCode
		product.Google.PriceAmountMicros = o.PriceAmountMicros
		product.Google.OriginalPrice = o.OriginalPrice
	}

	for _, offer := range payload.SubscriptionOfferDetails {
		mapped := model.GoogleSubscriptionOffer{
			BasePlanID: offer.BasePlanID,
			OfferID:    offer.OfferID,
			OfferToken: offer.OfferToken,
		}
		for _, phase := range offer.PricingPhases.PricingPhaseList {
			mapped.PricingPhases = append(mapped.PricingPhases, model.GooglePricingPhase{
				FormattedPrice:    phase.FormattedPrice,
				PriceAmountMicros: phase.PriceAmountMicros,
				CurrencyCode:      phase.PriceCurrencyCode,
				BillingPeriod:     phase.BillingPeriod,
				BillingCycleCount: phase.BillingCycleCount,
				RecurrenceMode:    phase.RecurrenceMode,
			})
		}
		product.Google.SubscriptionOffers = append(product.Google.SubscriptionOffers, mapped)

		if product.DisplayPrice == "" && len(mapped.PricingPhases) > 0 {
			phase := mapped.PricingPhases[0]
			product.DisplayPrice = phase.FormattedPrice
			product.Price = priceFromMicros(phase.PriceAmountMicros)
			product.Currency = phase.CurrencyCode
			product.Google.PriceAmountMicros = phase.PriceAmountMicros
		}
	}

	return product, nil
}

// Billing library purchase states.
const (
	nativeStateUnspecified = 0
	nativeStatePurchased   = 1
	nativeStatePending     = 2
)

// mapPurchase translates one native purchase payload into the canonical
// record.
func mapPurchase(raw json.RawMessage) (*model.Purchase, error) {
	var payload purchasePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding billing purchase payload")
	}

	state := model.PurchaseStateUnspecified
	switch payload.PurchaseState {
	case nativeStatePurchased:
		state = model.PurchaseStatePurchased
	case nativeStatePending:
		state = model.PurchaseStatePending
	}

	quantity := payload.Quantity
	if quantity < 1 {
		quantity = 1
	}

	return &model.Purchase{
		ProductID:       payload.ProductID,
		TransactionID:   payload.OrderID,
		Token:           payload.PurchaseToken,
		TransactionDate: time.UnixMilli(payload.PurchaseTimeMs),
		State:           state,
		Quantity:        quantity,
		Platform:        model.PlatformGoogle,
		Google: &model.GooglePurchaseDetails{
			OrderID:             payload.OrderID,
			PackageName:         payload.PackageName,
			IsAcknowledged:      payload.Acknowledged,
			AutoRenewing:        payload.AutoRenewing,
			ObfuscatedAccountID: payload.ObfuscatedAccountID,
			DataSignature:       payload.DataSignature,
		},
	}, nil
}
