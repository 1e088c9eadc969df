package storekit

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/openiap/openiap-go/model"
)

// productPayload is the StoreKit 2 product JSON representation as the
// bridge delivers it.
type productPayload struct {
	ID                  string  `json:"id"`
	DisplayName         string  `json:"displayName"`
	Description         string  `json:"description"`
	DisplayPrice        string  `json:"displayPrice"`
	Price               string  `json:"price"`
	CurrencyCode        string  `json:"currencyCode"`
	Type                string  `json:"type"`
	IsFamilyShareable   bool    `json:"isFamilyShareable"`
	SubscriptionGroupID string  `json:"subscriptionGroupIdentifier"`
	Subscription        *struct {
		Period *struct {
			Unit  string `json:"unit"`
			Value int    `json:"value"`
		} `json:"subscriptionPeriod"`
		IntroductoryOffer *struct {
			ID           string `json:"id"`
			DisplayPrice string `json:"displayPrice"`
			Price        string `json:"price"`
			PaymentMode  string `json:"paymentMode"`
			PeriodCount  int    `json:"periodCount"`
			Period       struct {
				Unit  string `json:"unit"`
				Value int    `json:"value"`
			} `json:"subscriptionPeriod"`
		} `json:"introductoryOffer"`
	} `json:"subscription"`
}

// transactionPayload is the StoreKit 2 transaction JSON representation
// plus the signed transaction blob the bridge attaches.
type transactionPayload struct {
	TransactionID         string `json:"transactionId"`
	OriginalTransactionID string `json:"originalTransactionId"`
	ProductID             string `json:"productId"`
	PurchaseDateMs        int64  `json:"purchaseDate"`
	ExpiresDateMs         *int64 `json:"expiresDate"`
	RevocationDateMs      *int64 `json:"revocationDate"`
	RevocationReason      *int   `json:"revocationReason"`
	Environment           string `json:"environment"`
	AppAccountToken       string `json:"appAccountToken"`
	OwnershipType         string `json:"inAppOwnershipType"`
	Quantity              int    `json:"quantity"`
	SignedTransaction     string `json:"signedTransaction"`
}

func periodUnit(unit string) model.PeriodUnit {
	switch unit {
	case "day":
		return model.PeriodUnitDay
	case "week":
		return model.PeriodUnitWeek
	case "month":
		return model.PeriodUnitMonth
	case "year":
		return model.PeriodUnitYear
	default:
		return model.PeriodUnitUnknown
	}
}

// mapProduct translates one native product payload into the canonical
// record. Pure: cross-platform fields fill the canonical attributes,
// StoreKit-only fields fill the Apple extension, absent optionals stay nil.
func mapProduct(raw json.RawMessage) (*model.Product, error) {
	var payload productPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding storekit product payload")
	}

	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding price for product %s", payload.ID)
	}

	productType := model.ProductTypeInApp
	if payload.Type == "autoRenewable" || payload.Type == "nonRenewable" {
		productType = model.ProductTypeSubscription
	}

	apple := &model.AppleProductDetails{
		IsFamilyShareable:   payload.IsFamilyShareable,
		SubscriptionGroupID: payload.SubscriptionGroupID,
		JSONRepresentation:  append([]byte(nil), raw...),
	}
	if payload.Subscription != nil {
		if p := payload.Subscription.Period; p != nil {
			apple.SubscriptionPeriod = &model.SubscriptionPeriod{
				Unit:  periodUnit(p.Unit),
				Value: p.Value,
			}
		}
		if o := payload.Subscription.IntroductoryOffer; o != nil {
			offerPrice, err := decimal.NewFromString(o.Price)
			if err != nil {
				return nil, errors.Wrapf(err, "decoding offer price for product %s", payload.ID)
			}
			apple.IntroductoryOffer = &model.AppleSubscriptionOffer{
				ID:           o.ID,
				DisplayPrice: o.DisplayPrice,
				Price:        offerPrice,
				PaymentMode:  o.PaymentMode,
				PeriodCount:  o.PeriodCount,
				Period: model.SubscriptionPeriod{
					Unit:  periodUnit(o.Period.Unit),
					Value: o.Period.Value,
				},
			}
		}
	}

	return &model.Product{
		ID:           payload.ID,
		Title:        payload.DisplayName,
		Description:  payload.Description,
		DisplayPrice: payload.DisplayPrice,
		Price:        price,
		Currency:     payload.CurrencyCode,
		Type:         productType,
		Platform:     model.PlatformApple,
		Apple:        apple,
	}, nil
}

// mapTransaction translates one native transaction payload into the
// canonical record. Version-gated fields older runtimes never report stay
// nil rather than becoming zero-value placeholders.
func mapTransaction(raw json.RawMessage) (*model.Purchase, error) {
	var payload transactionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding storekit transaction payload")
	}

	quantity := payload.Quantity
	if quantity < 1 {
		quantity = 1
	}

	state := model.PurchaseStatePurchased
	if payload.RevocationDateMs != nil {
		state = model.PurchaseStateUnspecified
	}

	apple := &model.ApplePurchaseDetails{
		OriginalTransactionID: payload.OriginalTransactionID,
		Environment:           payload.Environment,
		OwnershipType:         payload.OwnershipType,
		AppAccountToken:       payload.AppAccountToken,
	}
	if payload.ExpiresDateMs != nil {
		t := time.UnixMilli(*payload.ExpiresDateMs)
		apple.ExpirationDate = &t
	}
	if payload.RevocationDateMs != nil {
		t := time.UnixMilli(*payload.RevocationDateMs)
		apple.RevocationDate = &t
	}
	if payload.RevocationReason != nil {
		r := *payload.RevocationReason
		apple.RevocationReason = &r
	}

	return &model.Purchase{
		ProductID:       payload.ProductID,
		TransactionID:   payload.TransactionID,
		Token:           payload.SignedTransaction,
		TransactionDate: time.UnixMilli(payload.PurchaseDateMs),
		State:           state,
		Quantity:        quantity,
		Platform:        model.PlatformApple,
		Apple:           apple,
	}, nil
}
