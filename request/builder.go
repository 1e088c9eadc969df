// Package request builds the platform-partitioned request objects the
// adapters consume. Construction is two-stage: accumulate per-platform
// blocks, then Build validates everything and freezes an immutable value.
// Nothing here touches a native store; all validation happens before any
// native call is made.
package request

import (
	"github.com/openiap/openiap-go/errcode"
)

// QueryType selects which product class a request addresses. QueryAll is
// legal only for product queries; there is no cross-platform "purchase both
// kinds in one call" operation.
type QueryType uint8

const (
	QueryInApp QueryType = iota + 1
	QuerySubscription
	QueryAll
)

func (t QueryType) String() string {
	switch t {
	case QueryInApp:
		return "in-app"
	case QuerySubscription:
		return "subscription"
	case QueryAll:
		return "all"
	default:
		return "unknown"
	}
}

// ApplePurchase is the App Store purchase block: a single SKU plus optional
// purchase options. Leaving SKU empty omits the platform from the request
// entirely, permitting single-platform requests.
type ApplePurchase struct {
	SKU             string
	Quantity        int
	AppAccountToken string
	Offer           *AppleDiscountOffer
}

// AppleDiscountOffer is a signed promotional offer attached to a purchase.
type AppleDiscountOffer struct {
	ID        string
	KeyID     string
	Nonce     string
	Signature string
	Timestamp int64
}

// GooglePurchase is the Play Billing purchase block: one or more SKUs with
// their subscription offer tokens.
type GooglePurchase struct {
	SKUs                []string
	OfferTokens         []string
	ObfuscatedAccountID string
	ObfuscatedProfileID string
	IsOfferPersonalized bool
}

// Request is the frozen output of a Builder: for each platform either nil
// (platform omitted) or a validated payload. At least one payload is
// always present.
type Request struct {
	query  QueryType
	apple  *ApplePurchase
	google *GooglePurchase
}

func (r *Request) Query() QueryType         { return r.query }
func (r *Request) Apple() *ApplePurchase    { return r.apple }
func (r *Request) Google() *GooglePurchase  { return r.google }

// SKUFor returns the SKU the request addresses on the given platform,
// for tagging errors. Empty when the platform is omitted.
func (r *Request) SKUFor(apple bool) string {
	if apple {
		if r.apple == nil {
			return ""
		}
		return r.apple.SKU
	}
	if r.google == nil || len(r.google.SKUs) == 0 {
		return ""
	}
	return r.google.SKUs[0]
}

// Builder accumulates a purchase request. Zero value is not usable; start
// with New.
type Builder struct {
	query  QueryType
	apple  *ApplePurchase
	google *GooglePurchase
}

func New(query QueryType) *Builder {
	return &Builder{query: query}
}

func (b *Builder) Apple(p ApplePurchase) *Builder {
	b.apple = &p
	return b
}

func (b *Builder) Google(p GooglePurchase) *Builder {
	b.google = &p
	return b
}

// Build validates the accumulated state and freezes it. All configuration
// errors surface here, synchronously, as *errcode.PurchaseError.
func (b *Builder) Build() (*Request, error) {
	switch b.query {
	case QueryInApp, QuerySubscription:
	case QueryAll:
		return nil, errcode.Newf(errcode.DeveloperError,
			"query type %q is not valid for a purchase request", QueryAll)
	default:
		return nil, errcode.Newf(errcode.DeveloperError, "missing query type")
	}

	req := &Request{query: b.query}

	if b.apple != nil && b.apple.SKU != "" {
		apple := *b.apple
		if apple.Quantity < 1 {
			apple.Quantity = 1
		}
		req.apple = &apple
	}

	if b.google != nil {
		if len(b.google.SKUs) == 0 {
			return nil, errcode.New(errcode.EmptySkuList)
		}
		google := *b.google
		google.SKUs = append([]string(nil), b.google.SKUs...)
		google.OfferTokens = append([]string(nil), b.google.OfferTokens...)
		req.google = &google
	}

	if req.apple == nil && req.google == nil {
		return nil, errcode.Newf(errcode.DeveloperError,
			"purchase request has no platform payload")
	}

	return req, nil
}

// ProductRequest is a frozen, validated product query.
type ProductRequest struct {
	query QueryType
	skus  []string
}

func (r *ProductRequest) Query() QueryType { return r.query }

// SKUs returns the queried SKUs. Callers must not mutate the slice.
func (r *ProductRequest) SKUs() []string { return r.skus }

// Products builds a product query for the given SKUs. Unlike purchases,
// QueryAll is permitted here: it fetches both product classes.
func Products(skus []string, query QueryType) (*ProductRequest, error) {
	switch query {
	case QueryInApp, QuerySubscription, QueryAll:
	default:
		return nil, errcode.Newf(errcode.DeveloperError, "missing query type")
	}
	if len(skus) == 0 {
		return nil, errcode.New(errcode.EmptySkuList)
	}
	for _, sku := range skus {
		if sku == "" {
			return nil, errcode.Newf(errcode.DeveloperError, "empty SKU in product query")
		}
	}

	return &ProductRequest{
		query: query,
		skus:  append([]string(nil), skus...),
	}, nil
}
