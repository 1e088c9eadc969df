// Package errcode defines the closed cross-platform purchase error
// vocabulary and the translation between it and each store's native error
// representation. The identifiers are a published wire contract: they must
// not be renamed or renumbered.
package errcode

// Code is a canonical purchase error identifier. The string value is the
// wire representation; on the App Store side the native error identifiers
// are these member names themselves.
type Code string

const (
	// General.
	Unknown        Code = "unknown"
	DeveloperError Code = "developer-error"
	PurchaseFailed Code = "purchase-error"
	SyncError      Code = "sync-error"

	// User action.
	UserCancelled   Code = "user-cancelled"
	UserError       Code = "user-error"
	DeferredPayment Code = "deferred-payment"
	Interrupted     Code = "interrupted"

	// Product.
	ItemUnavailable  Code = "item-unavailable"
	SkuNotFound      Code = "sku-not-found"
	SkuOfferMismatch Code = "sku-offer-mismatch"
	AlreadyOwned     Code = "already-owned"
	ItemNotOwned     Code = "item-not-owned"

	// Network and service.
	NetworkError        Code = "network-error"
	ServiceError        Code = "service-error"
	RemoteError         Code = "remote-error"
	IapNotAvailable     Code = "iap-not-available"
	BillingUnavailable  Code = "billing-unavailable"
	ServiceDisconnected Code = "service-disconnected"
	ConnectionClosed    Code = "connection-closed"

	// Validation.
	ReceiptFailed               Code = "receipt-failed"
	ReceiptFinished             Code = "receipt-finished"
	ReceiptFinishedFailed       Code = "receipt-finished-failed"
	TransactionValidationFailed Code = "transaction-validation-failed"
	EmptySkuList                Code = "empty-sku-list"

	// Platform connection state.
	NotPrepared     Code = "not-prepared"
	AlreadyPrepared Code = "already-prepared"
)

type Category uint8

const (
	CategoryGeneral Category = iota
	CategoryUserAction
	CategoryProduct
	CategoryNetworkService
	CategoryValidation
	CategoryPlatform
)

var categories = map[Code]Category{
	Unknown:        CategoryGeneral,
	DeveloperError: CategoryGeneral,
	PurchaseFailed: CategoryGeneral,
	SyncError:      CategoryGeneral,

	UserCancelled:   CategoryUserAction,
	UserError:       CategoryUserAction,
	DeferredPayment: CategoryUserAction,
	Interrupted:     CategoryUserAction,

	ItemUnavailable:  CategoryProduct,
	SkuNotFound:      CategoryProduct,
	SkuOfferMismatch: CategoryProduct,
	AlreadyOwned:     CategoryProduct,
	ItemNotOwned:     CategoryProduct,

	NetworkError:        CategoryNetworkService,
	ServiceError:        CategoryNetworkService,
	RemoteError:         CategoryNetworkService,
	IapNotAvailable:     CategoryNetworkService,
	BillingUnavailable:  CategoryNetworkService,
	ServiceDisconnected: CategoryNetworkService,
	ConnectionClosed:    CategoryNetworkService,

	ReceiptFailed:               CategoryValidation,
	ReceiptFinished:             CategoryValidation,
	ReceiptFinishedFailed:       CategoryValidation,
	TransactionValidationFailed: CategoryValidation,
	EmptySkuList:                CategoryValidation,

	NotPrepared:     CategoryPlatform,
	AlreadyPrepared: CategoryPlatform,
}

// Valid reports whether c is a member of the canonical vocabulary.
func (c Code) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Category returns the group a code belongs to. Codes outside the
// vocabulary report CategoryGeneral, matching their degradation to Unknown.
func (c Code) Category() Category {
	category, ok := categories[c]
	if !ok {
		return CategoryGeneral
	}
	return category
}

// All returns every member of the vocabulary. The slice is freshly
// allocated; order is unspecified.
func All() []Code {
	codes := make([]Code, 0, len(categories))
	for c := range categories {
		codes = append(codes, c)
	}
	return codes
}

var descriptions = map[Code]string{
	Unknown:        "An unknown error occurred",
	DeveloperError: "The request was malformed",
	PurchaseFailed: "The purchase could not be completed",
	SyncError:      "Synchronizing with the store failed",

	UserCancelled:   "The user cancelled the purchase",
	UserError:       "The purchase was blocked by a user-level restriction",
	DeferredPayment: "The purchase is awaiting approval",
	Interrupted:     "The purchase flow was interrupted",

	ItemUnavailable:  "The requested product is not available for purchase",
	SkuNotFound:      "No product is registered under the requested SKU",
	SkuOfferMismatch: "The offer does not apply to the requested SKU",
	AlreadyOwned:     "The product is already owned",
	ItemNotOwned:     "The product is not owned",

	NetworkError:        "A network error occurred",
	ServiceError:        "The store service reported an error",
	RemoteError:         "The remote store call failed",
	IapNotAvailable:     "In-app purchases are not available on this device",
	BillingUnavailable:  "The billing service is unavailable",
	ServiceDisconnected: "The billing service disconnected",
	ConnectionClosed:    "The store connection was closed",

	ReceiptFailed:               "The receipt could not be validated",
	ReceiptFinished:             "The transaction was already finished",
	ReceiptFinishedFailed:       "Finishing the transaction failed",
	TransactionValidationFailed: "The transaction failed validation",
	EmptySkuList:                "At least one SKU is required",

	NotPrepared:     "The store connection is not initialized",
	AlreadyPrepared: "The store connection is already initialized",
}

// Describe returns the fixed fallback message for a code. It is intended
// for default user messaging only, never for control flow.
func Describe(c Code) string {
	msg, ok := descriptions[c]
	if !ok {
		return descriptions[Unknown]
	}
	return msg
}
