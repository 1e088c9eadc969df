package errcode

import "github.com/openiap/openiap-go/model"

// Play Billing surfaces errors as small integers. The table is partial in
// the native direction: codes added to the vocabulary after the native
// table froze (the newer SKU validation codes) have no integer equivalent.
var googleByCode = map[Code]int{
	Unknown:                     0,
	UserCancelled:               1,
	UserError:                   2,
	ItemUnavailable:             3,
	RemoteError:                 4,
	NetworkError:                5,
	ServiceError:                6,
	ReceiptFailed:               7,
	ReceiptFinished:             8,
	ReceiptFinishedFailed:       9,
	NotPrepared:                 10,
	AlreadyPrepared:             11,
	AlreadyOwned:                12,
	ItemNotOwned:                13,
	DeveloperError:              14,
	PurchaseFailed:              15,
	SyncError:                   16,
	DeferredPayment:             17,
	Interrupted:                 18,
	IapNotAvailable:             19,
	BillingUnavailable:          20,
	ServiceDisconnected:         21,
	ConnectionClosed:            22,
	TransactionValidationFailed: 23,
}

var codeByGoogle = func() map[int]Code {
	m := make(map[int]Code, len(googleByCode))
	for code, native := range googleByCode {
		m[native] = code
	}
	return m
}()

// FromGoogle maps a native Play Billing error integer onto the vocabulary.
// Total: integers outside the table degrade to Unknown.
func FromGoogle(native int) Code {
	code, ok := codeByGoogle[native]
	if !ok {
		return Unknown
	}
	return code
}

// FromApple maps a native StoreKit error identifier onto the vocabulary.
// The native identifiers are the canonical member names themselves, so this
// is a membership check. Total: unrecognized identifiers degrade to Unknown.
func FromApple(native string) Code {
	code := Code(native)
	if !code.Valid() {
		return Unknown
	}
	return code
}

// ToCanonical maps any native error representation onto the vocabulary.
// It is a deliberately total function: translation must not itself become a
// source of failures during failure handling.
func ToCanonical(native any, platform model.Platform) Code {
	switch platform {
	case model.PlatformGoogle:
		if n, ok := native.(int); ok {
			return FromGoogle(n)
		}
	case model.PlatformApple:
		if s, ok := native.(string); ok {
			return FromApple(s)
		}
	}
	return Unknown
}

// ToGoogle returns the native Play Billing integer for a code. The second
// return distinguishes a code with no native equivalent (0, false) from a
// genuine Unknown mapping (0, true); callers that only want the historical
// behavior treat both as 0.
func ToGoogle(code Code) (int, bool) {
	native, ok := googleByCode[code]
	return native, ok
}

// ToApple returns the native StoreKit identifier for a code: the member
// name itself. Codes outside the vocabulary yield the Unknown identifier.
func ToApple(code Code) string {
	if !code.Valid() {
		return string(Unknown)
	}
	return string(code)
}
