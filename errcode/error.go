package errcode

import (
	"fmt"

	"github.com/openiap/openiap-go/model"
)

// PurchaseError is the error type every failure in the purchase flow is
// reported as, whether synchronously (configuration errors) or on the
// purchase-error stream (native transactional errors).
type PurchaseError struct {
	Code      Code
	Message   string
	ProductID string
	Platform  model.Platform
}

func (e *PurchaseError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (product %s)", e.Code, e.Message, e.ProductID)
}

// New builds a PurchaseError with the code's fixed description. Codes
// outside the vocabulary degrade to Unknown rather than failing.
func New(code Code) *PurchaseError {
	if !code.Valid() {
		code = Unknown
	}
	return &PurchaseError{Code: code, Message: Describe(code)}
}

// Newf builds a PurchaseError with a caller-supplied message.
func Newf(code Code, format string, args ...any) *PurchaseError {
	e := New(code)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// FromNative translates a native error representation into a PurchaseError
// tagged with its originating platform. Total, like ToCanonical.
func FromNative(native any, platform model.Platform, productID string) *PurchaseError {
	code := ToCanonical(native, platform)
	return &PurchaseError{
		Code:      code,
		Message:   Describe(code),
		ProductID: productID,
		Platform:  platform,
	}
}
