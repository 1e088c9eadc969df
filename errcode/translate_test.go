package errcode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openiap/openiap-go/model"
)

func TestVocabulary_Closed(t *testing.T) {
	require.Len(t, All(), 27)
	for _, code := range All() {
		require.True(t, code.Valid())
		require.NotEmpty(t, Describe(code))
	}
}

func TestToCanonical_Total(t *testing.T) {
	// Inputs outside the known tables must degrade to Unknown, never fail.
	for _, native := range []int{-3, 24, 25, 26, 99, 1 << 20} {
		require.Equal(t, Unknown, FromGoogle(native), "native=%d", native)
	}
	for _, native := range []string{"", "E_USER_CANCELLED", "no-such-code", "USER-CANCELLED"} {
		require.Equal(t, Unknown, FromApple(native), "native=%q", native)
	}

	// Wrong representation for the platform degrades too.
	require.Equal(t, Unknown, ToCanonical("3", model.PlatformGoogle))
	require.Equal(t, Unknown, ToCanonical(3, model.PlatformApple))
	require.Equal(t, Unknown, ToCanonical(nil, model.PlatformUnknown))
}

func TestApple_RoundTrip(t *testing.T) {
	// On the platform whose native representation is the member name
	// itself, translation round-trips every code.
	for _, code := range All() {
		require.Equal(t, code, FromApple(ToApple(code)))
	}
	require.Equal(t, string(Unknown), ToApple(Code("bogus")))
}

func TestGoogle_Table(t *testing.T) {
	native, ok := ToGoogle(UserCancelled)
	require.True(t, ok)
	require.Equal(t, UserCancelled, FromGoogle(native))

	// The newer SKU validation codes have no native integer equivalent and
	// must be reported as unmapped, not conflated with Unknown.
	for _, code := range []Code{EmptySkuList, SkuNotFound, SkuOfferMismatch} {
		native, ok := ToGoogle(code)
		require.False(t, ok)
		require.Zero(t, native)
	}

	native, ok = ToGoogle(Unknown)
	require.True(t, ok)
	require.Zero(t, native)
}

func TestCategories(t *testing.T) {
	require.Equal(t, CategoryUserAction, UserCancelled.Category())
	require.Equal(t, CategoryValidation, EmptySkuList.Category())
	require.Equal(t, CategoryPlatform, NotPrepared.Category())
	require.Equal(t, CategoryGeneral, Code("bogus").Category())
}

func TestPurchaseError(t *testing.T) {
	e := FromNative(1, model.PlatformGoogle, "coin_100")
	require.Equal(t, UserCancelled, e.Code)
	require.Equal(t, "coin_100", e.ProductID)
	require.Equal(t, model.PlatformGoogle, e.Platform)
	require.Contains(t, e.Error(), "user-cancelled")
	require.Contains(t, e.Error(), "coin_100")

	require.Equal(t, Unknown, New(Code("bogus")).Code)
}
