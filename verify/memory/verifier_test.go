package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openiap/openiap-go/model"
	"github.com/openiap/openiap-go/verify"
)

func TestMemoryVerifier(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)
	otherPub, _, err := GenerateKeyPair()
	require.NoError(t, err)

	verifier := NewMemoryVerifier(pub)
	ctx := context.Background()

	purchase := func(token string) *model.Purchase {
		return &model.Purchase{ProductID: "coin_100", Token: token, Platform: model.PlatformApple}
	}

	t.Run("Entitled", func(t *testing.T) {
		e, err := verifier.VerifyPurchase(ctx, purchase(SignToken(priv, "coin_100")))
		require.NoError(t, err)
		require.Equal(t, verify.EntitlementEntitled, e)
	})

	t.Run("ScriptedStates", func(t *testing.T) {
		e, err := verifier.VerifyPurchase(ctx, purchase(SignToken(priv, "expired")))
		require.NoError(t, err)
		require.Equal(t, verify.EntitlementExpired, e)

		e, err = verifier.VerifyPurchase(ctx, purchase(SignToken(priv, "canceled")))
		require.NoError(t, err)
		require.Equal(t, verify.EntitlementCanceled, e)
	})

	t.Run("WrongKey", func(t *testing.T) {
		wrongVerifier := NewMemoryVerifier(otherPub)
		e, err := wrongVerifier.VerifyPurchase(ctx, purchase(SignToken(priv, "coin_100")))
		require.NoError(t, err)
		require.Equal(t, verify.EntitlementInauthentic, e)
	})

	t.Run("MalformedToken", func(t *testing.T) {
		e, err := verifier.VerifyPurchase(ctx, purchase("not-a-token"))
		require.NoError(t, err)
		require.Equal(t, verify.EntitlementInauthentic, e)

		e, err = verifier.VerifyPurchase(ctx, purchase("!!!|payload"))
		require.NoError(t, err)
		require.Equal(t, verify.EntitlementInauthentic, e)
	})
}
