package memory

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openiap/openiap-go/model"
	"github.com/openiap/openiap-go/verify"
)

// MemoryVerifier is an in-memory provider that checks an ed25519 signature
// on the purchase token. For testing purposes the "token" is a message
// that, when signed by the owner secret, is considered entitled.
type MemoryVerifier struct {
	publicKey ed25519.PublicKey
}

func NewMemoryVerifier(pubKey ed25519.PublicKey) verify.Verifier {
	return &MemoryVerifier{publicKey: pubKey}
}

func (m *MemoryVerifier) VerifyPurchase(ctx context.Context, purchase *model.Purchase) (verify.Entitlement, error) {
	signature, message, err := parseToken(purchase.Token)
	if err != nil {
		// A malformed token is inauthentic, not a provider failure.
		return verify.EntitlementInauthentic, nil
	}

	if !ed25519.Verify(m.publicKey, message, signature) {
		return verify.EntitlementInauthentic, nil
	}

	// The signed message doubles as the entitlement state, letting tests
	// script expired and canceled outcomes.
	switch string(message) {
	case "expired":
		return verify.EntitlementExpired, nil
	case "canceled":
		return verify.EntitlementCanceled, nil
	default:
		return verify.EntitlementEntitled, nil
	}
}

// GenerateKeyPair returns a fresh owner key pair for tests.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// SignToken builds a token the verifier accepts: base64(signature)|message.
func SignToken(owner ed25519.PrivateKey, message string) string {
	signature := ed25519.Sign(owner, []byte(message))
	return base64.StdEncoding.EncodeToString(signature) + "|" + message
}

func parseToken(token string) (signature []byte, message []byte, err error) {
	parts := strings.Split(token, "|")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid token format: %s", token)
	}

	signature, err = base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding signature: %w", err)
	}

	return signature, []byte(parts[1]), nil
}
