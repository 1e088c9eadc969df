package openiap

import (
	"sync"

	"go.uber.org/zap"

	"github.com/openiap/openiap-go/adapter"
	"github.com/openiap/openiap-go/adapter/memory"
	"github.com/openiap/openiap-go/model"
	memverify "github.com/openiap/openiap-go/verify/memory"
)

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default returns a process-wide client over the in-memory simulated
// store. Convenient for development and examples; production code should
// construct a Client over a real store adapter with New.
func Default() *Client {
	defaultOnce.Do(func() {
		log := zap.Must(zap.NewProduction())
		pub := adapter.NewPublisher()
		pubKey, _, err := memverify.GenerateKeyPair()
		if err != nil {
			log.Fatal("failure initializing default verifier", zap.Error(err))
		}
		verifier := memverify.NewMemoryVerifier(pubKey)
		defaultClient = New(log, memory.New(model.PlatformApple, log, pub), pub, verifier)
	})
	return defaultClient
}
