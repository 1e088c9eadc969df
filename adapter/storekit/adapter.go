package storekit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ReneKroon/ttlcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/openiap/openiap-go/adapter"
	"github.com/openiap/openiap-go/errcode"
	"github.com/openiap/openiap-go/model"
	"github.com/openiap/openiap-go/request"
)

const productCacheTTL = 15 * time.Minute

type Adapter struct {
	log    *zap.Logger
	pub    *adapter.Publisher
	bridge Bridge
	conn   adapter.Conn

	// Advisory product cache: populated by FetchProducts, consulted by
	// RequestPurchase to skip a redundant lookup. A miss always falls
	// back to a fresh native query.
	cache *ttlcache.Cache
}

var _ adapter.Adapter = (*Adapter)(nil)

func New(log *zap.Logger, pub *adapter.Publisher, bridge Bridge) *Adapter {
	cache := ttlcache.NewCache()
	cache.SetTTL(productCacheTTL)
	return &Adapter{
		log:    log,
		pub:    pub,
		bridge: bridge,
		cache:  cache,
	}
}

func (a *Adapter) Platform() model.Platform {
	return model.PlatformApple
}

func (a *Adapter) InitConnection(ctx context.Context) error {
	return a.conn.Begin(a.listen)
}

func (a *Adapter) EndConnection(ctx context.Context) error {
	return a.conn.End()
}

// listen republishes every native transaction notification in delivery
// order, and tracks store-initiated purchase prompts, until the connection
// ends.
func (a *Adapter) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case raw, ok := <-a.bridge.Transactions():
			if !ok {
				return
			}
			purchase, err := mapTransaction(raw)
			if err != nil {
				a.log.Warn("Dropping undecodable transaction payload", zap.Error(err))
				continue
			}
			a.pub.PublishPurchase(purchase)

		case raw, ok := <-a.bridge.PromotedProducts():
			if !ok {
				return
			}
			product, err := mapProduct(raw)
			if err != nil {
				a.log.Warn("Dropping undecodable promoted product payload", zap.Error(err))
				continue
			}
			a.pub.PublishPromoted(product)
		}
	}
}

func (a *Adapter) FetchProducts(ctx context.Context, req *request.ProductRequest) ([]*model.Product, error) {
	if err := a.conn.Require(); err != nil {
		return nil, err
	}

	raws, err := a.bridge.QueryProducts(ctx, req.SKUs())
	if err != nil {
		return nil, errors.Wrap(err, "querying storekit products")
	}

	products := make([]*model.Product, 0, len(raws))
	for _, raw := range raws {
		product, err := mapProduct(raw)
		if err != nil {
			return nil, err
		}
		switch req.Query() {
		case request.QueryInApp:
			if product.Type != model.ProductTypeInApp {
				continue
			}
		case request.QuerySubscription:
			if product.Type != model.ProductTypeSubscription {
				continue
			}
		}
		a.cache.Set(product.ID, product)
		products = append(products, product)
	}
	return products, nil
}

func (a *Adapter) RequestPurchase(ctx context.Context, req *request.Request) error {
	if err := a.conn.Require(); err != nil {
		return err
	}

	payload := req.Apple()
	if payload == nil {
		return errcode.Newf(errcode.DeveloperError,
			"request has no payload for platform %s", model.PlatformApple)
	}

	if _, cached := a.cache.Get(payload.SKU); !cached {
		// Cache is advisory only: a miss means a fresh native lookup, not
		// an error. The lookup also lets the store reject unknown SKUs
		// before presenting any UI.
		raws, err := a.bridge.QueryProducts(ctx, []string{payload.SKU})
		if err == nil && len(raws) == 0 {
			a.publishError(&NativeError{Code: string(errcode.SkuNotFound), SKU: payload.SKU})
			return nil
		}
		for _, raw := range raws {
			if product, err := mapProduct(raw); err == nil {
				a.cache.Set(product.ID, product)
			}
		}
	}

	// The purchase flow is modal and store-driven: run it off the calling
	// goroutine, reporting the outcome only through the streams.
	go func() {
		if err := a.bridge.Purchase(ctx, *payload); err != nil {
			a.publishError(err)
		}
	}()
	return nil
}

func (a *Adapter) publishError(err error) {
	var native *NativeError
	if errors.As(err, &native) {
		e := errcode.FromNative(native.Code, model.PlatformApple, native.SKU)
		a.log.Debug("Purchase failed",
			zap.String("code", string(e.Code)),
			zap.String("sku", native.SKU))
		a.pub.PublishError(e)
		return
	}

	a.log.Warn("Purchase failed outside the native flow", zap.Error(err))
	a.pub.PublishError(errcode.FromNative(nil, model.PlatformApple, ""))
}

func (a *Adapter) FinishTransaction(ctx context.Context, purchase *model.Purchase, consumable bool) error {
	if err := a.conn.Require(); err != nil {
		return err
	}

	// StoreKit has a single finish operation; consumption is implied by
	// the product type the store already knows.
	if err := a.bridge.Finish(ctx, purchase.TransactionID); err != nil {
		var native *NativeError
		if errors.As(err, &native) {
			return errcode.FromNative(native.Code, model.PlatformApple, purchase.ProductID)
		}
		return errors.Wrapf(err, "finishing transaction %s", purchase.TransactionID)
	}
	return nil
}

func (a *Adapter) RestorePurchases(ctx context.Context) ([]*model.Purchase, error) {
	if err := a.conn.Require(); err != nil {
		return nil, err
	}

	raws, err := a.bridge.CurrentEntitlements(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying current entitlements")
	}
	return mapTransactions(raws)
}

func mapTransactions(raws []json.RawMessage) ([]*model.Purchase, error) {
	purchases := make([]*model.Purchase, 0, len(raws))
	for _, raw := range raws {
		purchase, err := mapTransaction(raw)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}
	return purchases, nil
}

func (a *Adapter) CanMakePayments(ctx context.Context) (bool, error) {
	return a.bridge.CanMakePayments(ctx)
}
