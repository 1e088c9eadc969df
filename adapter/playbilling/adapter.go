package playbilling

import (
	"context"
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

	// Advisory product cache, same contract as the StoreKit adapter's.
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
	return model.PlatformGoogle
}

func (a *Adapter) InitConnection(ctx context.Context) error {
	return a.conn.Begin(a.listen)
}

func (a *Adapter) EndConnection(ctx context.Context) error {
	return a.conn.End()
}

// listen republishes every onPurchasesUpdated callback in delivery order
// until the connection ends. Failed updates carry only a response code and
// go to the error stream.
func (a *Adapter) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case update, ok := <-a.bridge.PurchasesUpdated():
			if !ok {
				return
			}
			if update.ResponseCode != 0 {
				a.pub.PublishError(errcode.FromNative(update.ResponseCode, model.PlatformGoogle, ""))
				continue
			}
			for _, raw := range update.Purchases {
				purchase, err := mapPurchase(raw)
				if err != nil {
					a.log.Warn("Dropping undecodable purchase payload", zap.Error(err))
					continue
				}
				a.pub.PublishPurchase(purchase)
			}
		}
	}
}

func nativeProductType(q request.QueryType) []string {
	switch q {
	case request.QueryInApp:
		return []string{"inapp"}
	case request.QuerySubscription:
		return []string{"subs"}
	default:
		return []string{"inapp", "subs"}
	}
}

func (a *Adapter) FetchProducts(ctx context.Context, req *request.ProductRequest) ([]*model.Product, error) {
	if err := a.conn.Require(); err != nil {
		return nil, err
	}

	var products []*model.Product
	for _, productType := range nativeProductType(req.Query()) {
		raws, err := a.bridge.QueryProductDetails(ctx, req.SKUs(), productType)
		if err != nil {
			return nil, errors.Wrap(err, "querying billing product details")
		}
		for _, raw := range raws {
			product, err := mapProductDetails(raw)
			if err != nil {
				return nil, err
			}
			a.cache.Set(product.ID, product)
			products = append(products, product)
		}
	}
	return products, nil
}

func (a *Adapter) RequestPurchase(ctx context.Context, req *request.Request) error {
	if err := a.conn.Require(); err != nil {
		return err
	}

	payload := req.Google()
	if payload == nil {
		return errcode.Newf(errcode.DeveloperError,
			"request has no payload for platform %s", model.PlatformGoogle)
	}

	for _, sku := range payload.SKUs {
		if _, cached := a.cache.Get(sku); !cached {
			raws, err := a.bridge.QueryProductDetails(ctx, []string{sku}, nativeProductType(req.Query())[0])
			if err == nil && len(raws) == 0 {
				e := errcode.New(errcode.SkuNotFound)
				e.ProductID = sku
				e.Platform = model.PlatformGoogle
				a.pub.PublishError(e)
				return nil
			}
			for _, raw := range raws {
				if product, err := mapProductDetails(raw); err == nil {
					a.cache.Set(product.ID, product)
				}
			}
		}
	}

	// Launch failures are native-level outcomes and flow through the
	// error stream, like everything else the billing UI reports.
	go func() {
		if err := a.bridge.LaunchBillingFlow(ctx, *payload); err != nil {
			a.publishError(err, payload.SKUs[0])
		}
	}()
	return nil
}

func (a *Adapter) publishError(err error, sku string) {
	var native *NativeError
	if errors.As(err, &native) {
		if native.SKU != "" {
			sku = native.SKU
		}
		a.pub.PublishError(errcode.FromNative(native.Code, model.PlatformGoogle, sku))
		return
	}

	a.log.Warn("Billing flow failed outside the native path", zap.Error(err))
	a.pub.PublishError(errcode.FromNative(nil, model.PlatformGoogle, sku))
}

func (a *Adapter) FinishTransaction(ctx context.Context, purchase *model.Purchase, consumable bool) error {
	if err := a.conn.Require(); err != nil {
		return err
	}

	var err error
	if consumable {
		err = a.bridge.Consume(ctx, purchase.Token)
	} else {
		if purchase.Google != nil && purchase.Google.IsAcknowledged {
			return errcode.New(errcode.ReceiptFinished)
		}
		err = a.bridge.Acknowledge(ctx, purchase.Token)
	}
	if err != nil {
		var native *NativeError
		if errors.As(err, &native) {
			return errcode.FromNative(native.Code, model.PlatformGoogle, purchase.ProductID)
		}
		return errors.Wrapf(err, "finishing transaction %s", purchase.TransactionID)
	}
	return nil
}

func (a *Adapter) RestorePurchases(ctx context.Context) ([]*model.Purchase, error) {
	if err := a.conn.Require(); err != nil {
		return nil, err
	}

	raws, err := a.bridge.QueryPurchases(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying billing purchases")
	}

	purchases := make([]*model.Purchase, 0, len(raws))
	for _, raw := range raws {
		purchase, err := mapPurchase(raw)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}
	return purchases, nil
}

func (a *Adapter) CanMakePayments(ctx context.Context) (bool, error) {
	return a.bridge.IsReady(ctx)
}
