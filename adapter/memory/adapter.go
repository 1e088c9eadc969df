// Package memory implements Adapter over a simulated native store. It
// backs the shared conformance suite and serves as the no-op variant for
// platforms without billing support.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openiap/openiap-go/adapter"
	"github.com/openiap/openiap-go/errcode"
	"github.com/openiap/openiap-go/model"
	"github.com/openiap/openiap-go/request"
)

// outcome scripts the result of the next purchase attempt.
type outcome struct {
	cancel  bool
	pending bool
	fail    errcode.Code
}

type Adapter struct {
	log      *zap.Logger
	pub      *adapter.Publisher
	platform model.Platform
	conn     adapter.Conn

	queue chan *model.Purchase

	mu              sync.Mutex
	catalog         map[string]*model.Product
	owned           map[string]*model.Purchase
	unfinished      map[string]*model.Purchase
	canMakePayments bool
	nextOutcome     *outcome
}

var _ adapter.Adapter = (*Adapter)(nil)

func New(platform model.Platform, log *zap.Logger, pub *adapter.Publisher) *Adapter {
	return &Adapter{
		log:             log,
		pub:             pub,
		platform:        platform,
		queue:           make(chan *model.Purchase, 64),
		catalog:         make(map[string]*model.Product),
		owned:           make(map[string]*model.Purchase),
		unfinished:      make(map[string]*model.Purchase),
		canMakePayments: true,
	}
}

func (a *Adapter) Platform() model.Platform {
	return a.platform
}

// RegisterProduct seeds the simulated catalog.
func (a *Adapter) RegisterProduct(p *model.Product) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.catalog[p.ID] = p.Clone()
}

// CancelNextPurchase makes the next purchase attempt report a user
// cancellation. Without a script, purchases succeed.
func (a *Adapter) CancelNextPurchase() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextOutcome = &outcome{cancel: true}
}

// FailNextPurchase makes the next purchase attempt fail with the given
// native-level code.
func (a *Adapter) FailNextPurchase(code errcode.Code) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextOutcome = &outcome{fail: code}
}

// DeferNextPurchase makes the next purchase complete in the pending state,
// awaiting external approval.
func (a *Adapter) DeferNextPurchase() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextOutcome = &outcome{pending: true}
}

func (a *Adapter) SetCanMakePayments(allowed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.canMakePayments = allowed
}

// SeedUnfinished injects a transaction the store considers not yet
// finished, as left over from a previous session. It is redelivered on the
// next connect.
func (a *Adapter) SeedUnfinished(p *model.Purchase) {
	a.mu.Lock()
	defer a.mu.Unlock()

	clone := p.Clone()
	a.owned[clone.TransactionID] = clone
	a.unfinished[clone.TransactionID] = clone
}

// PromoteProduct simulates a store-initiated purchase prompt for a
// registered SKU.
func (a *Adapter) PromoteProduct(sku string) {
	a.mu.Lock()
	p, ok := a.catalog[sku]
	a.mu.Unlock()
	if !ok {
		return
	}
	a.pub.PublishPromoted(p.Clone())
}

func (a *Adapter) InitConnection(ctx context.Context) error {
	return a.conn.Begin(a.listen)
}

func (a *Adapter) EndConnection(ctx context.Context) error {
	return a.conn.End()
}

// listen is the single long-lived listener task. It first redelivers
// unfinished transactions from previous sessions, then republishes fresh
// native notifications in delivery order until the connection ends.
func (a *Adapter) listen(ctx context.Context) {
	a.mu.Lock()
	backlog := make([]*model.Purchase, 0, len(a.unfinished))
	for _, p := range a.unfinished {
		backlog = append(backlog, p.Clone())
	}
	a.mu.Unlock()

	for _, p := range backlog {
		a.log.Debug("redelivering unfinished transaction",
			zap.String("transaction_id", p.TransactionID))
		a.pub.PublishPurchase(p)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case p := <-a.queue:
			a.pub.PublishPurchase(p)
		}
	}
}

// deliver hands a native notification to the listener. Deliveries while
// disconnected are dropped, mirroring the native "stop listening, stop
// receiving" contract.
func (a *Adapter) deliver(p *model.Purchase) {
	if a.conn.State() != adapter.StateConnected {
		a.log.Debug("dropping transaction delivered while disconnected",
			zap.String("transaction_id", p.TransactionID))
		return
	}
	a.queue <- p
}

func (a *Adapter) FetchProducts(ctx context.Context, req *request.ProductRequest) ([]*model.Product, error) {
	if err := a.conn.Require(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	products := make([]*model.Product, 0, len(req.SKUs()))
	for _, sku := range req.SKUs() {
		p, ok := a.catalog[sku]
		if !ok {
			continue
		}
		switch req.Query() {
		case request.QueryInApp:
			if p.Type != model.ProductTypeInApp {
				continue
			}
		case request.QuerySubscription:
			if p.Type != model.ProductTypeSubscription {
				continue
			}
		}
		products = append(products, p.Clone())
	}
	return products, nil
}

func (a *Adapter) RequestPurchase(ctx context.Context, req *request.Request) error {
	if err := a.conn.Require(); err != nil {
		return err
	}

	sku := a.skuFor(req)
	if sku == "" {
		return errcode.Newf(errcode.DeveloperError,
			"request has no payload for platform %s", a.platform)
	}

	a.mu.Lock()
	product, known := a.catalog[sku]
	scripted := a.nextOutcome
	a.nextOutcome = nil
	a.mu.Unlock()

	// Everything from here on is the asynchronous part of the native flow:
	// failures go to the error stream, success to the purchase stream.
	if !known {
		a.publishError(errcode.SkuNotFound, sku)
		return nil
	}
	if scripted != nil {
		switch {
		case scripted.cancel:
			a.publishError(errcode.UserCancelled, sku)
			return nil
		case scripted.fail != "":
			a.publishError(scripted.fail, sku)
			return nil
		case scripted.pending:
			a.complete(product, model.PurchaseStatePending)
			return nil
		}
	}

	a.complete(product, model.PurchaseStatePurchased)
	return nil
}

func (a *Adapter) skuFor(req *request.Request) string {
	switch a.platform {
	case model.PlatformGoogle:
		return req.SKUFor(false)
	default:
		return req.SKUFor(true)
	}
}

func (a *Adapter) publishError(code errcode.Code, sku string) {
	e := errcode.New(code)
	e.ProductID = sku
	e.Platform = a.platform
	a.pub.PublishError(e)
}

func (a *Adapter) complete(product *model.Product, state model.PurchaseState) {
	p := &model.Purchase{
		ProductID:       product.ID,
		TransactionID:   uuid.NewString(),
		Token:           fmt.Sprintf("memory:%s:%s", product.ID, uuid.NewString()),
		TransactionDate: time.Now(),
		State:           state,
		Quantity:        1,
		Platform:        a.platform,
	}
	switch a.platform {
	case model.PlatformApple:
		p.Apple = &model.ApplePurchaseDetails{
			OriginalTransactionID: p.TransactionID,
			Environment:           "Sandbox",
		}
	case model.PlatformGoogle:
		p.Google = &model.GooglePurchaseDetails{
			OrderID:     "GPA." + p.TransactionID,
			PackageName: "com.openiap.memory",
		}
	}

	a.mu.Lock()
	a.owned[p.TransactionID] = p
	a.unfinished[p.TransactionID] = p
	a.mu.Unlock()

	a.deliver(p.Clone())
}

func (a *Adapter) FinishTransaction(ctx context.Context, purchase *model.Purchase, consumable bool) error {
	if err := a.conn.Require(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.owned[purchase.TransactionID]; !ok {
		return errcode.Newf(errcode.ItemNotOwned,
			"transaction %s is not owned", purchase.TransactionID)
	}
	if _, ok := a.unfinished[purchase.TransactionID]; !ok {
		return errcode.New(errcode.ReceiptFinished)
	}

	delete(a.unfinished, purchase.TransactionID)
	if consumable {
		delete(a.owned, purchase.TransactionID)
	}
	return nil
}

func (a *Adapter) RestorePurchases(ctx context.Context) ([]*model.Purchase, error) {
	if err := a.conn.Require(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	purchases := make([]*model.Purchase, 0, len(a.owned))
	for _, p := range a.owned {
		purchases = append(purchases, p.Clone())
	}
	return purchases, nil
}

func (a *Adapter) CanMakePayments(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.canMakePayments, nil
}

func (a *Adapter) reset() {
	_ = a.conn.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.catalog = make(map[string]*model.Product)
	a.owned = make(map[string]*model.Purchase)
	a.unfinished = make(map[string]*model.Purchase)
	a.canMakePayments = true
	a.nextOutcome = nil

	for {
		select {
		case <-a.queue:
		default:
			return
		}
	}
}
