package adapter

import (
	"time"

	"github.com/google/uuid"

	"github.com/openiap/openiap-go/errcode"
	"github.com/openiap/openiap-go/event"
	"github.com/openiap/openiap-go/model"
)

const (
	defaultNotifyTimeout = 5 * time.Second
	defaultStreamBuffer  = 64
)

// Publisher owns the three outbound streams of an adapter: purchase
// updates, purchase errors, and the conflating promoted-product slot.
// Publishing preserves native-delivery order; subscriptions survive
// reconnects.
type Publisher struct {
	purchases *event.Bus[*model.Purchase]
	errors    *event.Bus[*errcode.PurchaseError]
	promoted  *event.Latest[*model.Product]
}

func NewPublisher() *Publisher {
	return &Publisher{
		purchases: event.NewBus[*model.Purchase](defaultNotifyTimeout),
		errors:    event.NewBus[*errcode.PurchaseError](defaultNotifyTimeout),
		promoted:  event.NewLatest[*model.Product](),
	}
}

func (p *Publisher) SubscribePurchases() *event.BufferedStream[*model.Purchase] {
	s := event.NewBufferedStream[*model.Purchase](uuid.NewString(), defaultStreamBuffer)
	p.purchases.Add(s)
	return s
}

func (p *Publisher) UnsubscribePurchases(id string) {
	p.purchases.Remove(id)
}

func (p *Publisher) SubscribeErrors() *event.BufferedStream[*errcode.PurchaseError] {
	s := event.NewBufferedStream[*errcode.PurchaseError](uuid.NewString(), defaultStreamBuffer)
	p.errors.Add(s)
	return s
}

func (p *Publisher) UnsubscribeErrors(id string) {
	p.errors.Remove(id)
}

func (p *Publisher) PublishPurchase(purchase *model.Purchase) {
	p.purchases.Publish(purchase)
}

func (p *Publisher) PublishError(e *errcode.PurchaseError) {
	p.errors.Publish(e)
}

func (p *Publisher) PublishPromoted(product *model.Product) {
	p.promoted.Set(product)
}

// Promoted returns the current store-initiated purchase prompt, if any.
func (p *Publisher) Promoted() (*model.Product, bool) {
	return p.promoted.Get()
}

// PromotedChannel signals each new promoted product; a newer prompt
// overwrites an undelivered one.
func (p *Publisher) PromotedChannel() <-chan *model.Product {
	return p.promoted.Channel()
}

// Close tears down every subscriber stream. Used at process teardown, not
// on EndConnection: disconnecting stops publication but keeps subscribers.
func (p *Publisher) Close() {
	p.purchases.CloseAll()
	p.errors.CloseAll()
	p.promoted.Clear()
}
