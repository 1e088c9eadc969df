package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openiap/openiap-go/adapter"
	"github.com/openiap/openiap-go/adapter/memory"
	"github.com/openiap/openiap-go/model"
	"github.com/openiap/openiap-go/request"
)

// Demo of a full purchase round trip against the simulated store.
func main() {
	_ = godotenv.Load()

	log := zap.Must(zap.NewDevelopment())
	defer log.Sync()

	pub := adapter.NewPublisher()
	sim := memory.New(model.PlatformApple, log, pub)
	sim.RegisterProduct(&model.Product{
		ID:           "coin_100",
		Title:        "100 Coins",
		DisplayPrice: "$0.99",
		Price:        decimal.RequireFromString("0.99"),
		Currency:     "USD",
		Type:         model.ProductTypeInApp,
		Platform:     model.PlatformApple,
	})

	ctx := context.Background()
	if err := sim.InitConnection(ctx); err != nil {
		log.Fatal("failure connecting to store", zap.Error(err))
	}
	defer sim.EndConnection(ctx)

	productReq, err := request.Products([]string{"coin_100"}, request.QueryInApp)
	if err != nil {
		log.Fatal("failure building product request", zap.Error(err))
	}
	products, err := sim.FetchProducts(ctx, productReq)
	if err != nil {
		log.Fatal("failure fetching products", zap.Error(err))
	}
	for _, p := range products {
		log.Info("fetched product",
			zap.String("id", p.ID),
			zap.String("price", p.DisplayPrice))
	}

	updates := pub.SubscribePurchases()
	defer pub.UnsubscribePurchases(updates.ID())

	req, err := request.New(request.QueryInApp).
		Apple(request.ApplePurchase{SKU: "coin_100"}).
		Build()
	if err != nil {
		log.Fatal("failure building purchase request", zap.Error(err))
	}
	if err := sim.RequestPurchase(ctx, req); err != nil {
		log.Fatal("failure requesting purchase", zap.Error(err))
	}

	select {
	case purchase := <-updates.Channel():
		log.Info("purchase delivered",
			zap.String("product_id", purchase.ProductID),
			zap.String("transaction_id", purchase.TransactionID),
			zap.String("receipt_id", purchase.ReceiptID()))

		if err := sim.FinishTransaction(ctx, purchase, true); err != nil {
			log.Fatal("failure finishing transaction", zap.Error(err))
		}
		fmt.Println("Result:", purchase.State)
	case <-time.After(5 * time.Second):
		log.Fatal("timed out waiting for purchase")
	}
}
