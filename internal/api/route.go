package api

import (
	v1 "github.com/faa999-tech/telebotshop/internal/api/v1"
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, handler *v1.Handler) {
	app.Get("/ping", handler.Pong)
	app.Get("/health", handler.Health)

	app.Post("/webhook/tripay", handler.TripayCallback)
	app.Get("/payment-return", handler.PaymentReturn)

	app.Get("/v1/products", handler.ListProducts)
	app.Get("/v1/products/:id", handler.GetProduct)
	app.Post("/v1/products", handler.CreateProduct)
	app.Post("/v1/products/:id/stock", handler.AddStock)

	app.Post("/v1/purchase/quote", handler.QuotePurchase)
	app.Post("/v1/purchase/confirm", handler.ConfirmPurchase)
	app.Post("/v1/purchase/cancel", handler.CancelPurchase)

	app.Post("/v1/topup", handler.InitiateTopup)
	app.Get("/v1/channels", handler.ListChannels)
	app.Get("/v1/channels/fee", handler.GetChannelFee)

	app.Get("/v1/users/:id/balance", handler.GetBalance)
	app.Get("/v1/users/:id/transactions", handler.GetHistory)
}
