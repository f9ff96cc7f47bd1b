package main

import (
	"context"
	"net/http"
	"os"

	webAdapter "frutta-gest/internal/adapters/web"
	"frutta-gest/internal/app"
	"frutta-gest/internal/core"
	"frutta-gest/internal/db"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	numbering := core.NewNumberingService(pool)
	stock := core.NewStockService(pool)
	orders := core.NewOrderService(pool, numbering)
	deliveryNotes := core.NewDeliveryNoteService(pool, numbering, stock)
	invoices := core.NewInvoiceService(pool, numbering)
	shoppingLists := core.NewShoppingListService(pool, stock)
	purchaseOrders := core.NewPurchaseOrderService(pool, numbering, stock)
	parties := core.NewPartyService(pool, numbering)

	svc := app.NewAppService(orders, deliveryNotes, invoices, shoppingLists, purchaseOrders, stock, parties)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Info().Str("port", port).Msg("server starting")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
