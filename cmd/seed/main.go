// seed loads a small set of demo master data: customers, suppliers, a
// produce catalog, and supplier price lists. It goes through the regular
// services so customer and supplier codes come from the numbering sequences.
//
// The tool refuses to run against a database that already has customers.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"os"

	"frutta-gest/internal/core"
	"frutta-gest/internal/db"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers").Scan(&count); err != nil {
		log.Fatal().Err(err).Msg("failed to inspect customers table")
	}
	if count > 0 {
		log.Info().Int("customers", count).Msg("database already seeded, nothing to do")
		os.Exit(0)
	}

	numbering := core.NewNumberingService(pool)
	parties := core.NewPartyService(pool, numbering)

	customers := []core.CustomerInput{
		{Name: "Ristorante Da Mario", VATNumber: "IT01234567890", Email: "ordini@damario.it", Phone: "+39 055 2345678", Address: "Via dei Neri 12, Firenze"},
		{Name: "Hotel Bellavista", VATNumber: "IT09876543210", Email: "cucina@bellavista.it", Phone: "+39 055 8765432", Address: "Viale Michelangelo 3, Firenze"},
		{Name: "Mensa Scolastica Galilei", Email: "mensa@icgalilei.edu.it", Address: "Via Galilei 41, Prato"},
	}
	for _, c := range customers {
		created, err := parties.CreateCustomer(ctx, c)
		if err != nil {
			log.Fatal().Err(err).Str("name", c.Name).Msg("failed to create customer")
		}
		log.Info().Str("code", created.Code).Str("name", created.Name).Msg("customer")
	}

	supplierInputs := []core.SupplierInput{
		{Name: "Ortofrutta Toscana SRL", Email: "vendite@ortotoscana.it", Phone: "+39 055 1112233", Address: "Mercato Ortofrutticolo, Firenze"},
		{Name: "Azienda Agricola Verdi", Email: "info@agricolaverdi.it", Phone: "+39 0571 445566", Address: "Via delle Colline 8, Empoli"},
	}
	var suppliers []*core.Supplier
	for _, s := range supplierInputs {
		created, err := parties.CreateSupplier(ctx, s)
		if err != nil {
			log.Fatal().Err(err).Str("name", s.Name).Msg("failed to create supplier")
		}
		suppliers = append(suppliers, created)
		log.Info().Str("code", created.Code).Str("name", created.Name).Msg("supplier")
	}

	vat4 := decimal.NewFromInt(4)
	vat10 := decimal.NewFromInt(10)

	products := []core.ProductInput{
		{Code: "MELA-GOLD", Name: "Mele Golden", Unit: "kg", DefaultPrice: decimal.NewFromFloat(2.20), VATRate: vat4, DefaultSupplierID: &suppliers[0].ID},
		{Code: "POMO-CIL", Name: "Pomodori ciliegino", Unit: "kg", DefaultPrice: decimal.NewFromFloat(3.80), VATRate: vat4, DefaultSupplierID: &suppliers[1].ID},
		{Code: "INSA-GEN", Name: "Insalata gentile", Unit: "cassa", DefaultPrice: decimal.NewFromFloat(7.50), VATRate: vat4, DefaultSupplierID: &suppliers[1].ID},
		{Code: "LIMO-SIC", Name: "Limoni di Sicilia", Unit: "kg", DefaultPrice: decimal.NewFromFloat(2.90), VATRate: vat4, DefaultSupplierID: &suppliers[0].ID},
		{Code: "BASI-VAS", Name: "Basilico in vaso", Unit: "pz", DefaultPrice: decimal.NewFromFloat(1.60), VATRate: vat10},
	}
	var created []*core.Product
	for _, p := range products {
		prod, err := parties.CreateProduct(ctx, p)
		if err != nil {
			log.Fatal().Err(err).Str("code", p.Code).Msg("failed to create product")
		}
		created = append(created, prod)
		log.Info().Str("code", prod.Code).Str("name", prod.Name).Msg("product")
	}

	prices := []struct {
		supplier int
		product  int
		cost     decimal.Decimal
	}{
		{0, 0, decimal.NewFromFloat(1.40)},
		{0, 3, decimal.NewFromFloat(1.95)},
		{1, 1, decimal.NewFromFloat(2.60)},
		{1, 2, decimal.NewFromFloat(5.10)},
	}
	for _, p := range prices {
		if _, err := parties.SetSupplierPrice(ctx, suppliers[p.supplier].ID, created[p.product].ID, p.cost); err != nil {
			log.Fatal().Err(err).Msg("failed to set supplier price")
		}
	}

	log.Info().Msg("seed data loaded")
}
