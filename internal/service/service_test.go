package service

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"payment-offers-api/internal/cache"
	"payment-offers-api/internal/database"
	"payment-offers-api/internal/features"
	"payment-offers-api/internal/models"
	"payment-offers-api/internal/validation"
	"payment-offers-api/internal/vendorapi"
)

func setupTestDB(t *testing.T) (*database.DB, func()) {
	dbPath := "./test_svc_" + time.Now().Format("20060102150405.000000000") + ".db"
	db, err := database.NewDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func strPtr(s string) *string { return &s }

func mustParse(t *testing.T, raw string) *vendorapi.Payload {
	t.Helper()
	p, err := vendorapi.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Failed to parse payload: %v", err)
	}
	return p
}

func insertOffer(t *testing.T, db *database.DB, offer models.Offer) {
	t.Helper()
	if _, err := db.InsertOfferIfAbsent(context.Background(), offer); err != nil {
		t.Fatalf("Failed to insert offer: %v", err)
	}
}

const ingestPayload = `{
	"items": [
		{
			"type": "OFFER_LIST",
			"data": {
				"offers": {
					"offerList": [
						{
							"offerText": {"text": "10% off"},
							"offerDescription": {"id": "FPO1", "text": "10% Instant Discount up to ₹1,000 on Credit Card"},
							"provider": ["HDFC", "ICICI"]
						},
						{
							"offerText": {"text": "Save 500"},
							"offerDescription": {"id": "FPO2", "text": "Instant savings for all customers"},
							"provider": []
						}
					]
				}
			}
		}
	],
	"viewTracking": {
		"offersAvailable": {
			"offerSummary": [
				{"id": "FPO1", "type": "INSTANT_DISCOUNT", "value": 100000},
				{"id": "FPO2", "type": "INSTANT_DISCOUNT", "value": 50000}
			]
		}
	}
}`

func TestIngestOffers_CountsAndExpansion(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewService(db)
	resp, err := svc.IngestOffers(context.Background(), mustParse(t, ingestPayload))
	if err != nil {
		t.Fatalf("Failed to ingest offers: %v", err)
	}

	if resp.NoOfOffersIdentified != 3 {
		t.Errorf("Expected 3 identified, got %d", resp.NoOfOffersIdentified)
	}
	if resp.NoOfNewOffersCreated != 3 {
		t.Errorf("Expected 3 created, got %d", resp.NoOfNewOffersCreated)
	}
}

func TestIngestOffers_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewService(db)
	ctx := context.Background()
	payload := mustParse(t, ingestPayload)

	if _, err := svc.IngestOffers(ctx, payload); err != nil {
		t.Fatalf("First ingest failed: %v", err)
	}

	countBefore, _ := db.CountOffers(ctx)

	resp, err := svc.IngestOffers(ctx, payload)
	if err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}

	if resp.NoOfOffersIdentified != 3 {
		t.Errorf("Expected 3 identified on re-ingest, got %d", resp.NoOfOffersIdentified)
	}
	if resp.NoOfNewOffersCreated != 0 {
		t.Errorf("Expected 0 created on re-ingest, got %d", resp.NoOfNewOffersCreated)
	}

	countAfter, _ := db.CountOffers(ctx)
	if countBefore != countAfter {
		t.Errorf("Expected stored count unchanged, got %d -> %d", countBefore, countAfter)
	}
}

func TestHighestDiscount_ValidationErrors(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewService(db)
	ctx := context.Background()

	for _, amount := range []float64{0, -100, math.NaN(), math.Inf(1)} {
		_, err := svc.HighestDiscount(ctx, models.DiscountQuery{AmountToPay: amount})
		if err == nil {
			t.Errorf("Expected validation error for amount %v", amount)
			continue
		}
		if _, ok := err.(*validation.ValidationError); !ok {
			t.Errorf("Expected ValidationError for amount %v, got %T", amount, err)
		}
	}
}

func TestHighestDiscount_EmptyMatchSet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewService(db)
	result, err := svc.HighestDiscount(context.Background(), models.DiscountQuery{AmountToPay: 1000})
	if err != nil {
		t.Fatalf("Expected empty match to succeed, got: %v", err)
	}

	if result.HighestDiscountAmount != 0 {
		t.Errorf("Expected 0 discount, got %v", result.HighestDiscountAmount)
	}
	if result.WinningOffer != nil {
		t.Errorf("Expected nil winning offer, got %+v", result.WinningOffer)
	}
}

func TestHighestDiscount_PercentCapInteraction(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	insertOffer(t, db, models.Offer{
		OfferID:     "FPO1",
		BankName:    strPtr("HDFC"),
		Title:       "10% off",
		Description: strPtr("10% Instant Discount, Max. discount ₹300"),
	})

	svc := NewService(db)
	ctx := context.Background()

	cases := []struct {
		amount float64
		want   float64
	}{
		{2000, 200}, // 10% below the cap
		{5000, 300}, // cap binds
	}

	for _, tc := range cases {
		result, err := svc.HighestDiscount(ctx, models.DiscountQuery{AmountToPay: tc.amount, BankName: strPtr("HDFC")})
		if err != nil {
			t.Fatalf("Failed to resolve discount: %v", err)
		}
		if result.HighestDiscountAmount != tc.want {
			t.Errorf("amount %v: expected discount %v, got %v", tc.amount, tc.want, result.HighestDiscountAmount)
		}
	}
}

func TestHighestDiscount_MinOrderBoundary(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	insertOffer(t, db, models.Offer{
		OfferID:     "FPO1",
		BankName:    strPtr("HDFC"),
		Title:       "Flat 500 off",
		Value:       50000,
		Description: strPtr("Flat discount, Min Order Value ₹5,000"),
	})

	svc := NewService(db)
	ctx := context.Background()

	below, err := svc.HighestDiscount(ctx, models.DiscountQuery{AmountToPay: 4999, BankName: strPtr("HDFC")})
	if err != nil {
		t.Fatalf("Failed to resolve discount: %v", err)
	}
	if below.HighestDiscountAmount != 0 || below.WinningOffer != nil {
		t.Errorf("Expected no discount below min order, got %v", below.HighestDiscountAmount)
	}

	at, err := svc.HighestDiscount(ctx, models.DiscountQuery{AmountToPay: 5000, BankName: strPtr("HDFC")})
	if err != nil {
		t.Fatalf("Failed to resolve discount: %v", err)
	}
	if at.HighestDiscountAmount != 500 {
		t.Errorf("Expected 500 discount at min order, got %v", at.HighestDiscountAmount)
	}
}

func TestHighestDiscount_NoCostEMIWithoutWaiver(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	insertOffer(t, db, models.Offer{
		OfferID:           "FPO1",
		BankName:          strPtr("HDFC"),
		PaymentInstrument: strPtr(models.InstrumentNoCostEMI),
		Value:             100000,
		Title:             "No Cost EMI",
		Description:       strPtr("No Cost EMI on 3 and 6 month plans"),
	})

	svc := NewService(db)
	result, err := svc.HighestDiscount(context.Background(), models.DiscountQuery{AmountToPay: 50000, BankName: strPtr("HDFC")})
	if err != nil {
		t.Fatalf("Failed to resolve discount: %v", err)
	}

	if result.HighestDiscountAmount != 0 {
		t.Errorf("Expected 0 discount for no-cost EMI without waiver, got %v", result.HighestDiscountAmount)
	}
}

func TestHighestDiscount_NoCostEMIWithWaiver(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	insertOffer(t, db, models.Offer{
		OfferID:           "FPO1",
		BankName:          strPtr("HDFC"),
		PaymentInstrument: strPtr(models.InstrumentNoCostEMI),
		Title:             "No Cost EMI",
		Description:       strPtr("No Cost EMI: interest of ₹1,200 waived"),
	})

	svc := NewService(db)
	result, err := svc.HighestDiscount(context.Background(), models.DiscountQuery{AmountToPay: 50000, BankName: strPtr("HDFC")})
	if err != nil {
		t.Fatalf("Failed to resolve discount: %v", err)
	}

	if result.HighestDiscountAmount != 1200 {
		t.Errorf("Expected 1200 fee waiver discount, got %v", result.HighestDiscountAmount)
	}
}

func TestHighestDiscount_BestOfGenericAndPercent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// generic: 50000 paise -> ₹500 flat; instrument-specific: 10% capped at ₹1,000
	insertOffer(t, db, models.Offer{
		OfferID:  "FPO1",
		BankName: strPtr("HDFC"),
		Value:    50000,
		Title:    "Save 500",
	})
	insertOffer(t, db, models.Offer{
		OfferID:           "FPO2",
		BankName:          strPtr("HDFC"),
		PaymentInstrument: strPtr(models.InstrumentCredit),
		Title:             "10% off",
		Description:       strPtr("10% Instant Discount up to ₹1,000 on Credit Cards"),
	})

	svc := NewService(db)
	result, err := svc.HighestDiscount(context.Background(), models.DiscountQuery{AmountToPay: 12000, BankName: strPtr("HDFC")})
	if err != nil {
		t.Fatalf("Failed to resolve discount: %v", err)
	}

	if result.HighestDiscountAmount != 1000 {
		t.Errorf("Expected 1000, got %v", result.HighestDiscountAmount)
	}
	if result.WinningOffer == nil || result.WinningOffer.OfferID != "FPO2" {
		t.Errorf("Expected FPO2 to win, got %+v", result.WinningOffer)
	}
	if result.WinningOffer != nil && (result.WinningOffer.PaymentInstrument == nil || *result.WinningOffer.PaymentInstrument != models.InstrumentCredit) {
		t.Errorf("Expected winner instrument CREDIT, got %v", result.WinningOffer.PaymentInstrument)
	}
}

func TestHighestDiscount_OmittedFiltersMatchEverything(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	insertOffer(t, db, models.Offer{OfferID: "FPO1", BankName: strPtr("HDFC"), Value: 20000, Title: "hdfc 200"})
	insertOffer(t, db, models.Offer{OfferID: "FPO2", BankName: strPtr("ICICI"), Value: 30000, Title: "icici 300"})
	insertOffer(t, db, models.Offer{OfferID: "FPO3", Value: 40000, Title: "agnostic 400"})

	svc := NewService(db)
	result, err := svc.HighestDiscount(context.Background(), models.DiscountQuery{AmountToPay: 10000})
	if err != nil {
		t.Fatalf("Failed to resolve discount: %v", err)
	}

	// the provider-agnostic record must compete too
	if result.HighestDiscountAmount != 400 {
		t.Errorf("Expected 400 from the provider-agnostic record, got %v", result.HighestDiscountAmount)
	}
	if result.WinningOffer == nil || result.WinningOffer.OfferID != "FPO3" {
		t.Errorf("Expected FPO3 to win, got %+v", result.WinningOffer)
	}
}

func TestHighestDiscount_Boundedness(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// flat value far above small purchase amounts
	insertOffer(t, db, models.Offer{OfferID: "FPO1", BankName: strPtr("HDFC"), Value: 5000000, Title: "Save 50000"})

	svc := NewService(db)
	for _, amount := range []float64{1, 99.5, 250, 49999} {
		result, err := svc.HighestDiscount(context.Background(), models.DiscountQuery{AmountToPay: amount, BankName: strPtr("HDFC")})
		if err != nil {
			t.Fatalf("Failed to resolve discount: %v", err)
		}
		if result.HighestDiscountAmount < 0 || result.HighestDiscountAmount > amount {
			t.Errorf("Discount %v out of bounds for amount %v", result.HighestDiscountAmount, amount)
		}
	}
}

func TestHighestDiscount_TieKeepsFirstSeen(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	insertOffer(t, db, models.Offer{OfferID: "FPO1", BankName: strPtr("HDFC"), Value: 30000, Title: "first 300"})
	insertOffer(t, db, models.Offer{OfferID: "FPO2", BankName: strPtr("HDFC"), Value: 30000, Title: "second 300"})

	svc := NewService(db)
	result, err := svc.HighestDiscount(context.Background(), models.DiscountQuery{AmountToPay: 5000, BankName: strPtr("HDFC")})
	if err != nil {
		t.Fatalf("Failed to resolve discount: %v", err)
	}

	if result.WinningOffer == nil || result.WinningOffer.OfferID != "FPO1" {
		t.Errorf("Expected first-seen FPO1 to win the tie, got %+v", result.WinningOffer)
	}
}

func TestHighestDiscount_CacheFlushedOnIngest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewServiceWithOptions(db, Options{
		Cache:    cache.NewInMemoryCache(),
		CacheTTL: time.Minute,
	})
	ctx := context.Background()

	query := models.DiscountQuery{AmountToPay: 12000, BankName: strPtr("HDFC")}

	first, err := svc.HighestDiscount(ctx, query)
	if err != nil {
		t.Fatalf("Failed to resolve discount: %v", err)
	}
	if first.HighestDiscountAmount != 0 {
		t.Fatalf("Expected 0 before ingest, got %v", first.HighestDiscountAmount)
	}

	if _, err := svc.IngestOffers(ctx, mustParse(t, ingestPayload)); err != nil {
		t.Fatalf("Failed to ingest offers: %v", err)
	}

	// the ingest flushed the cached zero result, so the new offers are visible
	second, err := svc.HighestDiscount(ctx, query)
	if err != nil {
		t.Fatalf("Failed to resolve discount: %v", err)
	}
	if second.HighestDiscountAmount != 1000 {
		t.Errorf("Expected 1000 after ingest, got %v", second.HighestDiscountAmount)
	}
}

func TestHighestDiscount_StrictAmountCeiling(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	flags := features.NewManager()
	flags.Register(features.FeatureStrictAmountValidation, true, "")
	defer flags.Shutdown()

	svc := NewServiceWithOptions(db, Options{Features: flags})
	ctx := context.Background()

	_, err := svc.HighestDiscount(ctx, models.DiscountQuery{AmountToPay: validation.MaxOrderValue + 1})
	var ve *validation.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected validation error above the ceiling, got %v", err)
	}

	if _, err := svc.HighestDiscount(ctx, models.DiscountQuery{AmountToPay: validation.MaxOrderValue}); err != nil {
		t.Errorf("Expected amount at the ceiling to pass, got %v", err)
	}
}
