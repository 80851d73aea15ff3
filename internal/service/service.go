package service

import (
	"context"
	"log"
	"math"
	"time"

	"payment-offers-api/internal/cache"
	"payment-offers-api/internal/database"
	"payment-offers-api/internal/events"
	"payment-offers-api/internal/extract"
	"payment-offers-api/internal/features"
	"payment-offers-api/internal/models"
	"payment-offers-api/internal/tracing"
	"payment-offers-api/internal/validation"
	"payment-offers-api/internal/vendorapi"
)

// minorUnitsPerRupee fixes the unit convention for the whole service: the
// vendor's summary `value` field is in minor units (paise) and is converted
// here, while amounts extracted from offer text and amountToPay itself are
// already in rupees.
const minorUnitsPerRupee = 100

const defaultCacheTTL = 5 * time.Minute

// Service provides business logic for the payment offers API.
type Service struct {
	db       *database.DB
	cache    cache.Cache
	cacheTTL time.Duration
	events   *events.Manager
	features *features.Manager
}

// Options holds optional collaborators for a service instance.
type Options struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Events   *events.Manager
	Features *features.Manager
}

// NewService creates a new service instance without cache or event hooks.
func NewService(db *database.DB) *Service {
	return NewServiceWithOptions(db, Options{})
}

// NewServiceWithOptions creates a new service instance with custom options.
func NewServiceWithOptions(db *database.DB, opts Options) *Service {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{
		db:       db,
		cache:    opts.Cache,
		cacheTTL: ttl,
		events:   opts.Events,
		features: opts.Features,
	}
}

// IngestOffers normalizes a vendor payload and stores one record per
// (offer, eligible provider) pair. Records whose dedup key already exists
// are counted as identified but not created; a store failure on one record
// is logged and skipped so the rest of the payload still lands.
func (s *Service) IngestOffers(ctx context.Context, payload *vendorapi.Payload) (models.IngestOffersResponse, error) {
	ctx, span := tracing.GetTracer().StartSpan(ctx, "service.IngestOffers")
	defer span.End()

	records := vendorapi.Normalize(payload)

	identified := len(records)
	created := 0

	for _, record := range records {
		inserted, err := s.db.InsertOfferIfAbsent(ctx, record)
		if err != nil {
			if ctx.Err() != nil {
				return models.IngestOffersResponse{}, ctx.Err()
			}
			log.Printf("store error while inserting offer %s: %v", record.OfferID, err)
			continue
		}
		if inserted {
			created++
		}
	}

	if created > 0 && s.cacheEnabled() {
		if err := s.cache.Clear(ctx); err != nil {
			log.Printf("failed to flush discount cache after ingest: %v", err)
		}
	}

	if s.eventsEnabled() {
		s.events.PublishOffersIngested(ctx, identified, created)
	}

	return models.IngestOffersResponse{
		Message:              "Offers processed successfully",
		NoOfOffersIdentified: identified,
		NoOfNewOffersCreated: created,
	}, nil
}

// HighestDiscount resolves the largest discount available for the query.
// An empty match set is a success with a zero discount, not an error.
func (s *Service) HighestDiscount(ctx context.Context, query models.DiscountQuery) (models.DiscountResult, error) {
	ctx, span := tracing.GetTracer().StartSpan(ctx, "service.HighestDiscount")
	defer span.End()

	if err := validation.ValidateDiscountQuery(query); err != nil {
		return models.DiscountResult{}, err
	}
	if s.features.IsEnabled(features.FeatureStrictAmountValidation) {
		if err := validation.ValidateAmountCeiling(query.AmountToPay); err != nil {
			return models.DiscountResult{}, err
		}
	}

	cacheKey := cache.QueryKey(query.AmountToPay, query.BankName, query.PaymentInstrument)
	if s.cacheEnabled() {
		var cached models.DiscountResult
		if err := cache.GetJSON(ctx, s.cache, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	offers, err := s.db.FindOffers(ctx, query.BankName, query.PaymentInstrument)
	if err != nil {
		return models.DiscountResult{}, err
	}

	result := resolveDiscount(query.AmountToPay, offers)

	if s.cacheEnabled() {
		if err := cache.SetJSON(ctx, s.cache, cacheKey, result, s.cacheTTL); err != nil {
			log.Printf("failed to cache discount result: %v", err)
		}
	}

	if s.eventsEnabled() {
		s.events.PublishDiscountQueried(ctx, query, result)
	}

	return result, nil
}

// resolveDiscount walks the candidate records and keeps the running maximum.
// Ties keep the first-seen winner, so the result is stable for a given store
// order. Discount mechanics are re-extracted from the stored text on every
// query rather than persisted at ingestion, so rule fixes apply to offers
// that were ingested before the fix.
func resolveDiscount(amountToPay float64, offers []models.Offer) models.DiscountResult {
	best := 0.0
	var winner *models.OfferSummary

	for _, offer := range offers {
		description := ""
		if offer.Description != nil {
			description = *offer.Description
		}
		facts := extract.FromText(description, offer.Title, offer.PaymentInstrument)

		discount, eligible := applicableDiscount(offer, facts, amountToPay)
		if !eligible {
			continue
		}

		if discount > best {
			best = discount
			summary := offer.Summary()
			winner = &summary
		}
	}

	return models.DiscountResult{
		HighestDiscountAmount: best,
		WinningOffer:          winner,
	}
}

// applicableDiscount computes the monetary benefit one offer yields for the
// given amount. Returns eligible=false when the amount is below the offer's
// minimum order value.
func applicableDiscount(offer models.Offer, facts extract.Facts, amountToPay float64) (float64, bool) {
	if facts.MinOrderValue != nil && amountToPay < *facts.MinOrderValue {
		return 0, false
	}

	var discount float64
	switch {
	case facts.NoCostEMI:
		// The benefit is a fee waiver, not a price cut; without an explicit
		// waiver amount there is nothing to credit.
		if facts.FeeWaiverAmount != nil {
			discount = *facts.FeeWaiverAmount
		}
	case facts.Percent != nil:
		cap := amountToPay
		if facts.MaxDiscountCap != nil {
			cap = *facts.MaxDiscountCap
		}
		discount = math.Min(amountToPay**facts.Percent, cap)
	default:
		flat := float64(offer.Value) / minorUnitsPerRupee
		if facts.MaxDiscountCap != nil {
			flat = *facts.MaxDiscountCap
		}
		discount = math.Min(flat, amountToPay)
	}

	// a discount can never exceed the amount being paid
	return math.Min(discount, amountToPay), true
}

func (s *Service) cacheEnabled() bool {
	if s.cache == nil {
		return false
	}
	if s.features == nil {
		return true
	}
	return s.features.IsEnabled(features.FeatureCacheEnabled)
}

func (s *Service) eventsEnabled() bool {
	if s.events == nil {
		return false
	}
	if s.features == nil {
		return true
	}
	return s.features.IsEnabled(features.FeatureEventHooksEnabled)
}
