package vendorapi

import (
	"strings"

	"payment-offers-api/internal/models"
)

// cardIssuingBanks are providers whose presence on an offer is a strong
// enough signal on its own to classify the offer as a credit-card offer.
var cardIssuingBanks = map[string]bool{
	"SBI":              true,
	"HDFC":             true,
	"ICICI":            true,
	"AXIS":             true,
	"KOTAK":            true,
	"FLIPKARTSBI":      true,
	"FLIPKARTAXISBANK": true,
}

// ClassifyInstruments maps every offer id in the payload to a payment
// instrument category. Three tiers, first match wins per id:
//
//  1. Structured: ids nested under a PAYMENT_OPTION section belong to that
//     section's instrumentType. The vendor's own structure is authoritative.
//  2. Provider overlap: an unresolved offer whose provider list overlaps a
//     section's providers inherits that section's instrumentType.
//  3. Keywords: text matching against the lower-cased description and title,
//     in fixed priority order. Text is the last resort because incidental
//     word occurrence produces false positives.
//
// Ids that survive all three tiers are left out of the map (unclassified).
func ClassifyInstruments(p *Payload) map[string]string {
	instruments := make(map[string]string)

	for _, section := range p.PaymentOptions() {
		for _, opt := range section.Options {
			for _, id := range opt.NestedOfferIDs() {
				if _, ok := instruments[id]; !ok {
					instruments[id] = section.InstrumentType
				}
			}
		}
	}

	for _, section := range p.PaymentOptions() {
		sectionProviders := section.ProviderNames()
		if len(sectionProviders) == 0 {
			continue
		}
		for _, entry := range p.OfferList() {
			id := entry.ID()
			if id == "" {
				continue
			}
			if _, ok := instruments[id]; ok {
				continue
			}
			if overlaps(entry.Provider, sectionProviders) {
				instruments[id] = section.InstrumentType
			}
		}
	}

	for _, entry := range p.OfferList() {
		id := entry.ID()
		if id == "" {
			continue
		}
		if _, ok := instruments[id]; ok {
			continue
		}
		if kw := keywordInstrument(entry.DescriptionText(), entry.Title(), entry.Provider); kw != "" {
			instruments[id] = kw
		}
	}

	return instruments
}

// keywordInstrument applies the keyword rules in their contractual priority
// order and returns the first matching category, or "" when none match.
func keywordInstrument(description, title string, providers []string) string {
	text := strings.ToLower(description) + " " + strings.ToLower(title)

	switch {
	case strings.Contains(text, "no cost") && strings.Contains(text, "emi"):
		return models.InstrumentNoCostEMI
	case strings.Contains(text, "emi"):
		return models.InstrumentEMI
	case strings.Contains(text, "credit card") || hasCardIssuingBank(providers):
		return models.InstrumentCredit
	case strings.Contains(text, "debit card"):
		return models.InstrumentDebit
	case strings.Contains(text, "upi"):
		return models.InstrumentUPI
	case strings.Contains(text, "net banking"):
		return models.InstrumentNetBanking
	}
	return ""
}

func hasCardIssuingBank(providers []string) bool {
	for _, p := range providers {
		if cardIssuingBanks[p] {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
