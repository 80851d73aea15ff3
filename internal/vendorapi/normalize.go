package vendorapi

import "payment-offers-api/internal/models"

// Normalize flattens a parsed payload into canonical offer records, one per
// (offer, eligible provider) pair. An offer with no providers yields a single
// provider-agnostic record with a nil bank. Entries missing an offer id or a
// title are malformed and silently dropped.
//
// Record order carries no meaning downstream.
func Normalize(p *Payload) []models.Offer {
	summaryByID := make(map[string]SummaryEntry)
	for _, s := range p.OfferSummary() {
		if s.ID == "" {
			continue
		}
		// last value wins on duplicate ids
		summaryByID[s.ID] = s
	}

	instruments := ClassifyInstruments(p)

	var records []models.Offer
	for _, entry := range p.OfferList() {
		offerID := entry.ID()
		title := entry.Title()
		if offerID == "" || title == "" {
			continue
		}

		var instrument *string
		if category, ok := instruments[offerID]; ok {
			instrument = &category
		}

		var offerType *string
		var value int64
		if meta, ok := summaryByID[offerID]; ok {
			offerType = meta.Type
			if meta.Value != nil {
				value = *meta.Value
			}
		}

		var description *string
		if text := entry.DescriptionText(); text != "" {
			description = &text
		}

		base := models.Offer{
			OfferID:           offerID,
			PaymentInstrument: instrument,
			Type:              offerType,
			Value:             value,
			Title:             title,
			Description:       description,
		}

		if len(entry.Provider) == 0 {
			records = append(records, base)
			continue
		}
		for _, provider := range entry.Provider {
			record := base
			bank := provider
			record.BankName = &bank
			records = append(records, record)
		}
	}

	return records
}
