// Package vendorapi models the retail vendor's offer-listing response and
// normalizes it into flat offer records.
//
// The payload is deeply nested and loosely structured, so each section is
// decoded independently: a malformed OFFER_LIST or PAYMENT_OPTION entry is
// dropped on its own without aborting the rest of the payload. Every accessor
// is nil-safe and returns an empty result instead of assuming presence.
package vendorapi

import "encoding/json"

// Payload is the decoded vendor response, reduced to the three sections the
// pipeline consumes.
type Payload struct {
	offerList      []OfferEntry
	paymentOptions []PaymentOption
	summary        []SummaryEntry
}

type envelope struct {
	Items        []rawItem       `json:"items"`
	ViewTracking json.RawMessage `json:"viewTracking"`
}

type rawItem struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type offerListData struct {
	Offers struct {
		OfferList []OfferEntry `json:"offerList"`
	} `json:"offers"`
}

type paymentOptionData struct {
	InstrumentType string `json:"instrumentType"`
	Content        struct {
		Options []PaymentOptionEntry `json:"options"`
	} `json:"content"`
}

type viewTracking struct {
	OffersAvailable struct {
		OfferSummary []SummaryEntry `json:"offerSummary"`
	} `json:"offersAvailable"`
}

// OfferEntry is one entry of the detailed offer list shown to shoppers.
type OfferEntry struct {
	OfferText        *textNode        `json:"offerText"`
	OfferDescription *descriptionNode `json:"offerDescription"`
	Provider         []string         `json:"provider"`
}

type textNode struct {
	Text string `json:"text"`
}

type descriptionNode struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ID returns the vendor offer id, or "" when absent.
func (e OfferEntry) ID() string {
	if e.OfferDescription == nil {
		return ""
	}
	return e.OfferDescription.ID
}

// Title returns the display title, or "" when absent.
func (e OfferEntry) Title() string {
	if e.OfferText == nil {
		return ""
	}
	return e.OfferText.Text
}

// DescriptionText returns the full offer description, or "" when absent.
func (e OfferEntry) DescriptionText() string {
	if e.OfferDescription == nil {
		return ""
	}
	return e.OfferDescription.Text
}

// PaymentOption is one PAYMENT_OPTION section of the payload: an instrument
// category plus the payment options (banks, plans) nested under it.
type PaymentOption struct {
	InstrumentType string
	Options        []PaymentOptionEntry
}

// PaymentOptionEntry is a single selectable option under a payment-option
// section, e.g. one bank's EMI plan.
type PaymentOptionEntry struct {
	Provider        []string `json:"provider"`
	AggregatedOffer *struct {
		Callout *struct {
			Content *struct {
				Information *struct {
					Offers []nestedOffer `json:"offers"`
				} `json:"information"`
			} `json:"content"`
		} `json:"callout"`
	} `json:"aggregatedOffer"`
}

type nestedOffer struct {
	OfferFooter *struct {
		TncInfo *struct {
			ID string `json:"id"`
		} `json:"tncInfo"`
	} `json:"offerFooter"`
}

// NestedOfferIDs returns the offer ids referenced under this option's
// aggregated-offer callout, skipping entries without an id.
func (o PaymentOptionEntry) NestedOfferIDs() []string {
	if o.AggregatedOffer == nil || o.AggregatedOffer.Callout == nil ||
		o.AggregatedOffer.Callout.Content == nil ||
		o.AggregatedOffer.Callout.Content.Information == nil {
		return nil
	}
	var ids []string
	for _, offer := range o.AggregatedOffer.Callout.Content.Information.Offers {
		if offer.OfferFooter == nil || offer.OfferFooter.TncInfo == nil {
			continue
		}
		if id := offer.OfferFooter.TncInfo.ID; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ProviderNames returns the union of provider names across this section's
// options, used by the provider-overlap classification fallback.
func (p PaymentOption) ProviderNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, opt := range p.Options {
		for _, prov := range opt.Provider {
			if prov == "" || seen[prov] {
				continue
			}
			seen[prov] = true
			names = append(names, prov)
		}
	}
	return names
}

// SummaryEntry is one entry of the tracking summary list: the vendor's own
// (type, value) metadata for an offer id. Value is in minor currency units.
type SummaryEntry struct {
	ID    string  `json:"id"`
	Type  *string `json:"type"`
	Value *int64  `json:"value"`
}

// Parse decodes a raw vendor response. Only a syntactically invalid top-level
// document is an error; sections that fail to decode are dropped and the rest
// of the payload is still usable.
func Parse(raw []byte) (*Payload, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	p := &Payload{}

	for _, item := range env.Items {
		switch item.Type {
		case "OFFER_LIST":
			var data offerListData
			if err := json.Unmarshal(item.Data, &data); err != nil {
				continue
			}
			p.offerList = append(p.offerList, data.Offers.OfferList...)
		case "PAYMENT_OPTION":
			var data paymentOptionData
			if err := json.Unmarshal(item.Data, &data); err != nil {
				continue
			}
			if data.InstrumentType == "" {
				continue
			}
			p.paymentOptions = append(p.paymentOptions, PaymentOption{
				InstrumentType: data.InstrumentType,
				Options:        data.Content.Options,
			})
		}
	}

	if len(env.ViewTracking) > 0 {
		var vt viewTracking
		if err := json.Unmarshal(env.ViewTracking, &vt); err == nil {
			p.summary = vt.OffersAvailable.OfferSummary
		}
	}

	return p, nil
}

// OfferList returns the detailed offer-list entries found in the payload.
func (p *Payload) OfferList() []OfferEntry {
	if p == nil {
		return nil
	}
	return p.offerList
}

// PaymentOptions returns the PAYMENT_OPTION sections found in the payload.
func (p *Payload) PaymentOptions() []PaymentOption {
	if p == nil {
		return nil
	}
	return p.paymentOptions
}

// OfferSummary returns the tracking summary entries found in the payload.
func (p *Payload) OfferSummary() []SummaryEntry {
	if p == nil {
		return nil
	}
	return p.summary
}
