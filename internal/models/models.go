package models

import "encoding/json"

// Payment instrument categories assigned by the classifier. The values mirror
// the instrumentType strings the vendor uses in its PAYMENT_OPTION sections.
const (
	InstrumentCredit     = "CREDIT"
	InstrumentDebit      = "DEBIT"
	InstrumentEMI        = "EMI_OPTIONS"
	InstrumentNoCostEMI  = "NO_COST_EMI"
	InstrumentUPI        = "UPI"
	InstrumentNetBanking = "NET_OPTIONS"
	InstrumentWallet     = "WALLET"
)

// Offer is one normalized (vendor offer, eligible provider) pair. Records are
// immutable once stored; (OfferID, BankName, PaymentInstrument) is the
// uniqueness key, with nil meaning provider-agnostic / unclassified.
type Offer struct {
	OfferID           string  `json:"offerId"`
	BankName          *string `json:"bankName"`          // nil = valid for any provider
	PaymentInstrument *string `json:"paymentInstrument"` // nil = unclassifiable
	Type              *string `json:"type"`              // INSTANT_DISCOUNT / CASHBACK_ON_CARD / ...
	Value             int64   `json:"value"`             // vendor minor currency units (paise)
	Title             string  `json:"title"`
	Description       *string `json:"description"`
}

// OfferSummary is the projection of an Offer returned to query callers.
type OfferSummary struct {
	OfferID           string  `json:"offerId"`
	BankName          *string `json:"bankName"`
	Type              *string `json:"type"`
	Title             string  `json:"title"`
	PaymentInstrument *string `json:"paymentInstrument"`
}

// Summary returns the query-result projection of the offer.
func (o Offer) Summary() OfferSummary {
	return OfferSummary{
		OfferID:           o.OfferID,
		BankName:          o.BankName,
		Type:              o.Type,
		Title:             o.Title,
		PaymentInstrument: o.PaymentInstrument,
	}
}

// DiscountQuery asks for the best discount for a purchase. BankName and
// PaymentInstrument are filters only when non-nil; a nil filter matches every
// record, including records where the field itself is absent.
type DiscountQuery struct {
	AmountToPay       float64
	BankName          *string
	PaymentInstrument *string
}

// DiscountResult is the answer to a DiscountQuery. WinningOffer is nil when
// no stored offer yields a positive discount.
type DiscountResult struct {
	HighestDiscountAmount float64       `json:"highestDiscountAmount"`
	WinningOffer          *OfferSummary `json:"winningOffer"`
}

// IngestOffersRequest is the request body for ingesting a vendor payload.
// The payload itself is kept raw here and decoded by the vendor-feed package.
type IngestOffersRequest struct {
	OfferAPIResponse json.RawMessage `json:"offerApiResponse"`
}

// IngestOffersResponse reports how many records the payload yielded and how
// many of those were not already known from a prior ingestion.
type IngestOffersResponse struct {
	Message              string `json:"message"`
	NoOfOffersIdentified int    `json:"noOfOffersIdentified"`
	NoOfNewOffersCreated int    `json:"noOfNewOffersCreated"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
