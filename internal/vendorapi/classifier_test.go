package vendorapi

import (
	"testing"

	"payment-offers-api/internal/models"
)

// structuredPayload nests FPO100 under an EMI_OPTIONS payment option and
// leaves FPO200 only in the offer list.
const structuredPayload = `{
	"items": [
		{
			"type": "PAYMENT_OPTION",
			"data": {
				"instrumentType": "EMI_OPTIONS",
				"content": {
					"options": [
						{
							"provider": ["BAJAJ"],
							"aggregatedOffer": {
								"callout": {
									"content": {
										"information": {
											"offers": [
												{"offerFooter": {"tncInfo": {"id": "FPO100"}}}
											]
										}
									}
								}
							}
						}
					]
				}
			}
		},
		{
			"type": "OFFER_LIST",
			"data": {
				"offers": {
					"offerList": [
						{
							"offerText": {"text": "EMI offer"},
							"offerDescription": {"id": "FPO100", "text": "Pay later with credit card"},
							"provider": []
						},
						{
							"offerText": {"text": "Wallet offer"},
							"offerDescription": {"id": "FPO200", "text": "Extra cashback on prepaid balance"},
							"provider": []
						}
					]
				}
			}
		}
	]
}`

func TestClassifyInstruments_StructuredPassWins(t *testing.T) {
	p, err := Parse([]byte(structuredPayload))
	if err != nil {
		t.Fatalf("Failed to parse payload: %v", err)
	}

	instruments := ClassifyInstruments(p)

	// FPO100 mentions "credit card" in its text but the structured placement
	// under EMI_OPTIONS is authoritative.
	if got := instruments["FPO100"]; got != models.InstrumentEMI {
		t.Errorf("Expected FPO100 -> EMI_OPTIONS, got %q", got)
	}

	if _, ok := instruments["FPO200"]; ok {
		t.Errorf("Expected FPO200 to stay unclassified, got %q", instruments["FPO200"])
	}
}

func TestClassifyInstruments_ProviderOverlap(t *testing.T) {
	payload := `{
		"items": [
			{
				"type": "PAYMENT_OPTION",
				"data": {
					"instrumentType": "NET_OPTIONS",
					"content": {
						"options": [
							{"provider": ["YES", "FEDERAL"]}
						]
					}
				}
			},
			{
				"type": "OFFER_LIST",
				"data": {
					"offers": {
						"offerList": [
							{
								"offerText": {"text": "Bank days offer"},
								"offerDescription": {"id": "FPO300", "text": "Extra savings this week"},
								"provider": ["FEDERAL"]
							}
						]
					}
				}
			}
		]
	}`

	p, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Failed to parse payload: %v", err)
	}

	instruments := ClassifyInstruments(p)
	if got := instruments["FPO300"]; got != models.InstrumentNetBanking {
		t.Errorf("Expected FPO300 -> NET_OPTIONS via provider overlap, got %q", got)
	}
}

func TestKeywordInstrument_PriorityOrder(t *testing.T) {
	cases := []struct {
		name        string
		description string
		title       string
		providers   []string
		want        string
	}{
		{
			// "no cost emi" must not fall through to plain EMI
			name:        "no cost emi beats emi",
			description: "No Cost EMI on select credit cards",
			want:        models.InstrumentNoCostEMI,
		},
		{
			// "emi" beats "credit card" appearing in the same sentence
			name:        "emi beats credit card",
			description: "EMI on HDFC Credit Card transactions",
			want:        models.InstrumentEMI,
		},
		{
			name:        "credit card keyword",
			description: "5% off with Axis Credit Card",
			want:        models.InstrumentCredit,
		},
		{
			name:      "card issuing bank provider",
			providers: []string{"FLIPKARTAXISBANK"},
			title:     "Extra 5% off",
			want:      models.InstrumentCredit,
		},
		{
			name:        "debit card keyword",
			description: "Flat ₹50 off on Debit Card payments",
			want:        models.InstrumentDebit,
		},
		{
			name:  "upi keyword in title",
			title: "₹25 off on UPI",
			want:  models.InstrumentUPI,
		},
		{
			name:        "net banking keyword",
			description: "10% off via Net Banking",
			want:        models.InstrumentNetBanking,
		},
		{
			name:        "no signal",
			description: "Great savings for everyone",
			title:       "Deal of the day",
			want:        "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := keywordInstrument(tc.description, tc.title, tc.providers)
			if got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClassifyInstruments_KeywordFallback(t *testing.T) {
	payload := `{
		"items": [
			{
				"type": "OFFER_LIST",
				"data": {
					"offers": {
						"offerList": [
							{
								"offerText": {"text": "UPI offer"},
								"offerDescription": {"id": "FPO400", "text": "Flat ₹25 off on UPI payments"},
								"provider": []
							}
						]
					}
				}
			}
		]
	}`

	p, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Failed to parse payload: %v", err)
	}

	instruments := ClassifyInstruments(p)
	if got := instruments["FPO400"]; got != models.InstrumentUPI {
		t.Errorf("Expected FPO400 -> UPI, got %q", got)
	}
}
