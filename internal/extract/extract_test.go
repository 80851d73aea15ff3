package extract

import (
	"testing"

	"payment-offers-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestFromText_Percent(t *testing.T) {
	f := FromText("Get 10% off on HDFC Credit Cards", "10% Instant Discount", nil)

	if f.Percent == nil {
		t.Fatal("Expected percent to be extracted")
	}
	if *f.Percent != 0.10 {
		t.Errorf("Expected percent 0.10, got %v", *f.Percent)
	}
}

func TestFromText_PercentAbsent(t *testing.T) {
	f := FromText("Flat ₹500 off on orders", "Save 500", nil)

	if f.Percent != nil {
		t.Errorf("Expected nil percent, got %v", *f.Percent)
	}
}

func TestFromText_MaxDiscountCap(t *testing.T) {
	cases := []struct {
		name string
		text string
		want float64
	}{
		{"up to", "10% off up to ₹1,000 on credit cards", 1000},
		{"upto", "5% cashback upto ₹750", 750},
		{"max discount", "10% off. Max discount ₹300", 300},
		{"max dot", "10% off, Max. discount ₹2,500", 2500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := FromText(tc.text, "", nil)
			if f.MaxDiscountCap == nil {
				t.Fatal("Expected max discount cap to be extracted")
			}
			if *f.MaxDiscountCap != tc.want {
				t.Errorf("Expected cap %v, got %v", tc.want, *f.MaxDiscountCap)
			}
		})
	}
}

func TestFromText_MinOrderValue(t *testing.T) {
	cases := []struct {
		name string
		text string
		want float64
	}{
		{"min order value", "10% off. Min Order Value ₹4,999", 4999},
		{"min txn value", "Flat ₹100 off. Min. Txn Value: ₹500", 500},
		{"minimum", "Minimum Value ₹1,000 required", 1000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := FromText(tc.text, "", nil)
			if f.MinOrderValue == nil {
				t.Fatal("Expected min order value to be extracted")
			}
			if *f.MinOrderValue != tc.want {
				t.Errorf("Expected min order %v, got %v", tc.want, *f.MinOrderValue)
			}
		})
	}
}

func TestFromText_NoCostEMI_FromDescription(t *testing.T) {
	f := FromText("No Cost EMI on Bajaj Finserv", "EMI offer", nil)

	if !f.NoCostEMI {
		t.Error("Expected NoCostEMI to be true from description")
	}
}

func TestFromText_NoCostEMI_FromTitle(t *testing.T) {
	f := FromText("Pay in 6 installments", "No Cost EMI available", nil)

	if !f.NoCostEMI {
		t.Error("Expected NoCostEMI to be true from title")
	}
}

func TestFromText_NoCostEMI_FromInstrument(t *testing.T) {
	f := FromText("Zero interest on 3 month plans", "Save more", strPtr(models.InstrumentNoCostEMI))

	if !f.NoCostEMI {
		t.Error("Expected NoCostEMI to be true from classified instrument")
	}
}

func TestFromText_FeeWaiver(t *testing.T) {
	f := FromText("No Cost EMI: interest of ₹1,200 waived", "", nil)

	if !f.NoCostEMI {
		t.Fatal("Expected NoCostEMI to be true")
	}
	if f.FeeWaiverAmount == nil {
		t.Fatal("Expected fee waiver amount to be extracted")
	}
	if *f.FeeWaiverAmount != 1200 {
		t.Errorf("Expected waiver 1200, got %v", *f.FeeWaiverAmount)
	}
}

func TestFromText_FeeWaiver_ProcessingFee(t *testing.T) {
	f := FromText("No Cost EMI with processing fee ₹199 waived off", "", nil)

	if f.FeeWaiverAmount == nil {
		t.Fatal("Expected fee waiver amount to be extracted")
	}
	if *f.FeeWaiverAmount != 199 {
		t.Errorf("Expected waiver 199, got %v", *f.FeeWaiverAmount)
	}
}

func TestFromText_FeeWaiver_IgnoredWithoutNoCostEMI(t *testing.T) {
	// fee/interest phrasing on a regular offer is not a waiver benefit
	f := FromText("10% off. Zero processing fee ₹99 on loans", "Save now", nil)

	if f.NoCostEMI {
		t.Error("Expected NoCostEMI to be false")
	}
	if f.FeeWaiverAmount != nil {
		t.Errorf("Expected nil fee waiver, got %v", *f.FeeWaiverAmount)
	}
}

func TestFromText_AllAbsent(t *testing.T) {
	f := FromText("Special offer for you", "Great deal", nil)

	if f.Percent != nil || f.MaxDiscountCap != nil || f.MinOrderValue != nil || f.FeeWaiverAmount != nil {
		t.Error("Expected all numeric facts to be nil for plain text")
	}
	if f.NoCostEMI {
		t.Error("Expected NoCostEMI to be false")
	}
}

func TestFromText_CombinedOffer(t *testing.T) {
	f := FromText("10% Instant Discount up to ₹1,000 on HDFC Credit Cards, Min Order Value ₹4,999", "10% off", nil)

	if f.Percent == nil || *f.Percent != 0.10 {
		t.Errorf("Expected percent 0.10, got %v", f.Percent)
	}
	if f.MaxDiscountCap == nil || *f.MaxDiscountCap != 1000 {
		t.Errorf("Expected cap 1000, got %v", f.MaxDiscountCap)
	}
	if f.MinOrderValue == nil || *f.MinOrderValue != 4999 {
		t.Errorf("Expected min order 4999, got %v", f.MinOrderValue)
	}
}
