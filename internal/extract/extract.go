// Package extract pulls numeric facts out of free-text offer descriptions.
//
// The vendor never exposes discount mechanics as structured data; phrases
// like "10% off up to ₹1,000 on orders above ₹4,999" are all we get. Each
// fact is extracted by its own rule, independently of the others, and a rule
// that finds nothing leaves its field nil rather than zero.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"payment-offers-api/internal/models"
)

// Facts holds the discount mechanics reconstructed from an offer's text.
// Amounts are in display (major) currency units, i.e. rupees, not paise.
type Facts struct {
	Percent         *float64 // fractional, 0.10 for "10%"
	MaxDiscountCap  *float64
	MinOrderValue   *float64
	NoCostEMI       bool
	FeeWaiverAmount *float64 // only meaningful when NoCostEMI
}

var (
	percentRe = regexp.MustCompile(`(\d+)%`)
	// "Up to ₹1,000", "upto ₹500", "Max. discount ₹300"
	maxCapRe = regexp.MustCompile(`(?i)(?:up\s*to|upto|max(?:\.|imum)?(?:\s*discount)?)[^₹]*₹\s*([\d,]+)`)
	// "Min Order Value ₹4,999", "Min. Txn Value: ₹500"
	minOrderRe = regexp.MustCompile(`(?i)min(?:\.|imum)?(?:\s*(?:order|txn))?(?:\s*value)?:?\s*₹\s*([\d,]+)`)
	// "interest of ₹1,200 waived", "processing fee ₹199", "fee waiver of ₹99"
	feeWaiverRe = regexp.MustCompile(`(?i)(?:interest|processing\s*fee|fee\s*waiver)[^₹]*₹\s*([\d,]+)`)
)

// FromText extracts Facts from an offer's description and title. The
// classified payment instrument, when known, feeds the no-cost-EMI flag:
// an offer filed under the vendor's no-cost-EMI section is one even if the
// text never spells it out.
func FromText(description, title string, paymentInstrument *string) Facts {
	var f Facts

	text := description
	lowerDesc := strings.ToLower(description)
	lowerTitle := strings.ToLower(title)

	if m := percentRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			pct := float64(n) / 100
			f.Percent = &pct
		}
	}

	if v, ok := amount(maxCapRe, text); ok {
		f.MaxDiscountCap = &v
	}

	if v, ok := amount(minOrderRe, text); ok {
		f.MinOrderValue = &v
	}

	f.NoCostEMI = strings.Contains(lowerDesc, "no cost emi") ||
		strings.Contains(lowerTitle, "no cost emi") ||
		(paymentInstrument != nil && *paymentInstrument == models.InstrumentNoCostEMI)

	if f.NoCostEMI {
		if v, ok := amount(feeWaiverRe, text); ok {
			f.FeeWaiverAmount = &v
		}
	}

	return f
}

// amount applies re to text and parses the first captured currency amount,
// stripping comma thousands separators.
func amount(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(n), true
}
