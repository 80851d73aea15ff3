package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"payment-offers-api/internal/models"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ParseAmountToPay parses and validates the amountToPay query parameter.
func ParseAmountToPay(raw string) (float64, error) {
	if raw == "" {
		return 0, &ValidationError{
			Field:   "amountToPay",
			Message: "is required",
		}
	}

	amount, err := strconv.ParseFloat(SanitizeString(raw), 64)
	if err != nil {
		return 0, &ValidationError{
			Field:   "amountToPay",
			Message: "must be a number",
		}
	}

	if err := ValidateAmountToPay(amount); err != nil {
		return 0, err
	}

	return amount, nil
}

// ValidateAmountToPay rejects non-positive and non-finite amounts.
func ValidateAmountToPay(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return &ValidationError{
			Field:   "amountToPay",
			Message: "must be a finite number",
		}
	}
	if amount <= 0 {
		return &ValidationError{
			Field:   "amountToPay",
			Message: "must be positive",
		}
	}
	return nil
}

// MaxOrderValue is the vendor's single-order ceiling in rupees. Only enforced
// when strict amount validation is switched on.
const MaxOrderValue = 1000000

// ValidateAmountCeiling rejects amounts above the vendor's order ceiling.
func ValidateAmountCeiling(amount float64) error {
	if amount > MaxOrderValue {
		return &ValidationError{
			Field:   "amountToPay",
			Message: fmt.Sprintf("must not exceed %d", MaxOrderValue),
		}
	}
	return nil
}

// ValidateDiscountQuery validates a discount query before it reaches the
// resolver.
func ValidateDiscountQuery(q models.DiscountQuery) error {
	if err := ValidateAmountToPay(q.AmountToPay); err != nil {
		return err
	}
	if q.BankName != nil && *q.BankName == "" {
		return &ValidationError{
			Field:   "bankName",
			Message: "must be non-empty when provided",
		}
	}
	if q.PaymentInstrument != nil && *q.PaymentInstrument == "" {
		return &ValidationError{
			Field:   "paymentInstrument",
			Message: "must be non-empty when provided",
		}
	}
	return nil
}

// SanitizeString strips control characters and surrounding whitespace.
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

// OptionalString sanitizes a query parameter and returns nil when it is
// empty, so that an omitted parameter imposes no filter downstream.
func OptionalString(raw string) *string {
	s := SanitizeString(raw)
	if s == "" {
		return nil
	}
	return &s
}
