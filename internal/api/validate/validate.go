package validate

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	emailRe         = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	accountNumberRe = regexp.MustCompile(`^[12]\d{9}$`)
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string {
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func Email(field, value string) *ErrField {
	if !emailRe.MatchString(value) {
		return &ErrField{Field: field, Msg: "must be a valid email address"}
	}
	return nil
}

func AccountNumber(field, value string) *ErrField {
	if !accountNumberRe.MatchString(value) {
		return &ErrField{Field: field, Msg: "must be a 10-digit account number"}
	}
	return nil
}

// Amount accepts JSON numbers and strings so clients can send exact decimals.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

func PositiveAmount(field string, a Amount) *ErrField {
	if !a.Decimal.IsPositive() {
		return &ErrField{Field: field, Msg: "must be a positive amount"}
	}
	if a.Decimal.Exponent() < -2 {
		return &ErrField{Field: field, Msg: "must have at most 2 decimal places"}
	}
	return nil
}
