package converter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	decimalType    = reflect.TypeOf(decimal.Decimal{})
	bigIntType     = reflect.TypeOf(big.Int{})
	jsonNumberType = reflect.TypeOf(json.Number(""))
)

// convertNumber parses the original text of a number straight into dst,
// so no precision is lost through an intermediate float64.
func (c *Converter) convertNumber(raw []byte, dst reflect.Type) (reflect.Value, error) {
	text := string(raw)
	out := reflect.New(dst).Elem()

	switch dst {
	case decimalType:
		d, err := decimal.NewFromString(text)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parsing decimal %q: %w", text, err)
		}
		return reflect.ValueOf(d), nil
	case bigIntType:
		bi, err := integerOf(text, c.maxIntDigits)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(bi).Elem(), nil
	case jsonNumberType:
		return reflect.ValueOf(json.Number(text)), nil
	}

	switch {
	case hasCustomDecoding(dst):
		return c.decode(raw, dst)
	case isInt(dst):
		n, err := parseInt(text, dst.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(n)
	case isUint(dst):
		n, err := parseUint(text, dst.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(n)
	case isFloat(dst):
		f, err := strconv.ParseFloat(text, dst.Bits())
		if err != nil {
			return reflect.Value{}, numErr(text, dst, err)
		}
		out.SetFloat(f)
	case dst.Kind() == reflect.String:
		out.SetString(text)
	case dst.Kind() == reflect.Bool:
		switch text {
		case "0":
			out.SetBool(false)
		case "1":
			out.SetBool(true)
		default:
			return reflect.Value{}, fmt.Errorf("%w: %s to %s", ErrIncompatible, text, dst)
		}
	default:
		return c.decode(raw, dst)
	}
	return out, nil
}

// intDigits is an upper bound of the decimal digits of a bits-wide integer.
func intDigits(bits int) int { return bits*30103/100000 + 1 }

func parseInt(text string, bits int) (int64, error) {
	n, err := strconv.ParseInt(text, 10, bits)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, strconv.ErrSyntax) {
		return 0, fmt.Errorf("%w: %s does not fit int%d", ErrOverflow, text, bits)
	}
	// 1e3, 2.0 and friends are integers too
	bi, err := integerOf(text, intDigits(bits))
	if err != nil {
		return 0, err
	}
	n, err = strconv.ParseInt(bi.String(), 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s does not fit int%d", ErrOverflow, text, bits)
	}
	return n, nil
}

func parseUint(text string, bits int) (uint64, error) {
	n, err := strconv.ParseUint(text, 10, bits)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, strconv.ErrSyntax) {
		return 0, fmt.Errorf("%w: %s does not fit uint%d", ErrOverflow, text, bits)
	}
	bi, err := integerOf(text, intDigits(bits))
	if err != nil {
		return 0, err
	}
	n, err = strconv.ParseUint(bi.String(), 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s does not fit uint%d", ErrOverflow, text, bits)
	}
	return n, nil
}

// integerOf parses text as an integer of at most maxDigits decimal digits,
// 0 means no limit. Digits are estimated from the coefficient bit length
// before anything is expanded: 1e999999999 fails without building 10^N and
// a coefficient over twice the limit fails before the fraction is checked.
func integerOf(text string, maxDigits int) (*big.Int, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("parsing number %q: %w", text, err)
	}
	if d.IsZero() {
		return new(big.Int), nil
	}
	if maxDigits > 0 {
		coef := minDigits(d.Coefficient().BitLen())
		if coef > 2*int64(maxDigits) || coef+int64(d.Exponent()) > int64(maxDigits) {
			return nil, fmt.Errorf("%w: %s has more than %d digits", ErrOverflow, text, maxDigits)
		}
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("%w: %s is not an integer", ErrIncompatible, text)
	}
	return d.BigInt(), nil
}

// minDigits is a lower bound of the decimal digits of a nonzero number of
// the given bit length.
func minDigits(bitLen int) int64 {
	return int64(bitLen-1)*30103/100000 + 1
}

func numErr(text string, dst reflect.Type, err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("%w: %s does not fit %s", ErrOverflow, text, dst)
	}
	return fmt.Errorf("parsing %q as %s: %w", text, dst, err)
}

func isInt(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(t reflect.Type) bool {
	return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
}
