package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ZeroDenominatorPolicy selects what NormalizeQuantities does with a/0.
type ZeroDenominatorPolicy int

const (
	// FailOnZeroDenominator reports ErrInvalidNumericLiteral.
	FailOnZeroDenominator ZeroDenominatorPolicy = iota
	// ZeroOnDegenerate rewrites the quantity to 0.
	ZeroOnDegenerate
)

var (
	fractionPattern     = regexp.MustCompile(`"quantity"\s*:\s*(?:"\s*((?:\d+\s+)?\d+\s*/\s*\d+)\s*"|((?:\d+\s+)?\d+\s*/\s*\d+))`)
	fractionParts       = regexp.MustCompile(`^(?:(\d+)\s+)?(\d+)\s*/\s*(\d+)$`)
	quotedNumberPattern = regexp.MustCompile(`"quantity"\s*:\s*"\s*(\d+(?:\.\d+)?)\s*"`)
)

// NormalizeQuantities rewrites fractional quantity literals such as
// "quantity": 1/2 or "quantity": "1 1/2" into decimals rounded to two places,
// and unquotes plain quoted numbers.
func NormalizeQuantities(text string, policy ZeroDenominatorPolicy) (string, error) {
	var firstErr error
	out := fractionPattern.ReplaceAllStringFunc(text, func(match string) string {
		m := fractionPattern.FindStringSubmatch(match)
		literal := m[1]
		if literal == "" {
			literal = m[2]
		}
		parts := fractionParts.FindStringSubmatch(literal)
		whole, num, den := parts[1], parts[2], parts[3]

		value, err := fractionValue(whole, num, den)
		if err != nil {
			if policy == ZeroOnDegenerate {
				return `"quantity": 0`
			}
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		return `"quantity": ` + strconv.FormatFloat(value, 'f', -1, 64)
	})
	if firstErr != nil {
		return "", newError(ErrInvalidNumericLiteral, text, firstErr)
	}

	return quotedNumberPattern.ReplaceAllString(out, `"quantity": $1`), nil
}

func fractionValue(whole, num, den string) (float64, error) {
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator in %s/%s", num, den)
	}

	value := n / d
	if whole != "" {
		w, err := strconv.ParseFloat(whole, 64)
		if err != nil {
			return 0, err
		}
		value += w
	}
	return roundTo(value, 2), nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
