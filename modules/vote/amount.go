package vote

import (
	"fmt"
	"strings"

	"poll-voter/modules/common"

	"github.com/holiman/uint256"
)

// EtherDecimals is the number of wei digits behind the decimal point.
const EtherDecimals = 18

// ParseStake converts a decimal ether amount ("0.05", "1", ".5") into wei.
// Negative, non-numeric, over-precise and out of range amounts are rejected
// with common.ErrInvalidAmount.
func ParseStake(amount string) (*uint256.Int, error) {
	s := strings.TrimSpace(amount)
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidAmount, amount)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("%w: %q is not a non-negative decimal", common.ErrInvalidAmount, amount)
	}
	if len(frac) > EtherDecimals {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", common.ErrInvalidAmount, amount, EtherDecimals)
	}

	digits := strings.TrimLeft(whole+frac+strings.Repeat("0", EtherDecimals-len(frac)), "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	wei, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", common.ErrInvalidAmount, amount, err)
	}
	return wei, nil
}

// FormatStake renders wei as a decimal ether amount without trailing zeros.
func FormatStake(wei *uint256.Int) string {
	if wei == nil {
		return "0"
	}
	dec := wei.Dec()
	if len(dec) <= EtherDecimals {
		dec = strings.Repeat("0", EtherDecimals-len(dec)+1) + dec
	}
	whole, frac := dec[:len(dec)-EtherDecimals], strings.TrimRight(dec[len(dec)-EtherDecimals:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
