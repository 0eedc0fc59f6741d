package publish

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

const etherDecimals = 18

var weiPerEther = uint256.NewInt(1_000_000_000_000_000_000)

// ParseEther converts a decimal ether amount such as "10" or "0.25" to wei.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty ether amount")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("negative ether amount: %s", s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if !isDigits(whole) || !isDigits(frac) || whole+frac == "" {
		return nil, fmt.Errorf("parse ether amount %s: invalid syntax", s)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > etherDecimals {
		return nil, fmt.Errorf("ether amount %s has more than %d decimals", s, etherDecimals)
	}

	w, err := uint256.FromDecimal(whole)
	if err != nil {
		return nil, fmt.Errorf("parse ether amount %s: %w", s, err)
	}
	out, overflow := new(uint256.Int).MulOverflow(w, weiPerEther)
	if overflow {
		return nil, fmt.Errorf("ether amount %s overflows uint256", s)
	}
	if frac != "" {
		f, err := uint256.FromDecimal(frac + strings.Repeat("0", etherDecimals-len(frac)))
		if err != nil {
			return nil, fmt.Errorf("parse ether amount %s: %w", s, err)
		}
		if _, overflow := out.AddOverflow(out, f); overflow {
			return nil, fmt.Errorf("ether amount %s overflows uint256", s)
		}
	}
	return out.ToBig(), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatEther renders wei in ether units keeping at least one fractional
// digit, so 10 ether is "10.0".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}
	sign := ""
	v := new(big.Int).Set(wei)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return sign + v.String() + " wei"
	}
	var whole, rem uint256.Int
	whole.DivMod(u, weiPerEther, &rem)
	digits := rem.Dec()
	frac := strings.TrimRight(strings.Repeat("0", etherDecimals-len(digits))+digits, "0")
	if frac == "" {
		frac = "0"
	}
	return sign + whole.Dec() + "." + frac
}
