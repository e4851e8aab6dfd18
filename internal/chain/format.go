package chain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// ErrInvalidAmount is returned by ParseETH for malformed or fractional-wei input.
var ErrInvalidAmount = errors.New("chain: invalid ETH amount")

var weiPerETH = big.NewInt(params.Ether)

// WeiToETH formats wei as a decimal ETH string without trailing zeros.
func WeiToETH(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	sign := ""
	abs := new(big.Int).Abs(wei)
	if wei.Sign() < 0 {
		sign = "-"
	}
	q, r := new(big.Int).QuoRem(abs, weiPerETH, new(big.Int))
	if r.Sign() == 0 {
		return sign + q.String()
	}
	frac := strings.TrimRight(fmt.Sprintf("%018s", r.String()), "0")
	return sign + q.String() + "." + frac
}

// ParseETH converts a decimal ETH string ("1", "0.5", "1e-3") to wei.
func ParseETH(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	r.Mul(r, new(big.Rat).SetInt(weiPerETH))
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: %q has more than 18 decimals", ErrInvalidAmount, s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// ParseGwei converts a decimal gwei string to wei.
func ParseGwei(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	r.Mul(r, new(big.Rat).SetInt64(params.GWei))
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: %q is below 1 wei", ErrInvalidAmount, s)
	}
	return new(big.Int).Set(r.Num()), nil
}
