package stripe

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// 无小数位币种，金额直接以主单位传给网关
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true,
	"jpy": true, "kmf": true, "krw": true, "mga": true,
	"pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

func currencyExponent(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToLower(strings.TrimSpace(currency))] {
		return 0
	}
	return 2
}

// ToMinorAmount 主单位金额转换为最小货币单位，例如 usd 19.99 -> 1999
func ToMinorAmount(amount decimal.Decimal, currency string) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	minor := amount.Shift(currencyExponent(currency))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: amount precision is invalid", ErrConfigInvalid)
	}
	return minor.IntPart(), nil
}

// FromMinorAmount 最小货币单位转换为主单位字符串，保留币种精度
func FromMinorAmount(minor int64, currency string) string {
	exp := currencyExponent(currency)
	return decimal.New(minor, -exp).StringFixed(exp)
}
