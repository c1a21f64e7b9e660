package service

import "github.com/shopspring/decimal"

// discountedAmount итоговая сумма к оплате: max(0, price - discount). Скидка больше цены
// не уводит сумму в минус.
func discountedAmount(price, discount decimal.Decimal) decimal.Decimal {
	amount := price.Sub(discount)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
