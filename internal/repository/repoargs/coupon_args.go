package repoargs

// CouponRedeem параметры погашения купона: инкремент used_count плюс запись coupon_usages.
// Выполняется только внутри той же транзакции, что и сопутствующая мутация баланса/платежа.
type CouponRedeem struct {
	CouponID  int64
	AccountID int64
	Context   string
}
