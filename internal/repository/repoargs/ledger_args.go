package repoargs

import "github.com/bizforge/grantpay/internal/domain"

// CreditEntryCreate параметры записи аудита. Знак Amount обязан соответствовать Type:
// purchase >= 0, use <= 0.
type CreditEntryCreate struct {
	AccountID   int64
	Type        domain.EntryType
	Amount      int64
	Description string
	PaymentID   *int64
	RequestID   *int64
	DocumentID  *int64
}
