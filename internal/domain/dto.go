package domain

type PaymentStatusType string

const (
	PaymentStatusPending   PaymentStatusType = "pending"
	PaymentStatusCompleted PaymentStatusType = "completed"
	PaymentStatusFailed    PaymentStatusType = "failed"
	PaymentStatusCancelled PaymentStatusType = "cancelled"
)

// Terminal сообщает, допустим ли выход из данного статуса. Терминальные статусы финальны.
func (s PaymentStatusType) Terminal() bool {
	return s != PaymentStatusPending
}

type RequestStatusType string

const (
	RequestStatusPending  RequestStatusType = "pending"
	RequestStatusApproved RequestStatusType = "approved"
	RequestStatusRejected RequestStatusType = "rejected"
)

func (s RequestStatusType) Terminal() bool {
	return s != RequestStatusPending
}

type EntryType string

const (
	// EntryTypePurchase начисление кредитов, Amount >= 0.
	EntryTypePurchase EntryType = "purchase"
	// EntryTypeUse списание кредитов, Amount <= 0.
	EntryTypeUse EntryType = "use"
)

// GatewayConfirmation результат подтверждения платежа внешним шлюзом. Accepted=false
// означает явный отказ шлюза; транспортные ошибки до этой структуры не доходят.
type GatewayConfirmation struct {
	Accepted bool
	Method   string
	Raw      []byte
}

type CouponFailReason string

const (
	CouponReasonNotFound      CouponFailReason = "not_found"
	CouponReasonInactive      CouponFailReason = "inactive"
	CouponReasonExpired       CouponFailReason = "expired"
	CouponReasonExhaustedUses CouponFailReason = "exhausted_uses"
)
