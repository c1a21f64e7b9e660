package repoargs

type RepositoryName string

const (
	AccountRepoName        RepositoryName = "account"
	CreditHistoryRepoName  RepositoryName = "credit_history"
	PaymentRepoName        RepositoryName = "payment"
	PaymentRequestRepoName RepositoryName = "payment_request"
	CouponRepoName         RepositoryName = "coupon"
)
