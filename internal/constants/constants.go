package constants

// 账号角色常量
const (
	RoleAdmin    = "admin"
	RoleSeller   = "seller"
	RoleCustomer = "customer"
)

// 账号状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Token 类型常量
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// 结算会话状态常量
const (
	CheckoutStatusInitiated        = "initiated"
	CheckoutStatusSessionCreated   = "session_created"
	CheckoutStatusFailed           = "failed"
	CheckoutStatusPaymentSucceeded = "payment_succeeded"
	CheckoutStatusPaymentFailed    = "payment_failed"
)

// 支付网关事件类型
const (
	EventPaymentIntentSucceeded     = "payment_intent.succeeded"
	EventPaymentIntentPaymentFailed = "payment_intent.payment_failed"
	EventPaymentIntentCanceled      = "payment_intent.canceled"
	EventPaymentMethodAttached      = "payment_method.attached"
	EventCheckoutSessionCompleted   = "checkout.session.completed"
	EventCheckoutSessionExpired     = "checkout.session.expired"
)

// 支付事件处理结果
const (
	PaymentEventStatusReceived  = "received"
	PaymentEventStatusProcessed = "processed"
	PaymentEventStatusIgnored   = "ignored"
)

// 商品排序方向
const (
	SortLowToHigh = "low_to_high"
	SortHighToLow = "high_to_low"
)

// DefaultCurrency 默认结算币种
const DefaultCurrency = "usd"

// 队列与任务
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskCheckoutPaymentEvent = "checkout:payment_event"
)
