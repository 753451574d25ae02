package models

import "time"

// CheckoutSession 结算会话（一次结算尝试）
type CheckoutSession struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                   // 主键
	Reference        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"` // 本地引用号（传给网关的 client_reference_id）
	ProductID        uint      `gorm:"not null;index" json:"product_id"`                       // 商品ID
	CustomerID       *uint     `gorm:"index" json:"customer_id"`                               // 发起顾客（可为空）
	Quantity         int       `gorm:"not null;default:1" json:"quantity"`                     // 数量
	UnitAmount       int64     `gorm:"not null" json:"unit_amount"`                            // 单价（最小货币单位）
	Currency         string    `gorm:"type:varchar(10);not null" json:"currency"`              // 币种
	Status           string    `gorm:"type:varchar(32);not null;index" json:"status"`          // 状态
	GatewaySessionID string    `gorm:"type:varchar(255);index" json:"gateway_session_id"`      // 网关会话ID
	PaymentIntentID  string    `gorm:"type:varchar(255);index" json:"payment_intent_id"`       // 网关支付意图ID
	CheckoutURL      string    `gorm:"type:text" json:"checkout_url"`                          // 网关支付页面
	FailureReason    string    `gorm:"type:varchar(255)" json:"failure_reason"`                // 失败原因（已脱敏）
	CreatedAt        time.Time `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt        time.Time `json:"updated_at"`                                             // 更新时间
}

// TableName 指定表名
func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}

// PaymentEvent 网关 webhook 事件记录（按 event_id 幂等）
type PaymentEvent struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                   // 主键
	EventID         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"event_id"` // 网关事件ID
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`     // 事件类型
	SessionRef      string     `gorm:"type:varchar(255);index" json:"session_ref"`             // 关联网关会话ID / 本地引用号
	PaymentIntentID string     `gorm:"type:varchar(255)" json:"payment_intent_id"`             // 支付意图ID
	Status          string     `gorm:"type:varchar(32);not null;index" json:"status"`          // 处理状态
	Payload         string     `gorm:"type:text" json:"-"`                                     // 原始载荷
	ProcessedAt     *time.Time `json:"processed_at"`                                           // 处理时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                // 接收时间
}

// TableName 指定表名
func (PaymentEvent) TableName() string {
	return "payment_events"
}
