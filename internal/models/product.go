package models

import "time"

// Product 商品表
type Product struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                     // 主键
	Name        string    `gorm:"type:varchar(200);not null" json:"name"`                   // 商品名称
	Description string    `gorm:"type:text" json:"description"`                             // 商品描述
	Price       int64     `gorm:"not null;default:0;index" json:"price"`                    // 价格（整数，结算时乘以 100 转为最小货币单位）
	SellerID    uint      `gorm:"not null;index" json:"seller_id"`                          // 卖家ID
	CategoryID  uint      `gorm:"not null;index" json:"category_id"`                        // 分类ID
	Rating      Rating    `gorm:"type:decimal(4,2);not null;default:0;index" json:"rating"` // 评分，仅由评论重新计算写入
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                               // 更新时间

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
