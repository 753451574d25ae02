package models

import "time"

// Rate 评分记录（1~5），与评论一一对应
type Rate struct {
	ID    uint `gorm:"primarykey" json:"id"`
	Value int  `gorm:"not null" json:"value"`
}

// TableName 指定表名
func (Rate) TableName() string {
	return "rates"
}

// Comment 商品评论
type Comment struct {
	ID        uint      `gorm:"primarykey" json:"id"`             // 主键
	Content   *string   `gorm:"type:text" json:"content"`         // 评论内容（可为空）
	RateID    uint      `gorm:"uniqueIndex;not null" json:"-"`    // 评分ID
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`  // 作者（顾客）ID
	ProductID uint      `gorm:"not null;index" json:"product_id"` // 商品ID
	CreatedAt time.Time `gorm:"index" json:"created_at"`          // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                       // 更新时间

	Rate *Rate `gorm:"foreignKey:RateID" json:"rate,omitempty"` // 评分
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}
