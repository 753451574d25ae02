package models

import "time"

// Basket 顾客购物篮（每个顾客唯一，注册时创建）
type Basket struct {
	ID         uint      `gorm:"primarykey" json:"id"`                    // 主键
	CustomerID uint      `gorm:"uniqueIndex;not null" json:"customer_id"` // 顾客ID
	CreatedAt  time.Time `json:"created_at"`                              // 创建时间

	Items []BasketItem `gorm:"foreignKey:BasketID" json:"items,omitempty"`
}

// TableName 指定表名
func (Basket) TableName() string {
	return "baskets"
}

// BasketItem 购物篮行项目，(basket_id, product_id) 唯一
type BasketItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                         // 主键
	BasketID  uint      `gorm:"not null;uniqueIndex:idx_basket_items_basket_product" json:"basket_id"`        // 购物篮ID
	ProductID uint      `gorm:"not null;uniqueIndex:idx_basket_items_basket_product;index" json:"product_id"` // 商品ID
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`                                           // 数量
	CreatedAt time.Time `json:"created_at"`                                                                   // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                                                   // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (BasketItem) TableName() string {
	return "basket_items"
}
