package repository

// ProductListFilter 查询商品列表的过滤条件（各条件之间为 AND）
type ProductListFilter struct {
	Page         int
	PageSize     int
	CategoryName string // 分类名精确匹配
	CategoryID   uint
	SellerID     uint
	MaxPrice     *int64 // price <= MaxPrice
	PriceOrder   string // low_to_high / high_to_low
	RatingOrder  string // low_to_high / high_to_low，优先级高于 PriceOrder
	Search       string
	WithCategory bool
}

// UserListFilter 查询账号列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Role     string
	Status   string
	Keyword  string
}

// CommentListFilter 查询评论列表的过滤条件
type CommentListFilter struct {
	Page      int
	PageSize  int
	ProductID uint
	AuthorID  uint
}

// BasketItemListFilter 查询购物篮行项目的过滤条件（管理端）
type BasketItemListFilter struct {
	Page      int
	PageSize  int
	BasketID  uint
	ProductID uint
}

// CheckoutSessionListFilter 查询结算会话的过滤条件
type CheckoutSessionListFilter struct {
	Page       int
	PageSize   int
	Status     string
	ProductID  uint
	CustomerID uint
}

// PaymentEventListFilter 查询支付事件的过滤条件
type PaymentEventListFilter struct {
	Page      int
	PageSize  int
	EventType string
	Status    string
}
