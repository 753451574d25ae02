package service

import (
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"gorm.io/gorm"
)

// BasketService 购物篮服务
type BasketService struct {
	repo        repository.BasketRepository
	productRepo repository.ProductRepository
}

// NewBasketService 创建购物篮服务
func NewBasketService(repo repository.BasketRepository, productRepo repository.ProductRepository) *BasketService {
	return &BasketService{repo: repo, productRepo: productRepo}
}

// BasketDetail 购物篮详情
type BasketDetail struct {
	BasketID   uint                `json:"basket_id"`
	CustomerID uint                `json:"customer_id"`
	Items      []models.BasketItem `json:"items"`
}

// AddProduct 把商品加入顾客购物篮；已存在则数量 +1
// 购物篮不存在时返回 NotFound，不会在此处补建
func (s *BasketService) AddProduct(actor Account, customerID, productID uint) (*models.BasketItem, error) {
	if !canActOn(actor, customerID) {
		return nil, ErrPermissionDenied
	}
	basket, err := s.requireBasket(customerID)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	var item *models.BasketItem
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = s.repo.WithTx(tx).AddProduct(basket.ID, product.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	item.Product = product
	logger.Debugw("basket_product_added",
		"basket_id", basket.ID,
		"product_id", product.ID,
		"quantity", item.Quantity,
	)
	return item, nil
}

// ListItems 获取顾客购物篮行项目
func (s *BasketService) ListItems(actor Account, customerID uint) (*BasketDetail, error) {
	if !canActOn(actor, customerID) {
		return nil, ErrPermissionDenied
	}
	basket, err := s.requireBasket(customerID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(basket.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.BasketItem{}
	}
	return &BasketDetail{BasketID: basket.ID, CustomerID: basket.CustomerID, Items: items}, nil
}

// RemoveItem 删除行项目；重复删除返回 NotFound
// 非管理员删除他人购物篮中的行项目同样返回 NotFound
func (s *BasketService) RemoveItem(actor Account, itemID uint) error {
	if actor == nil {
		return ErrPermissionDenied
	}
	item, err := s.repo.GetItemByID(itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrBasketItemNotFound
	}
	if !IsAdmin(actor) {
		basket, err := s.repo.GetByID(item.BasketID)
		if err != nil {
			return err
		}
		if basket == nil || basket.CustomerID != AccountID(actor) {
			return ErrBasketItemNotFound
		}
	}
	return s.deleteItem(itemID)
}

// ListBaskets 管理端购物篮列表
func (s *BasketService) ListBaskets(page, pageSize int) ([]models.Basket, int64, error) {
	return s.repo.List(page, pageSize)
}

// GetBasket 管理端购物篮详情
func (s *BasketService) GetBasket(id uint) (*BasketDetail, error) {
	basket, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if basket == nil {
		return nil, ErrBasketNotFound
	}
	items, err := s.repo.ListItems(basket.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.BasketItem{}
	}
	return &BasketDetail{BasketID: basket.ID, CustomerID: basket.CustomerID, Items: items}, nil
}

// ListAllItems 管理端行项目列表
func (s *BasketService) ListAllItems(filter repository.BasketItemListFilter) ([]models.BasketItem, int64, error) {
	return s.repo.ListAllItems(filter)
}

// UpdateItemQuantity 管理端修改行项目数量
func (s *BasketService) UpdateItemQuantity(itemID uint, quantity int) (*models.BasketItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	affected, err := s.repo.UpdateItemQuantity(itemID, quantity)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrBasketItemNotFound
	}
	item, err := s.repo.GetItemByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrBasketItemNotFound
	}
	return item, nil
}

// AdminDeleteItem 管理端删除行项目
func (s *BasketService) AdminDeleteItem(itemID uint) error {
	return s.deleteItem(itemID)
}

func (s *BasketService) deleteItem(itemID uint) error {
	affected, err := s.repo.DeleteItem(itemID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBasketItemNotFound
	}
	return nil
}

func (s *BasketService) requireBasket(customerID uint) (*models.Basket, error) {
	basket, err := s.repo.GetByCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	if basket == nil {
		return nil, ErrBasketNotFound
	}
	return basket, nil
}
