package repository

import (
	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository 评论与评分数据访问接口
type CommentRepository interface {
	Create(comment *models.Comment, rateValue int) error
	GetByID(id uint) (*models.Comment, error)
	List(filter CommentListFilter) ([]models.Comment, int64, error)
	UpdateContent(comment *models.Comment) error
	UpdateRateValue(rateID uint, value int) error
	Delete(comment *models.Comment) error
	DeleteByAuthor(authorID uint) ([]uint, error)
	ProductIDsByAuthor(authorID uint) ([]uint, error)
	SumRatesByProduct(productID uint) (RateAggregate, error)
	WithTx(tx *gorm.DB) *GormCommentRepository
}

// RateAggregate 商品评分聚合结果
type RateAggregate struct {
	Total int64 `gorm:"column:rate_total"`
	Count int64 `gorm:"column:rate_count"`
}

// GormCommentRepository GORM 实现
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository 创建评论仓库
func NewCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommentRepository) WithTx(tx *gorm.DB) *GormCommentRepository {
	if tx == nil {
		return r
	}
	return &GormCommentRepository{db: tx}
}

// Create 先写评分再写评论
func (r *GormCommentRepository) Create(comment *models.Comment, rateValue int) error {
	if comment == nil {
		return nil
	}
	rate := models.Rate{Value: rateValue}
	if err := r.db.Create(&rate).Error; err != nil {
		return err
	}
	comment.RateID = rate.ID
	comment.Rate = nil
	if err := r.db.Omit(clause.Associations).Create(comment).Error; err != nil {
		return err
	}
	comment.Rate = &rate
	return nil
}

// GetByID 根据 ID 获取评论
func (r *GormCommentRepository) GetByID(id uint) (*models.Comment, error) {
	return firstOrNil[models.Comment](r.db.Preload("Rate"), id)
}

// List 评论列表
func (r *GormCommentRepository) List(filter CommentListFilter) ([]models.Comment, int64, error) {
	query := r.db.Model(&models.Comment{}).Preload("Rate")
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.AuthorID != 0 {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	var comments []models.Comment
	total, err := countAndFind(query, filter.Page, filter.PageSize, "id ASC", &comments)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// UpdateContent 更新评论内容
func (r *GormCommentRepository) UpdateContent(comment *models.Comment) error {
	return r.db.Model(comment).Omit(clause.Associations).Update("content", comment.Content).Error
}

// UpdateRateValue 更新评分值
func (r *GormCommentRepository) UpdateRateValue(rateID uint, value int) error {
	return r.db.Model(&models.Rate{}).Where("id = ?", rateID).Update("value", value).Error
}

// Delete 删除评论及其评分
func (r *GormCommentRepository) Delete(comment *models.Comment) error {
	if comment == nil {
		return nil
	}
	if err := r.db.Delete(&models.Comment{}, comment.ID).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Rate{}, comment.RateID).Error
}

// DeleteByAuthor 删除作者的全部评论，返回受影响的商品 ID（去重）
func (r *GormCommentRepository) DeleteByAuthor(authorID uint) ([]uint, error) {
	var comments []models.Comment
	if err := r.db.Select("id", "rate_id", "product_id").Where("author_id = ?", authorID).Find(&comments).Error; err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, nil
	}
	commentIDs := make([]uint, 0, len(comments))
	rateIDs := make([]uint, 0, len(comments))
	seen := make(map[uint]struct{}, len(comments))
	productIDs := make([]uint, 0, len(comments))
	for _, comment := range comments {
		commentIDs = append(commentIDs, comment.ID)
		rateIDs = append(rateIDs, comment.RateID)
		if _, ok := seen[comment.ProductID]; ok {
			continue
		}
		seen[comment.ProductID] = struct{}{}
		productIDs = append(productIDs, comment.ProductID)
	}
	if err := r.db.Where("id IN ?", commentIDs).Delete(&models.Comment{}).Error; err != nil {
		return nil, err
	}
	if err := r.db.Where("id IN ?", rateIDs).Delete(&models.Rate{}).Error; err != nil {
		return nil, err
	}
	return productIDs, nil
}

// ProductIDsByAuthor 作者评论过的商品 ID，升序去重
func (r *GormCommentRepository) ProductIDsByAuthor(authorID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Comment{}).
		Where("author_id = ?", authorID).
		Distinct().
		Order("product_id ASC").
		Pluck("product_id", &ids).Error
	return ids, err
}

// SumRatesByProduct 统计商品全部评论的评分总和与数量
func (r *GormCommentRepository) SumRatesByProduct(productID uint) (RateAggregate, error) {
	var agg RateAggregate
	err := r.db.Table("comments").
		Select("COALESCE(SUM(rates.value), 0) AS rate_total, COUNT(rates.id) AS rate_count").
		Joins("JOIN rates ON rates.id = comments.rate_id").
		Where("comments.product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return RateAggregate{}, err
	}
	return agg, nil
}
