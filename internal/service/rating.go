package service

import (
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"
)

// lockProduct 事务开头锁定商品行，先于任何评论写入
// 写评论会对商品行加外键共享锁，晚于写入再加排他锁会互相死锁
func lockProduct(products repository.ProductRepository, productID uint) (*models.Product, error) {
	product, err := products.GetByIDForUpdate(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// RecalculateRating 按商品全部评论重新计算评分并写回
// 评论的新增、改分、删除都必须在同一事务内、lockProduct 之后调用；这是 rating 字段唯一的写入口
func RecalculateRating(comments repository.CommentRepository, products repository.ProductRepository, productID uint) (models.Rating, error) {
	aggregate, err := comments.SumRatesByProduct(productID)
	if err != nil {
		return models.ZeroRating(), err
	}
	rating := models.MeanRating(aggregate.Total, aggregate.Count)
	if err := products.UpdateRating(productID, rating); err != nil {
		return models.ZeroRating(), err
	}
	logger.Debugw("product_rating_recalculated",
		"product_id", productID,
		"comments", aggregate.Count,
		"rating", rating.String(),
	)
	return rating, nil
}
