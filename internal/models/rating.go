package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

const ratingScale = 2

// Rating 商品评分（保留 2 位小数，范围 0.00 ~ 5.00）
type Rating struct {
	decimal.Decimal
}

// NewRating 从 decimal 创建评分并统一精度
func NewRating(value decimal.Decimal) Rating {
	return Rating{Decimal: value.Round(ratingScale)}
}

// ZeroRating 无评论时的评分
func ZeroRating() Rating {
	return Rating{Decimal: decimal.Zero}
}

// MeanRating 计算评分平均值并保留 2 位小数；count 为 0 时返回 0.00
func MeanRating(sum, count int64) Rating {
	if count <= 0 {
		return ZeroRating()
	}
	return NewRating(decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)))
}

// MarshalJSON 统一输出 2 位小数的字符串
func (r Rating) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON 解析评分（字符串或数字）
func (r *Rating) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		r.Decimal = decimal.Zero
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		r.Decimal = d.Round(ratingScale)
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	r.Decimal = d.Round(ratingScale)
	return nil
}

// Value 用于数据库写入
func (r Rating) Value() (driver.Value, error) {
	return r.Decimal.Round(ratingScale).Value()
}

// Scan 用于数据库读取
func (r *Rating) Scan(value interface{}) error {
	if value == nil {
		r.Decimal = decimal.Zero
		return nil
	}
	if err := r.Decimal.Scan(value); err != nil {
		return err
	}
	r.Decimal = r.Decimal.Round(ratingScale)
	return nil
}

// String 返回 2 位小数格式
func (r Rating) String() string {
	return r.Decimal.Round(ratingScale).StringFixed(ratingScale)
}
