package repository

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// caseInsensitiveLike postgres 的 LIKE 区分大小写，需改用 ILIKE；sqlite 的 LIKE 对 ASCII 本身不区分
func caseInsensitiveLike(db *gorm.DB) string {
	if db != nil && db.Dialector != nil && strings.HasPrefix(strings.ToLower(db.Dialector.Name()), "postgres") {
		return "ILIKE"
	}
	return "LIKE"
}

// containsPattern 把关键字转成子串匹配模式，用户输入中的通配符按字面匹配
func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

// keywordClause 生成 (col1 LIKE @kw ESCAPE '\' OR ...) 形式的条件
func keywordClause(operator string, columns []string) string {
	var b strings.Builder
	for _, column := range columns {
		column = strings.TrimSpace(column)
		if column == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" OR ")
		}
		b.WriteString(column + " " + operator + ` @kw ESCAPE '\'`)
	}
	if b.Len() == 0 {
		return ""
	}
	return "(" + b.String() + ")"
}

// applyKeyword 在查询上追加关键字模糊匹配，任一列命中即可
func applyKeyword(query *gorm.DB, keyword string, columns ...string) *gorm.DB {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return query
	}
	clause := keywordClause(caseInsensitiveLike(query), columns)
	if clause == "" {
		return query
	}
	return query.Where(clause, map[string]interface{}{"kw": containsPattern(keyword)})
}
