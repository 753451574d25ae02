package shared

import (
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

const accountContextKey = "account"

// SetAccount 将已认证账号写入请求上下文
func SetAccount(c *gin.Context, account service.Account) {
	if c == nil || account == nil {
		return
	}
	c.Set(accountContextKey, account)
	c.Set("user_id", service.AccountID(account))
	c.Set("role", account.Role())
}

// CurrentAccount 读取当前账号；匿名访问返回 nil
func CurrentAccount(c *gin.Context) service.Account {
	if c == nil {
		return nil
	}
	value, exists := c.Get(accountContextKey)
	if !exists {
		return nil
	}
	account, ok := value.(service.Account)
	if !ok {
		return nil
	}
	return account
}

// RequireAccount 读取当前账号，未登录时直接返回 401
func RequireAccount(c *gin.Context) (service.Account, bool) {
	account := CurrentAccount(c)
	if account == nil {
		response.Unauthorized(c, "authentication required")
		return nil, false
	}
	return account, true
}
