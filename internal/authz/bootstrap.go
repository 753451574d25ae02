package authz

import (
	"fmt"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: RoleAnonymous,
			Policies: []Policy{
				{Object: "/users/:role/register", Action: "POST"},
				{Object: "/users/login", Action: "POST"},
				{Object: "/users/token/refresh", Action: "POST"},
				{Object: "/users/sellers", Action: "GET"},
				{Object: "/users/sellers/:id", Action: "GET"},
				{Object: "/products/categories", Action: "GET"},
				{Object: "/products/list", Action: "GET"},
				{Object: "/products/filters", Action: "GET"},
				{Object: "/products/:id", Action: "GET"},
				{Object: "/products/:id/comment-list", Action: "GET"},
				{Object: "/checkout/", Action: "POST"},
				{Object: "/checkout/webhook", Action: "POST"},
			},
		},
		{
			Role:     constants.RoleSeller,
			Inherits: []string{RoleAnonymous},
			Policies: []Policy{
				{Object: "/users/me", Action: "GET"},
				{Object: "/users/me/password", Action: "PUT"},
				{Object: "/users/sellers/:id", Action: "PUT"},
				{Object: "/users/sellers/:id", Action: "DELETE"},
				{Object: "/products/categories", Action: "POST"},
				{Object: "/products/create", Action: "POST"},
				{Object: "/products/update/:id", Action: "PUT"},
				{Object: "/products/:id/delete", Action: "DELETE"},
			},
		},
		{
			Role:     constants.RoleCustomer,
			Inherits: []string{RoleAnonymous},
			Policies: []Policy{
				{Object: "/users/me", Action: "GET"},
				{Object: "/users/me/password", Action: "PUT"},
				{Object: "/users/customers/:id", Action: "*"},
				{Object: "/products/:id/basket/add-products", Action: "POST"},
				{Object: "/products/:id/basket-info", Action: "GET"},
				{Object: "/products/:id/basket/item/delete", Action: "DELETE"},
				{Object: "/products/:id/comment-create", Action: "POST"},
				{Object: "/products/:id/comment/update", Action: "PUT"},
				{Object: "/products/:id/comment/delete", Action: "DELETE"},
			},
		},
		{
			Role: constants.RoleAdmin,
			Policies: []Policy{
				{Object: "/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色矩阵；已存在的规则跳过，管理员新增的规则保留
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	added := 0
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			ok, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole)
			if err != nil {
				return fmt.Errorf("link role %s -> %s failed: %w", role, parentRole, err)
			}
			if ok {
				added++
			}
		}
		for _, policy := range seed.Policies {
			normalized, err := validatePolicy(role, policy.Object, policy.Action)
			if err != nil {
				return fmt.Errorf("builtin policy for %s: %w", role, err)
			}
			ok, err := s.enforcer.AddPolicy(normalized.Subject, normalized.Object, normalized.Action)
			if err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
			if ok {
				added++
			}
		}
	}
	if added > 0 {
		logger.Infow("authz_builtin_roles_seeded", "rules_added", added)
	}
	return nil
}
