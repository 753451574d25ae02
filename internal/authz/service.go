package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bazaar-next/internal/constants"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	rolePrefix      = "role:"
	adminWildcard   = "/*"

	// RoleAnonymous 未登录访问者
	RoleAnonymous = "anonymous"
)

var (
	// ErrUnavailable 授权服务未初始化
	ErrUnavailable = errors.New("authz service unavailable")
	// ErrInvalidPolicy 角色、路由或动作不合法
	ErrInvalidPolicy = errors.New("invalid authz policy")
)

// 路由粒度 RBAC：sub 为 role:xxx，obj 为去掉 /api/v1 的 gin 路由模板
const roleRouteModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var allowedActions = map[string]struct{}{
	"GET": {}, "POST": {}, "PUT": {}, "PATCH": {}, "DELETE": {}, "*": {},
}

// Policy 一条角色放行规则
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// RoleSummary 角色概览
type RoleSummary struct {
	Role     string   `json:"role"`
	Inherits []string `json:"inherits"`
	Policies int      `json:"policies"`
}

// Service Casbin 授权服务
// 按账号角色（admin/seller/customer/anonymous）对路由做粗粒度放行，
// 资源归属校验仍由业务服务完成
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务，策略持久化在 casbin_rule 表
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(roleRouteModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// EnforceRole 判断角色能否访问路由；空角色视为匿名访问
func (s *Service) EnforceRole(role, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if strings.TrimSpace(role) == "" {
		role = RoleAnonymous
	}
	subject, err := NormalizeRole(role)
	if err != nil {
		return false, err
	}
	return s.enforcer.Enforce(subject, NormalizeObject(obj), NormalizeAction(act))
}

// ReloadPolicy 从数据库重新加载策略
func (s *Service) ReloadPolicy() error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.enforcer.LoadPolicy()
}

// ListRoles 列出全部角色及其继承关系
func (s *Service) ListRoles() ([]RoleSummary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	policies, err := s.enforcer.GetPolicy()
	if err != nil {
		return nil, fmt.Errorf("list policies failed: %w", err)
	}
	links, err := s.enforcer.GetNamedGroupingPolicy("g")
	if err != nil {
		return nil, fmt.Errorf("list role links failed: %w", err)
	}

	summaries := make(map[string]*RoleSummary)
	summaryOf := func(role string) *RoleSummary {
		if existing, ok := summaries[role]; ok {
			return existing
		}
		created := &RoleSummary{Role: role, Inherits: []string{}}
		summaries[role] = created
		return created
	}
	for _, rule := range policies {
		if len(rule) > 0 && strings.HasPrefix(rule[0], rolePrefix) {
			summaryOf(rule[0]).Policies++
		}
	}
	for _, link := range links {
		if len(link) < 2 || !strings.HasPrefix(link[0], rolePrefix) {
			continue
		}
		child := summaryOf(link[0])
		child.Inherits = append(child.Inherits, link[1])
		summaryOf(link[1])
	}

	result := make([]RoleSummary, 0, len(summaries))
	for _, summary := range summaries {
		sort.Strings(summary.Inherits)
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Role < result[j].Role })
	return result, nil
}

// GetRolePolicies 查询角色策略；inherited 为 true 时包含继承来的策略
func (s *Service) GetRolePolicies(role string, inherited bool) ([]Policy, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	var rules [][]string
	if inherited {
		rules, err = s.enforcer.GetImplicitPermissionsForUser(subject)
	} else {
		rules, err = s.enforcer.GetFilteredPolicy(0, subject)
	}
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}

	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		})
	}
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].Object != policies[j].Object {
			return policies[i].Object < policies[j].Object
		}
		if policies[i].Action != policies[j].Action {
			return policies[i].Action < policies[j].Action
		}
		return policies[i].Subject < policies[j].Subject
	})
	return policies, nil
}

// GrantRolePolicy 为内置角色放行一条路由
func (s *Service) GrantRolePolicy(role, object, action string) error {
	policy, err := validatePolicy(role, object, action)
	if err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色策略；管理员通配策略不可撤销
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	policy, err := validatePolicy(role, object, action)
	if err != nil {
		return err
	}
	if policy.Subject == rolePrefix+constants.RoleAdmin && policy.Object == adminWildcard {
		return fmt.Errorf("%w: admin wildcard policy is protected", ErrInvalidPolicy)
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.RemovePolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

func validatePolicy(role, object, action string) (Policy, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return Policy{}, err
	}
	if !IsKnownRole(subject) {
		return Policy{}, fmt.Errorf("%w: unknown role %s", ErrInvalidPolicy, subject)
	}
	if strings.TrimSpace(object) == "" {
		return Policy{}, fmt.Errorf("%w: object is required", ErrInvalidPolicy)
	}
	normalizedAction := NormalizeAction(action)
	if _, ok := allowedActions[normalizedAction]; !ok {
		return Policy{}, fmt.Errorf("%w: unsupported action %q", ErrInvalidPolicy, action)
	}
	return Policy{Subject: subject, Object: NormalizeObject(object), Action: normalizedAction}, nil
}

// NormalizeRole 统一角色名称为 role:xxx
func NormalizeRole(role string) (string, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(role)), " ", "_")
	normalized = strings.TrimPrefix(normalized, rolePrefix)
	if normalized == "" {
		return "", fmt.Errorf("%w: role is required", ErrInvalidPolicy)
	}
	return rolePrefix + normalized, nil
}

// IsKnownRole 是否为系统账号角色
func IsKnownRole(role string) bool {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(role)), rolePrefix) {
	case constants.RoleAdmin, constants.RoleSeller, constants.RoleCustomer, RoleAnonymous:
		return true
	default:
		return false
	}
}

// NormalizeObject 去掉 /api/v1 前缀，统一为以 / 开头的路由模板
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	if trimmed := strings.TrimPrefix(normalized, apiV1Prefix+"/"); trimmed != normalized {
		return "/" + trimmed
	}
	return normalized
}

// NormalizeAction 统一授权动作为大写 HTTP 方法
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
