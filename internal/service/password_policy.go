package service

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bazaar-next/internal/config"
)

// passwordPolicyError 汇总所有未满足的密码规则
type passwordPolicyError struct {
	violations []string
}

func (e passwordPolicyError) Error() string {
	return "weak password: " + e.Reason()
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword || target == ErrValidation
}

// Reason 返回可直接展示给客户端的原因
func (e passwordPolicyError) Reason() string {
	return strings.Join(e.violations, "; ")
}

type passwordRule struct {
	active  bool
	message string
	check   func(string) bool
}

func containsRune(match func(rune) bool) func(string) bool {
	return func(password string) bool {
		return strings.IndexFunc(password, match) >= 0
	}
}

func passwordRules(policy config.PasswordPolicyConfig) []passwordRule {
	return []passwordRule{
		{
			active:  policy.MinLength > 0,
			message: fmt.Sprintf("password must be at least %d characters", policy.MinLength),
			check: func(password string) bool {
				return utf8.RuneCountInString(password) >= policy.MinLength
			},
		},
		{policy.RequireUpper, "password must contain an uppercase letter", containsRune(unicode.IsUpper)},
		{policy.RequireLower, "password must contain a lowercase letter", containsRune(unicode.IsLower)},
		{policy.RequireNumber, "password must contain a digit", containsRune(unicode.IsDigit)},
	}
}

func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	var violations []string
	for _, rule := range passwordRules(policy) {
		if rule.active && !rule.check(password) {
			violations = append(violations, rule.message)
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return passwordPolicyError{violations: violations}
}
