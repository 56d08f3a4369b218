package account

import (
	"fmt"
	"strings"
	"unicode"
)

// PasswordRule returns a violation message, or "" when the password passes.
type PasswordRule func(username, password string) string

// DefaultPasswordRules mirrors the stock policy: length, similarity to the
// username, common passwords and all-digit passwords.
func DefaultPasswordRules() []PasswordRule {
	return []PasswordRule{
		MinimumLength(8),
		NotSimilarToUsername,
		NotCommon,
		NotNumeric,
	}
}

func MinimumLength(n int) PasswordRule {
	return func(_, password string) string {
		if len([]rune(password)) < n {
			return fmt.Sprintf("This password is too short. It must contain at least %d characters.", n)
		}
		return ""
	}
}

// NotSimilarToUsername flags passwords that contain the username or are
// contained in it, ignoring case.
func NotSimilarToUsername(username, password string) string {
	u := strings.ToLower(strings.TrimSpace(username))
	p := strings.ToLower(password)
	if len(u) < 3 || p == "" {
		return ""
	}
	if strings.Contains(p, u) || strings.Contains(u, p) {
		return "The password is too similar to the username."
	}
	return ""
}

func NotCommon(_, password string) string {
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		return "This password is too common."
	}
	return ""
}

func NotNumeric(_, password string) string {
	if password == "" {
		return ""
	}
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return "This password is entirely numeric."
}

// checkPassword runs every rule and returns the violated messages in order.
func checkPassword(rules []PasswordRule, username, password string) []string {
	var violations []string
	for _, rule := range rules {
		if msg := rule(username, password); msg != "" {
			violations = append(violations, msg)
		}
	}
	return violations
}

var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range []string{
		"password", "password1", "password123", "passw0rd", "123456", "12345678",
		"123456789", "1234567890", "qwerty", "qwerty123", "qwertyuiop", "abc123",
		"111111", "000000", "iloveyou", "admin", "admin123", "welcome", "welcome1",
		"letmein", "monkey", "dragon", "football", "baseball", "sunshine", "princess",
		"superman", "trustno1", "master", "shadow", "michael", "1q2w3e4r", "zaq12wsx",
		"asdfghjkl", "changeme", "secret", "starwars",
	} {
		commonPasswords[p] = struct{}{}
	}
}
