package domain

import "strings"

// PasswordSpecialChars are the characters that satisfy the special criterion.
const PasswordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// PasswordMinLength is the length criterion.
const PasswordMinLength = 8

// PasswordMaxBytes is the longest password bcrypt accepts.
const PasswordMaxBytes = 72

// Strength criteria names, reported back when a password is rejected.
const (
	CriterionLength  = "length"
	CriterionUpper   = "uppercase"
	CriterionLower   = "lowercase"
	CriterionDigit   = "digit"
	CriterionSpecial = "special"
)

// PasswordStrength is the result of scoring a password.
type PasswordStrength struct {
	Score   int
	Missing []string
}

// EvaluatePassword scores one point per satisfied criterion, out of five.
// Letters and digits count only in their ASCII ranges.
func EvaluatePassword(password string) PasswordStrength {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(PasswordSpecialChars, r):
			hasSpecial = true
		}
	}

	checks := []struct {
		name string
		ok   bool
	}{
		{CriterionLength, len([]rune(password)) >= PasswordMinLength},
		{CriterionUpper, hasUpper},
		{CriterionLower, hasLower},
		{CriterionDigit, hasDigit},
		{CriterionSpecial, hasSpecial},
	}

	var s PasswordStrength
	for _, c := range checks {
		if c.ok {
			s.Score++
		} else {
			s.Missing = append(s.Missing, c.name)
		}
	}
	return s
}

// CheckPasswordLength rejects passwords longer than PasswordMaxBytes.
func CheckPasswordLength(password string) error {
	if len(password) > PasswordMaxBytes {
		return NewValidationError("password must be at most 72 bytes", "password")
	}
	return nil
}

// CheckPassword returns a ValidationError for an overlong password and a
// WeakPasswordError when the score is below minScore.
func CheckPassword(password string, minScore int) error {
	if err := CheckPasswordLength(password); err != nil {
		return err
	}
	s := EvaluatePassword(password)
	if s.Score < minScore {
		return &WeakPasswordError{Score: s.Score, Required: minScore, Missing: s.Missing}
	}
	return nil
}
