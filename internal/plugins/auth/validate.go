package auth

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minUsernameLength = 4
	minPasswordLength = 8
)

// ValidateSignUp checks a registration form. Email and username are trimmed
// and lower-cased; the password is trimmed at the ends only. Every failing
// password rule is reported, and a confirmation mismatch is always reported
// on confirmPassword.
func ValidateSignUp(req SignUpRequest) (SignUpInput, FieldErrors) {
	errs := FieldErrors{}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username != "" && utf8.RuneCountInString(username) < minUsernameLength {
		errs.Add("username", "Username must be at least 4 characters.")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		errs.Add("email", "Please enter a valid email.")
	}

	password := strings.TrimSpace(req.Password)
	for _, msg := range passwordProblems(password) {
		errs.Add("password", msg)
	}

	if password != strings.TrimSpace(req.ConfirmPassword) {
		errs.Add("confirmPassword", "Passwords don't match")
	}

	if len(errs) > 0 {
		return SignUpInput{}, errs
	}
	return SignUpInput{
		Username:   username,
		Email:      email,
		Password:   password,
		RememberMe: checkboxChecked(req.RememberMe),
	}, nil
}

// ValidateLogIn checks a log-in form. Username is optional; the backend
// decides what identifies an account.
func ValidateLogIn(req LogInRequest) (LogInInput, FieldErrors) {
	password := strings.TrimSpace(req.Password)
	if password == "" {
		return LogInInput{}, FieldErrors{"password": {"Password is required."}}
	}
	return LogInInput{
		Username:   strings.ToLower(strings.TrimSpace(req.Username)),
		Password:   password,
		RememberMe: checkboxChecked(req.RememberMe),
	}, nil
}

// passwordProblems returns one message per unmet strength rule.
func passwordProblems(password string) []string {
	var letter, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}

	var problems []string
	if utf8.RuneCountInString(password) < minPasswordLength {
		problems = append(problems, "Be at least 8 characters long")
	}
	if !letter {
		problems = append(problems, "Contain at least one letter.")
	}
	if !digit {
		problems = append(problems, "Contain at least one number.")
	}
	if !symbol {
		problems = append(problems, "Contain at least one special character.")
	}
	return problems
}

// validEmail accepts a bare address (no display name) whose domain has a dot.
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	return strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") &&
		!strings.HasSuffix(domain, ".")
}
