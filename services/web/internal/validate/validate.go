// Package validate checks user forms before they reach the backend.
package validate

import (
	"errors"
	"strings"

	"qanunai/pkg/auth"
	"qanunai/pkg/domain"
)

// Failure is a rejected form with the message shown to the user.
type Failure struct {
	Field       string `json:"field"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (f *Failure) Error() string {
	return f.Title + ": " + f.Description
}

// AsFailure reports whether err is a validation failure.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

var (
	passwordMismatch = &Failure{Field: "confirmPassword", Title: "Passwords don't match", Description: "Please make sure your passwords match."}
	passwordShort    = &Failure{Field: "password", Title: "Password too short", Description: "Password must be at least 8 characters long."}
	passwordWeak     = &Failure{Field: "password", Title: "Password too weak", Description: "Password cannot be entirely numeric or too common. Include letters and numbers."}
	phoneRequired    = &Failure{Field: "phone", Title: "Phone required", Description: "Please provide your phone number."}
	cityRequired     = &Failure{Field: "city", Title: "City required", Description: "Please provide your city."}
	specRequired     = &Failure{Field: "primary_specialization", Title: "Specialization required", Description: "Please select your primary specialization."}
	subjectRequired  = &Failure{Field: "subject", Title: "Subject required", Description: "Please enter a subject for your consultation."}
	emailRequired    = &Failure{Field: "email", Title: "Email required", Description: "Please enter your email address."}
	roleRequired     = &Failure{Field: "role", Title: "Account type required", Description: "Please choose whether you are signing up as a user or a lawyer."}
	codeInvalid      = &Failure{Field: "code", Title: "Invalid code", Description: "Please enter all 6 digits."}
)

// Registration validates the sign-up form. Lawyers must also supply phone,
// city and primary specialization.
func Registration(reg domain.Registration) error {
	if strings.TrimSpace(reg.Email) == "" {
		return emailRequired
	}
	if domain.ParseRole(string(reg.Role)) == "" {
		return roleRequired
	}
	if err := Password(reg.Password, reg.ConfirmPassword); err != nil {
		return err
	}
	if reg.Role != domain.RoleLawyer {
		return nil
	}
	lawyer := reg.Lawyer
	if lawyer == nil {
		lawyer = &domain.LawyerRegistration{}
	}
	switch {
	case strings.TrimSpace(lawyer.Phone) == "":
		return phoneRequired
	case strings.TrimSpace(lawyer.City) == "":
		return cityRequired
	case strings.TrimSpace(lawyer.PrimarySpecialization) == "":
		return specRequired
	}
	return nil
}

// Password applies the password rules shared by sign-up and password change.
func Password(password, confirm string) error {
	switch err := auth.ValidatePassword(password, confirm); {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrPasswordMismatch):
		return passwordMismatch
	case errors.Is(err, auth.ErrPasswordTooShort):
		return passwordShort
	default:
		return passwordWeak
	}
}

// Consultation validates a booking request.
func Consultation(req domain.ConsultationRequest) error {
	if strings.TrimSpace(req.Subject) == "" {
		return subjectRequired
	}
	return nil
}

// VerificationCode requires the six-digit email code.
func VerificationCode(code string) error {
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return codeInvalid
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return codeInvalid
		}
	}
	return nil
}
