package validate

import (
	"testing"

	"qanunai/pkg/domain"
)

func TestRegistration(t *testing.T) {
	lawyer := &domain.LawyerRegistration{Phone: "+92 300 0000000", City: "Lahore", PrimarySpecialization: "Corporate Law"}
	cases := []struct {
		name  string
		reg   domain.Registration
		title string
	}{
		{"valid user", domain.Registration{Email: "a@b.pk", Password: "s3cretWord", ConfirmPassword: "s3cretWord", Role: domain.RoleUser}, ""},
		{"valid lawyer", domain.Registration{Email: "a@b.pk", Password: "s3cretWord", ConfirmPassword: "s3cretWord", Role: domain.RoleLawyer, Lawyer: lawyer}, ""},
		{"missing email", domain.Registration{Password: "s3cretWord", ConfirmPassword: "s3cretWord", Role: domain.RoleUser}, "Email required"},
		{"unknown role", domain.Registration{Email: "a@b.pk", Password: "s3cretWord", ConfirmPassword: "s3cretWord", Role: "ADMIN"}, "Account type required"},
		{"mismatch", domain.Registration{Email: "a@b.pk", Password: "s3cretWord", ConfirmPassword: "other", Role: domain.RoleUser}, "Passwords don't match"},
		{"short", domain.Registration{Email: "a@b.pk", Password: "ab1", ConfirmPassword: "ab1", Role: domain.RoleUser}, "Password too short"},
		{"numeric", domain.Registration{Email: "a@b.pk", Password: "90817263", ConfirmPassword: "90817263", Role: domain.RoleUser}, "Password too weak"},
		{"common", domain.Registration{Email: "a@b.pk", Password: "MyPassword9", ConfirmPassword: "MyPassword9", Role: domain.RoleUser}, "Password too weak"},
		{"lawyer without details", domain.Registration{Email: "a@b.pk", Password: "s3cretWord", ConfirmPassword: "s3cretWord", Role: domain.RoleLawyer}, "Phone required"},
		{"lawyer without city", domain.Registration{Email: "a@b.pk", Password: "s3cretWord", ConfirmPassword: "s3cretWord", Role: domain.RoleLawyer, Lawyer: &domain.LawyerRegistration{Phone: "1"}}, "City required"},
		{"lawyer without specialization", domain.Registration{Email: "a@b.pk", Password: "s3cretWord", ConfirmPassword: "s3cretWord", Role: domain.RoleLawyer, Lawyer: &domain.LawyerRegistration{Phone: "1", City: " Karachi "}}, "Specialization required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Registration(tc.reg)
			if tc.title == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			f, ok := AsFailure(err)
			if !ok {
				t.Fatalf("expected failure %q, got %v", tc.title, err)
			}
			if f.Title != tc.title {
				t.Fatalf("expected %q, got %q", tc.title, f.Title)
			}
		})
	}
}

func TestPasswordDescriptions(t *testing.T) {
	f, _ := AsFailure(Password("short", "short"))
	if f.Description != "Password must be at least 8 characters long." {
		t.Fatalf("unexpected description %q", f.Description)
	}
	f, _ = AsFailure(Password("12345678", "12345678"))
	if f.Description != "Password cannot be entirely numeric or too common. Include letters and numbers." {
		t.Fatalf("unexpected description %q", f.Description)
	}
}

func TestConsultation(t *testing.T) {
	err := Consultation(domain.ConsultationRequest{LawyerID: 3, Subject: "   "})
	f, ok := AsFailure(err)
	if !ok || f.Title != "Subject required" || f.Description != "Please enter a subject for your consultation." {
		t.Fatalf("unexpected result %v", err)
	}
	if err := Consultation(domain.ConsultationRequest{LawyerID: 3, Subject: "Tenancy"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestVerificationCode(t *testing.T) {
	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		f, ok := AsFailure(VerificationCode(code))
		if !ok || f.Title != "Invalid code" {
			t.Fatalf("code %q: expected Invalid code, got %v", code, f)
		}
	}
	if err := VerificationCode(" 123456 "); err != nil {
		t.Fatalf("expected valid code, got %v", err)
	}
}
