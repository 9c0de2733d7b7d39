package notify

import (
	"errors"
	"fmt"
	"testing"

	"qanunai/pkg/domain"
	"qanunai/services/web/internal/apiclient"
	"qanunai/services/web/internal/upload"
	"qanunai/services/web/internal/validate"
)

func TestFailureUsesBackendMessage(t *testing.T) {
	err := fmt.Errorf("login: %w", &apiclient.APIError{Status: 400, Message: "No active account found"})
	n := LoginFailed(err)
	if n.Title != "Login failed" || n.Description != "No active account found" || n.Variant != VariantDestructive {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestFailureFallsBack(t *testing.T) {
	n := VerifyFailed(errors.New("dial tcp: refused"))
	if n.Description != "Invalid or expired code. Please try again." {
		t.Fatalf("unexpected description %q", n.Description)
	}
	n = StatusFailed(&apiclient.APIError{Status: 500, Message: "  "})
	if n.Description != "Failed to update consultation status." {
		t.Fatalf("blank backend message should fall back, got %q", n.Description)
	}
}

func TestFailureKeepsValidationTitle(t *testing.T) {
	err := validate.Registration(domain.Registration{Email: "a@b.pk", Password: "x", ConfirmPassword: "y", Role: domain.RoleUser})
	n := RegisterFailed(err)
	if n.Title != "Passwords don't match" || n.Description != "Please make sure your passwords match." {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestUploadMessages(t *testing.T) {
	n := UploadFailed(fmt.Errorf("%w: .exe", upload.ErrUnsupportedType))
	if n.Title != "Upload failed" || n.Description != "Only PDF, DOC and DOCX files are supported." {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestSuccess(t *testing.T) {
	if ProfileUpdated.Variant != VariantDefault || ProfileUpdated.Title != "Profile updated" {
		t.Fatalf("unexpected notice %+v", ProfileUpdated)
	}
}
