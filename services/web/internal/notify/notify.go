// Package notify turns operation outcomes into the short notices shown to users.
package notify

import (
	"errors"
	"strings"

	"qanunai/services/web/internal/apiclient"
	"qanunai/services/web/internal/upload"
	"qanunai/services/web/internal/validate"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is a transient message for the user.
type Notice struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

// Success builds a non-error notice.
func Success(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: VariantDefault}
}

// Failure builds an error notice. Validation failures keep their own title;
// backend errors contribute their message; anything else uses fallback.
func Failure(title string, err error, fallback string) Notice {
	if f, ok := validate.AsFailure(err); ok {
		return Notice{Title: f.Title, Description: f.Description, Variant: VariantDestructive}
	}
	return Notice{Title: title, Description: Message(err, fallback), Variant: VariantDestructive}
}

// Message extracts a user-facing message from err.
func Message(err error, fallback string) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, upload.ErrUnsupportedType):
		return "Only PDF, DOC and DOCX files are supported."
	case errors.Is(err, upload.ErrTooLarge):
		return "The file is too large."
	case errors.Is(err, upload.ErrEmptyFile):
		return "The file is empty."
	case errors.Is(err, upload.ErrUnreadablePDF):
		return "The PDF could not be read."
	}
	return fallback
}

// Notices used by the gateway handlers.
var (
	LoginFailed        = failure("Login failed", "Invalid credentials. Please try again.")
	RegisterFailed     = failure("Registration failed", "Please try again.")
	VerifyFailed       = failure("Verification failed", "Invalid or expired code. Please try again.")
	ResendFailed       = failure("Failed to resend", "Please try again later.")
	ProfileFailed      = failure("Update failed", "Failed to update profile.")
	LawyerProfileError = failure("Error", "Failed to save profile. Please try again.")
	PasswordFailed     = failure("Update failed", "Failed to change password.")
	UploadFailed       = failure("Upload failed", "Upload failed. Please try again.")
	DeleteFailed       = failure("Error", "Failed to delete")
	AnalysisFailed     = failure("Analysis failed", "Failed to analyze document.")
	ConsultationFailed = failure("Error", "Failed to request consultation.")
	StatusFailed       = failure("Error", "Failed to update consultation status.")
	MessageFailed      = failure("Error", "Failed to send message.")
	AdminLoginFailed   = failure("Login failed", "Invalid credentials or insufficient privileges.")
	ApproveFailed      = failure("Error", "Failed to approve lawyer")
	RejectFailed       = failure("Error", "Failed to reject")
	UpdateSaveFailed   = failure("Error", "Failed to save legal update")
)

// FailureFunc builds the failure notice of one operation.
type FailureFunc func(err error) Notice

func failure(title, fallback string) FailureFunc {
	return func(err error) Notice {
		return Failure(title, err, fallback)
	}
}

var (
	ProfileUpdated   = Success("Profile updated", "Your changes have been saved successfully.")
	AccountCreated   = Success("Account created!", "Please verify your email to continue.")
	ApplicationSent  = Success("Application submitted!", "Your lawyer application is pending approval. Please verify your email.")
	EmailVerified    = Success("Email verified!", "Welcome to QanunAI!")
	CodeSent         = Success("Code sent!", "Check your email for the new verification code.")
	DocumentUploaded = Success("Document uploaded", "Your document is ready for analysis.")
)
