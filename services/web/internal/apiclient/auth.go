package apiclient

import (
	"context"
	"net/http"
	"strings"

	"qanunai/pkg/domain"
)

type authResponse struct {
	AccessToken          string      `json:"accessToken"`
	RefreshToken         string      `json:"refreshToken"`
	User                 domain.User `json:"user"`
	RequiresVerification bool        `json:"requiresVerification"`
}

func (r authResponse) result() domain.AuthResult {
	return domain.AuthResult{
		AccessToken:          r.AccessToken,
		RefreshToken:         r.RefreshToken,
		User:                 r.User,
		RequiresVerification: r.RequiresVerification,
	}
}

func (c *Client) Login(ctx context.Context, email, password string, role domain.Role) (domain.AuthResult, error) {
	payload := map[string]string{"email": email, "password": password, "role": string(role)}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login/", "", payload, &resp); err != nil {
		return domain.AuthResult{}, err
	}
	return resp.result(), nil
}

// Register signs up a user or lawyer. Lawyer fields are sent flat next to the account fields.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.AuthResult, error) {
	payload := map[string]any{
		"email":            reg.Email,
		"password":         reg.Password,
		"confirm_password": reg.Password,
		"full_name":        strings.TrimSpace(reg.FirstName + " " + reg.LastName),
		"role":             string(reg.Role),
	}
	if reg.Lawyer != nil {
		l := reg.Lawyer
		for key, value := range map[string]string{
			"phone":                  l.Phone,
			"city":                   l.City,
			"address":                l.Address,
			"primary_specialization": l.PrimarySpecialization,
			"bar_council_number":     l.BarCouncilNumber,
			"firm":                   l.Firm,
			"bio":                    l.Bio,
		} {
			if value != "" {
				payload[key] = value
			}
		}
		if l.ExperienceYears > 0 {
			payload["experience_years"] = l.ExperienceYears
		}
	}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register/", "", payload, &resp); err != nil {
		return domain.AuthResult{}, err
	}
	return resp.result(), nil
}

func (c *Client) Logout(ctx context.Context, token, refreshToken string) error {
	payload := map[string]string{"refresh": refreshToken}
	return c.doJSON(ctx, http.MethodPost, "/auth/logout/", token, payload, nil)
}

// Refresh exchanges a refresh token for a new access token. The backend may
// rotate the refresh token; when it does not, the returned refresh token is empty.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	payload := map[string]string{"refresh": refreshToken}
	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/refresh/", "", payload, &resp); err != nil {
		return "", "", err
	}
	return resp.Access, resp.Refresh, nil
}

func (c *Client) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error {
	payload := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return c.doJSON(ctx, http.MethodPost, "/auth/password/change/", token, payload, nil)
}

func (c *Client) VerifyEmail(ctx context.Context, token, code string) (domain.User, error) {
	var resp struct {
		Message string      `json:"message"`
		User    domain.User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/verify-email/", token, map[string]string{"code": code}, &resp); err != nil {
		return domain.User{}, err
	}
	return resp.User, nil
}

func (c *Client) ResendVerification(ctx context.Context, token string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/resend-verification/", token, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VerificationStatus reports whether the signed-in account's email is verified.
func (c *Client) VerificationStatus(ctx context.Context, token string) (bool, error) {
	var resp struct {
		IsVerified bool   `json:"isVerified"`
		Email      string `json:"email"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/auth/verification-status/", token, nil, &resp); err != nil {
		return false, err
	}
	return resp.IsVerified, nil
}

func (c *Client) Me(ctx context.Context, token string) (domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/me/", token, nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ProfilePatch is a partial update of the signed-in user.
type ProfilePatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	FullName  *string `json:"full_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, token string, patch ProfilePatch) (domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodPatch, "/users/me/", token, patch, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
