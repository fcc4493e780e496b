package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/artisansally/ally/app/repositories"
	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/pkg/ctx"
	"github.com/artisansally/ally/pkg/session"
	"github.com/artisansally/ally/pkg/validate"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type passwordRule struct {
	Password string `json:"password" validate:"min=8,max=72"`
}

// checkPassword answers 400 when a new password is too short or too long.
func checkPassword(c *ctx.Context, field, password string) bool {
	errs := validate.Struct(passwordRule{Password: password})
	if msg, bad := errs["password"]; bad {
		c.ValidationError(map[string]string{field: strings.Replace(msg, "password", field, 1)})
		return false
	}
	return true
}

func (h *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}

	u, err := h.auth.Register(c.Context(), in)
	if errors.Is(err, services.ErrEmailTaken) {
		c.Error(http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		c.ServerError(msgInternal, err)
		return
	}
	c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "User registered. Please check your email to verify your account.",
		"user":    services.ViewOf(u),
	})
}

func (h *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}

	u, err := h.auth.Login(c.Context(), in)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.Error(http.StatusUnauthorized, "Invalid credentials")
		return
	case errors.Is(err, services.ErrEmailNotVerified):
		c.Error(http.StatusForbidden, "Please verify your email before logging in.")
		return
	case err != nil:
		c.ServerError(msgInternal, err)
		return
	}

	sess := c.Session()
	sess.Regenerate()
	sess.Set(session.UserKey, u.ID)
	if err := c.SaveSession(); err != nil {
		c.ServerError(msgInternal, err)
		return
	}
	c.JSON(http.StatusOK, map[string]interface{}{"message": "Logged in", "user": services.ViewOf(u)})
}

func (h *AuthController) Logout(c *ctx.Context) {
	c.Session().Destroy()
	if err := c.SaveSession(); err != nil {
		c.Log().Warn("logout: session not cleared", "error", err)
	}
	c.Message(http.StatusOK, "Logged out")
}

func (h *AuthController) CheckSession(c *ctx.Context) {
	id, ok := c.Session().GetUint(session.UserKey)
	if !ok {
		c.JSON(http.StatusOK, map[string]bool{"logged_in": false})
		return
	}
	u, err := h.auth.User(c.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		c.Session().Destroy()
		_ = c.SaveSession()
		c.JSON(http.StatusOK, map[string]bool{"logged_in": false})
		return
	}
	if err != nil {
		c.ServerError(msgInternal, err)
		return
	}
	c.JSON(http.StatusOK, map[string]interface{}{"logged_in": true, "user": services.ViewOf(u)})
}

func (h *AuthController) VerifyEmail(c *ctx.Context) {
	_, err := h.auth.VerifyEmail(c.Context(), c.Param("token"))
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		c.Error(http.StatusBadRequest, "The verification link has expired.")
	case errors.Is(err, services.ErrInvalidToken):
		c.Error(http.StatusBadRequest, "The verification link is invalid.")
	case err != nil:
		c.ServerError(msgInternal, err)
	default:
		c.Message(http.StatusOK, "Email verified. You can now log in.")
	}
}

type emailBody struct {
	Email string `json:"email"`
}

func (h *AuthController) ResendVerification(c *ctx.Context) {
	var in emailBody
	_ = c.DecodeJSON(&in)
	if strings.TrimSpace(in.Email) != "" {
		if err := h.auth.ResendVerification(c.Context(), in.Email); err != nil {
			mailFailure(c, err)
			return
		}
	}
	c.Message(http.StatusOK, "If an unverified account with this email exists, a new verification link has been sent.")
}

func (h *AuthController) ForgotPassword(c *ctx.Context) {
	var in emailBody
	_ = c.DecodeJSON(&in)
	if strings.TrimSpace(in.Email) != "" {
		if err := h.auth.ForgotPassword(c.Context(), in.Email); err != nil {
			mailFailure(c, err)
			return
		}
	}
	c.Message(http.StatusOK, "If an account with this email exists, a reset link has been sent.")
}

func mailFailure(c *ctx.Context, err error) {
	if errors.Is(err, services.ErrMailDelivery) || errors.Is(err, services.ErrMailUnconfigured) {
		c.ServerError(msgMailFailed, err)
		return
	}
	c.ServerError(msgInternal, err)
}

func (h *AuthController) ResetPassword(c *ctx.Context) {
	var in struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !c.DecodeJSON(&in) || in.Token == "" || in.Password == "" {
		c.Error(http.StatusBadRequest, "Invalid request.")
		return
	}
	if !checkPassword(c, "password", in.Password) {
		return
	}

	err := h.auth.ResetPassword(c.Context(), in.Token, in.Password)
	switch {
	case errors.Is(err, services.ErrTokenMismatch):
		c.Error(http.StatusBadRequest, "The reset link is invalid or has expired.")
	case errors.Is(err, services.ErrTokenExpired):
		c.Error(http.StatusBadRequest, "The reset link has expired.")
	case errors.Is(err, services.ErrInvalidToken):
		c.Error(http.StatusBadRequest, "The reset link is invalid.")
	case err != nil:
		c.ServerError(msgInternal, err)
	default:
		c.Message(http.StatusOK, "Password reset successfully. Please log in.")
	}
}

func (h *AuthController) ChangePassword(c *ctx.Context) {
	var in struct {
		Current string `json:"currentPassword"`
		New     string `json:"newPassword"`
	}
	if !c.DecodeJSON(&in) || in.Current == "" || in.New == "" {
		c.Error(http.StatusBadRequest, "Missing fields")
		return
	}
	if !checkPassword(c, "newPassword", in.New) {
		return
	}

	err := h.auth.ChangePassword(c.Context(), c.UserID(), in.Current, in.New)
	if errors.Is(err, services.ErrWrongPassword) {
		c.Error(http.StatusForbidden, "Current password is incorrect")
		return
	}
	if err != nil {
		fail(c, err, "User not found")
		return
	}
	c.Message(http.StatusOK, "Password updated successfully")
}

func (h *AuthController) UpdateSettings(c *ctx.Context) {
	var in struct {
		Currency *string `json:"currency" validate:"nullable,size=3,alpha"`
	}
	if !c.BindJSON(&in) {
		return
	}
	if in.Currency == nil || *in.Currency == "" {
		c.Error(http.StatusBadRequest, "No valid settings provided")
		return
	}

	u, err := h.auth.UpdateSettings(c.Context(), c.UserID(), *in.Currency)
	if err != nil {
		fail(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, map[string]interface{}{"message": "Settings updated", "user": services.ViewOf(u)})
}

// DeleteAccount removes the signed-in user after re-checking the password
// and ends the session.
func (h *AuthController) DeleteAccount(c *ctx.Context) {
	var in struct {
		Password string `json:"password" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}

	err := h.auth.DeleteAccount(c.Context(), c.UserID(), in.Password)
	if errors.Is(err, services.ErrWrongPassword) {
		c.Error(http.StatusForbidden, "Password is incorrect")
		return
	}
	if err != nil {
		fail(c, err, "User not found")
		return
	}

	c.Session().Destroy()
	_ = c.SaveSession()
	c.Message(http.StatusOK, "Account deleted")
}
