package auth

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/mailer"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/response"
	"github.com/kinderbasar/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// SellerLinker attaches sellers registered under an email to a user account.
type SellerLinker interface {
	LinkUser(ctx context.Context, userID uuid.UUID, email string) (int64, error)
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo       *Repository
	jwt        *JWTService
	composer   *mailer.Composer
	linker     SellerLinker
	issuer     string
	tokenHours int
	logger     *zap.Logger
}

// NewHandler creates an auth handler. issuer labels TOTP entries in authenticator apps.
func NewHandler(repo *Repository, jwt *JWTService, composer *mailer.Composer, linker SellerLinker, issuer string, tokenHours int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, composer: composer, linker: linker, issuer: issuer, tokenHours: tokenHours, logger: logger}
}

// userID reads the id stored by middleware.JWT.
func (h *Handler) userID(c *gin.Context) uuid.UUID {
	return c.MustGet("user_id").(uuid.UUID)
}

func (h *Handler) linkSellers(ctx context.Context, u *models.User) {
	if h.linker == nil {
		return
	}
	n, err := h.linker.LinkUser(ctx, u.ID, u.Email)
	if err != nil {
		h.logger.Warn("link sellers failed", zap.String("user_id", u.ID.String()), zap.Error(err))
		return
	}
	if n > 0 {
		h.logger.Info("sellers linked to user", zap.String("user_id", u.ID.String()), zap.Int64("count", n))
	}
}

func (h *Handler) tokenResponse(c *gin.Context, u *models.User, created bool) {
	token, err := h.jwt.Generate(u.ID, u.Email, u.Role)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	if created {
		response.Created(c, TokenResponse{Token: token, User: u.ToPublic()})
		return
	}
	response.OK(c, TokenResponse{Token: token, User: u.ToPublic()})
}

// Register handles POST /auth/register. The very first account becomes admin.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	role := bazaar.UserRoleSeller
	if n, err := h.repo.Count(ctx); err == nil && n == 0 {
		role = bazaar.UserRoleAdmin
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	user, err := h.repo.Create(ctx, req.Email, hash, req.FullName, role)
	if err != nil {
		if !errors.Is(err, bazaar.ErrEmailAlreadyRegistered) {
			h.logger.Error("create user failed", zap.Error(err))
		}
		response.Error(c, err)
		return
	}
	h.linkSellers(ctx, user)
	h.tokenResponse(c, user, true)
}

// Login handles POST /auth/login. Accounts with 2FA need totp_code.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	user, err := h.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, bazaar.ErrUserNotFound) {
			h.logger.Error("load user failed", zap.Error(err))
		}
		response.Error(c, bazaar.ErrInvalidCredentials)
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Error(c, bazaar.ErrInvalidCredentials)
		return
	}
	if user.TOTPEnabled {
		if req.TOTPCode == "" {
			response.Error(c, bazaar.ErrTwoFactorRequired)
			return
		}
		if !ValidateTOTP(req.TOTPCode, user.TOTPSecret) {
			response.Error(c, bazaar.ErrInvalidTwoFactorCode)
			return
		}
	}
	h.linkSellers(ctx, user)
	h.tokenResponse(c, user, false)
}

// Me handles GET /account.
func (h *Handler) Me(c *gin.Context) {
	user, err := h.repo.GetByID(c.Request.Context(), h.userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user.ToPublic())
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// SetRole handles PUT /users/:id/role (admin only).
func (h *Handler) SetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role, err := bazaar.ParseUserRole(req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	if id == h.userID(c) && role != bazaar.UserRoleAdmin {
		response.Error(c, bazaar.ErrForbidden.WithDetail("eigene Admin-Rolle"))
		return
	}
	if err := h.repo.UpdateRole(c.Request.Context(), id, role); err != nil {
		response.Error(c, err)
		return
	}
	response.Toggle(c, true)
}

// SetupTOTP handles POST /account/2fa/setup. The secret is stored but not enforced
// until EnableTOTP confirms a code.
func (h *Handler) SetupTOTP(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.repo.GetByID(ctx, h.userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if user.TOTPEnabled {
		response.Error(c, bazaar.ErrInvalidInput.WithDetail("2FA ist bereits aktiv"))
		return
	}
	setup, err := NewTOTPSetup(h.issuer, user.Email)
	if err != nil {
		h.logger.Error("totp setup failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	if err := h.repo.SetTOTPSecret(ctx, user.ID, setup.Secret); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, setup)
}

type totpCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// EnableTOTP handles POST /account/2fa/enable.
func (h *Handler) EnableTOTP(c *gin.Context) {
	var req totpCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	user, err := h.repo.GetByID(ctx, h.userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !ValidateTOTP(req.Code, user.TOTPSecret) {
		response.Error(c, bazaar.ErrInvalidTwoFactorCode)
		return
	}
	if err := h.repo.SetTOTPEnabled(ctx, user.ID, true); err != nil {
		response.Error(c, err)
		return
	}
	response.Toggle(c, true)
}

// DisableTOTP handles POST /account/2fa/disable; it needs a current code.
func (h *Handler) DisableTOTP(c *gin.Context) {
	var req totpCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	user, err := h.repo.GetByID(ctx, h.userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !user.TOTPEnabled || !ValidateTOTP(req.Code, user.TOTPSecret) {
		response.Error(c, bazaar.ErrInvalidTwoFactorCode)
		return
	}
	if err := h.repo.SetTOTPEnabled(ctx, user.ID, false); err != nil {
		response.Error(c, err)
		return
	}
	response.Toggle(c, true)
}

// ForgotPassword handles POST /auth/password/forgot. It answers success for unknown
// addresses too.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	user, err := h.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, bazaar.ErrUserNotFound) {
			h.logger.Error("load user failed", zap.Error(err))
		}
		response.Toggle(c, true)
		return
	}
	token, err := utils.NewToken()
	if err != nil {
		response.Error(c, err)
		return
	}
	expires := TokenExpiry(h.tokenHours)
	mail, err := h.composer.PasswordReset(user, token, expires)
	if err != nil {
		h.logger.Error("compose password reset failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	t := &models.UserToken{UserID: user.ID, Purpose: models.TokenPurposePasswordReset, TokenHash: utils.HashToken(token), ExpiresAt: expires}
	if err := h.repo.CreateToken(ctx, t, mail); err != nil {
		h.logger.Error("store reset token failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Toggle(c, true)
}

// ResetPassword handles POST /auth/password/reset.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.ResetPassword(c.Request.Context(), utils.HashToken(req.Token), hash); err != nil {
		response.Error(c, err)
		return
	}
	response.Toggle(c, true)
}

// RequestEmailChange handles POST /account/email. The confirmation goes to the new address.
func (h *Handler) RequestEmailChange(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	user, err := h.repo.GetByID(ctx, h.userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Error(c, bazaar.ErrInvalidCredentials)
		return
	}
	if _, err := h.repo.GetByEmail(ctx, req.Email); err == nil {
		response.Error(c, bazaar.ErrEmailAlreadyRegistered)
		return
	}
	token, err := utils.NewToken()
	if err != nil {
		response.Error(c, err)
		return
	}
	expires := TokenExpiry(h.tokenHours)
	mail, err := h.composer.EmailChange(user, req.Email, token, expires)
	if err != nil {
		h.logger.Error("compose email change failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	t := &models.UserToken{UserID: user.ID, Purpose: models.TokenPurposeEmailChange, TokenHash: utils.HashToken(token), NewEmail: req.Email, ExpiresAt: expires}
	if err := h.repo.CreateToken(ctx, t, mail); err != nil {
		h.logger.Error("store email change token failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Toggle(c, true)
}

// ConfirmEmailChange handles POST /auth/email/confirm.
func (h *Handler) ConfirmEmailChange(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, err := h.repo.ConfirmEmailChange(c.Request.Context(), utils.HashToken(req.Token))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.linkSellers(c.Request.Context(), user)
	response.OK(c, user.ToPublic())
}
