package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/radityabs/huddle-backend/internal/application"
	"github.com/radityabs/huddle-backend/internal/domain/entity"
	"github.com/radityabs/huddle-backend/pkg/helpers"
	"github.com/radityabs/huddle-backend/pkg/response"
	"github.com/radityabs/huddle-backend/pkg/validation"
)

const maxAvatarBytes = 5 << 20

type UserHandler struct {
	Svc     *userapp.Service
	Tokens  *helpers.TokenManager
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewUserHandler(svc *userapp.Service, tokens *helpers.TokenManager, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Tokens: tokens, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

// fail renders a FlowError with its mapped HTTP status. Internal causes never
// leave the server, so this is the one place they reach the log.
func fail(c *gin.Context, log *logrus.Logger, ferr *userapp.FlowError) {
	if ferr.Kind == userapp.KindInternal && log != nil {
		log.WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		}).WithError(ferr.Err).Error(ferr.Message)
	}
	response.Error[any](c, ferr.HTTPStatus(), ferr.Message, nil)
}

func deviceFrom(c *gin.Context) entity.Device {
	ip := c.GetString("real_ip")
	if ip == "" {
		ip = c.ClientIP()
	}
	ua := c.Request.UserAgent()
	return entity.Device{IP: ip, UserAgent: ua, Fingerprint: helpers.DeviceFingerprint(ip, ua)}
}

type registerRequest struct {
	FullName string `json:"full_name" binding:"required"`
	DOB      string `json:"dob" binding:"required,dob"`
	Email    string `json:"email" binding:"required,email"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if ferr := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{FullName: req.FullName, DOB: req.DOB, Email: req.Email}); ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	response.Success[any](c, http.StatusCreated, gin.H{"email": strings.TrimSpace(req.Email)}, "registration successful, please check your email to verify your account", nil)
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (h *UserHandler) VerifyEmail(c *gin.Context) {
	// Token from the path when following the email link, from the body when
	// the frontend posts it.
	token := c.Param("token")
	if token == "" {
		var req verifyEmailRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.Token
		}
	}
	res, ferr := h.Svc.VerifyEmail(c.Request.Context(), token)
	if ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	if res.AlreadyVerified {
		response.Success[any](c, http.StatusOK, gin.H{"verified": true}, "email already verified", nil)
		return
	}
	// Lax rather than Strict so the cookie survives the top-level
	// navigation from the email link.
	h.Cookies.SetAccessLax(c, res.AccessToken, res.AccessExpiry)
	response.Success[any](c, http.StatusOK, gin.H{"verified": true}, "email verified successfully", map[string]any{"access_expires_at": res.AccessExpiry})
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, ferr := h.Svc.Login(c.Request.Context(), userapp.LoginInput{Identifier: req.Identifier, Password: req.Password}, deviceFrom(c))
	if ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}

	if res.Requires2FA {
		// No cookies until the TOTP challenge is answered.
		response.Success[any](c, http.StatusOK, gin.H{
			"requires_2fa":   true,
			"temp_2fa_token": res.PendingToken,
		}, "two-factor code required", nil)
		return
	}

	h.Cookies.SetPair(c, res.Pair.AccessToken, res.Pair.AccessTokenExpiry, res.Pair.RefreshToken, res.Pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{
		"user":          res.User,
		"access_token":  res.Pair.AccessToken,
		"refresh_token": res.Pair.RefreshToken,
	}, "login successful", map[string]any{
		"access_expires_at":  res.Pair.AccessTokenExpiry,
		"refresh_expires_at": res.Pair.RefreshTokenExpiry,
	})
}

type login2FARequest struct {
	Temp2FAToken string `json:"temp_2fa_token"`
	UserID       string `json:"user_id"`
	Code         string `json:"code" binding:"required,totpcode"`
}

func (h *UserHandler) Login2FA(c *gin.Context) {
	var req login2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	userID := req.UserID
	if req.Temp2FAToken != "" {
		claims, err := h.Tokens.Parse(helpers.TokenTwoFAPend, req.Temp2FAToken)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid or expired 2fa token", nil)
			return
		}
		userID = claims.UserID
	}
	if userID == "" {
		response.Error[any](c, http.StatusBadRequest, "temp_2fa_token or user_id is required", nil)
		return
	}

	res, ferr := h.Svc.LoginWith2FA(c.Request.Context(), userID, req.Code)
	if ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	h.Cookies.SetPair(c, res.Pair.AccessToken, res.Pair.AccessTokenExpiry, res.Pair.RefreshToken, res.Pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{
		"user":          res.User,
		"access_token":  res.Pair.AccessToken,
		"refresh_token": res.Pair.RefreshToken,
	}, "login successful", map[string]any{
		"access_expires_at":  res.Pair.AccessTokenExpiry,
		"refresh_expires_at": res.Pair.RefreshTokenExpiry,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshTokenFrom resolves the presented refresh token: cookie first, then
// JSON body, then the Authorization bearer header.
func refreshTokenFrom(c *gin.Context) string {
	if tk, err := c.Cookie(helpers.RefreshCookie); err == nil && tk != "" {
		return tk
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func (h *UserHandler) RefreshToken(c *gin.Context) {
	pair, _, ferr := h.Svc.Refresh(c.Request.Context(), refreshTokenFrom(c))
	if ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "token refreshed", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	uid := c.GetString("userID")
	if ferr := h.Svc.Logout(c.Request.Context(), uid); ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

func (h *UserHandler) CompleteProfile(c *gin.Context) {
	uid := c.GetString("userID")

	in := userapp.CompleteProfileInput{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
		Bio:      c.PostForm("bio"),
	}

	fh, err := c.FormFile("profile_picture")
	if err == nil && fh != nil {
		if fh.Size > maxAvatarBytes {
			response.Error[any](c, http.StatusBadRequest, "profile picture too large", nil)
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "unable to read profile picture", nil)
			return
		}
		defer f.Close()
		in.Avatar = f
		in.AvatarFilename = fh.Filename
		in.AvatarContentType = fh.Header.Get("Content-Type")
	}

	u, ferr := h.Svc.CompleteProfile(c.Request.Context(), uid, in)
	if ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	response.Success(c, http.StatusOK, u, "profile completed", nil)
}

func (h *UserHandler) Me(c *gin.Context) {
	uid := c.GetString("userID")
	u, ferr := h.Svc.GetProfile(c.Request.Context(), uid)
	if ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	response.Success(c, http.StatusOK, u, "profile", nil)
}

func (h *UserHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	hits, ferr := h.Svc.SearchUsers(c.Request.Context(), q, 20)
	if ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}

func (h *UserHandler) Enable2FA(c *gin.Context) {
	uid := c.GetString("userID")
	enr, ferr := h.Svc.BeginTwoFactorEnrollment(c.Request.Context(), uid)
	if ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{
		"secret":      enr.Secret,
		"otpauth_url": enr.URI,
	}, "scan the QR code with your authenticator app, then confirm with a code", nil)
}

type verify2FARequest struct {
	Code string `json:"code" binding:"required,totpcode"`
}

func (h *UserHandler) Verify2FA(c *gin.Context) {
	uid := c.GetString("userID")
	var req verify2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if ferr := h.Svc.ConfirmTwoFactorEnrollment(c.Request.Context(), uid, req.Code); ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"two_factor_enabled": true}, "two-factor authentication enabled", nil)
}
