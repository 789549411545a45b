package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clientDirectory/internal/auth"
)

// Login exchanges credentials for a bearer token.
//
//	@Summary		Log in
//	@Description	Exchanges username and password for a JWT bearer token.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	DataResponse{data=TokenResponse}
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if u == nil {
		unauthorized(c, auth.ErrBadCredentials.Error())
		return
	}
	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		h.logger.Info("login rejected", zap.String("username", req.Username))
		unauthorized(c, err.Error())
		return
	}
	token, exp, err := auth.IssueToken(h.secret, h.tokenTTL, u)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: exp,
		User:      u,
	}})
}

// Me returns the caller's stored account.
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	DataResponse{data=models.User}
//	@Failure	401	{object}	ErrorResponse
//	@Router		/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	p := h.principal(c)
	u, err := h.users.GetByID(c.Request.Context(), p.UserID)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if u == nil {
		unauthorized(c, "account no longer exists")
		return
	}
	success(c, u)
}
