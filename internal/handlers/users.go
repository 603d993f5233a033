package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Single, shared credentials payload for both registration and login.
type authCredentials struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"s3cr3t!"`
}

// @Summary      Register
// @Description  Creates a user and opens its first session; the token is returned in the x-auth header.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "Credentials"
// @Success      200   {object}  models.PublicUser
// @Header       200   {string}  x-auth  "Session token"
// @Failure      400   {object}  map[string]string
// @Router       /users [post]
func (h *Handler) signUp(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	user, token, err := h.services.SignUp(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.log.Infow("auth_sign_up_failed", "email", input.Email, "err", err)
		h.respondError(c, err, http.StatusBadRequest, "auth_sign_up_failed")
		return
	}

	c.Header(authHeader, token)
	c.JSON(http.StatusOK, user.Public())
}

// @Summary      Log in
// @Description  Opens an additional session; existing sessions stay valid.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "Credentials"
// @Success      200   {object}  models.PublicUser
// @Header       200   {string}  x-auth  "Session token"
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /users/login [post]
func (h *Handler) signIn(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	user, token, err := h.services.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.log.Infow("auth_sign_in_failed", "email", input.Email, "err", err)
		h.respondError(c, err, http.StatusBadRequest, "auth_sign_in_failed")
		return
	}

	c.Header(authHeader, token)
	c.JSON(http.StatusOK, user.Public())
}

// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  models.PublicUser
// @Failure      401
// @Router       /users/me [get]
// @Security     TokenAuth
func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c).Public())
}

// @Summary      Log out
// @Description  Revokes the token presented in x-auth only.
// @Tags         users
// @Success      200
// @Failure      400
// @Failure      401
// @Router       /users/me/token [delete]
// @Security     TokenAuth
func (h *Handler) signOut(c *gin.Context) {
	user := currentUser(c)
	if err := h.services.SignOut(c.Request.Context(), user, currentToken(c)); err != nil {
		h.log.Errorw("auth_sign_out_failed", "user", user.ID.Hex(), "err", err)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	c.Status(http.StatusOK)
}
