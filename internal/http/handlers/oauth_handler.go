package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dietbot/internal/http/middleware"
)

// LinkResponse confirms a linked account.
type LinkResponse struct {
	Status string `json:"status" example:"ok"`
	UserID string `json:"user_id"`
}

// OAuthStart godoc
// @Summary      Start linking a diet-tracking account
// @Description  Redirects the user to the provider's consent page; state carries the user ID.
// @Tags         oauth
// @Param        user_id  query  string  true  "User ID"
// @Success      302
// @Failure      400  {object}  ErrorResponse
// @Router       /oauth/start [get]
func (h *Handlers) OAuthStart(c *gin.Context) {
	subjectID := strings.TrimSpace(c.Query("user_id"))
	if subjectID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id is required")
		return
	}
	c.Redirect(http.StatusFound, h.OAuth.AuthCodeURL(subjectID))
}

// OAuthCallback godoc
// @Summary      Complete linking a diet-tracking account
// @Description  Exchanges the authorization code and stores the tokens for the user named by state.
// @Tags         oauth
// @Produce      json
// @Param        code   query  string  true  "Authorization code"
// @Param        state  query  string  true  "User ID"
// @Success      200  {object}  LinkResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /oauth/callback [get]
func (h *Handlers) OAuthCallback(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	state := strings.TrimSpace(c.Query("state"))
	if e := c.Query("error"); e != "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "authorization denied: "+e)
		return
	}
	if code == "" || state == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code and state are required")
		return
	}
	if err := h.OAuth.Exchange(c.Request.Context(), state, code); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("oauth exchange failed")
		fail(c, http.StatusBadGateway, ErrCodeBadGateway, "authorization code exchange failed")
		return
	}
	ok(c, http.StatusOK, LinkResponse{Status: "ok", UserID: state})
}
