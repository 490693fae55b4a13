package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) HandlePurchaseSuccess(c *gin.Context) {
	var query struct {
		SessionID string `form:"sessionId"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sessionID := strings.TrimSpace(query.SessionID)
	if sessionID == "" {
		AbortWithError(c, newValidationError("sessionId", "invalid_session_id", "invalid session id"))
		return
	}

	if _, err := s.fulfillSvc.Fulfill(c.Request.Context(), sessionID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, s.cfg.PurchaseRedirectURL)
}
