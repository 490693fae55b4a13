package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type createCheckoutRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) CreateCheckoutSession(c *gin.Context) {
	productID := strings.TrimSpace(c.Param("id"))
	if productID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	var req createCheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	redirectURL, err := s.checkoutSvc.Create(c.Request.Context(), productID, strings.TrimSpace(req.UserID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, redirectURL)
}
