package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	stripeprovider "github.com/smallbiznis/storefront/internal/providers/stripe"
	"go.uber.org/zap"
)

func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	if err := s.webhook.Verify(ctx, payload, c.Request.Header); err != nil {
		s.log.Warn("webhook signature rejected", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	event, err := s.webhook.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, stripeprovider.ErrEventIgnored) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		AbortWithError(c, invalidRequestError())
		return
	}

	s.obsMetrics.RecordWebhookEvent(ctx, event.Type)

	result, err := s.fulfillSvc.Fulfill(ctx, event.SessionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "verdict": result.Verdict})
}
