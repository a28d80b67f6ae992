package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetRSI returns the RSI reading for ?q=<asset>[,<period>].
func (h *Handler) GetRSI(c *gin.Context) {
	if h.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-rsi")
	defer span.End()

	query := strings.TrimSpace(c.Query("q"))
	span.SetAttributes(attribute.String("query", query))

	report, err := h.assistant.RSIReport(ctx, query)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Warnw("rsi request failed", "query", query, "error", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) GetPrice(c *gin.Context) {
	h.answer(c, "handler.get-price", func(a Assistant) func(context.Context, string) string { return a.CryptoPrice })
}

func (h *Handler) GetForex(c *gin.Context) {
	h.answer(c, "handler.get-forex", func(a Assistant) func(context.Context, string) string { return a.ForexRate })
}

func (h *Handler) GetNews(c *gin.Context) {
	h.answer(c, "handler.get-news", func(a Assistant) func(context.Context, string) string { return a.News })
}

// answer serves the text tools, which report their own failures in the text.
func (h *Handler) answer(c *gin.Context, spanName string, pick func(Assistant) func(context.Context, string) string) {
	if h.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant unavailable"})
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), spanName)
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	c.JSON(http.StatusOK, gin.H{
		"query":  query,
		"answer": pick(h.assistant)(ctx, query),
	})
}
