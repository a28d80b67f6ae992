package handler

import (
	"context"
	"errors"
	"net/http"

	"trading-assistant/internal/domain"
	"trading-assistant/internal/service"
	"trading-assistant/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Assistant interface {
	CryptoPrice(ctx context.Context, query string) string
	ForexRate(ctx context.Context, query string) string
	News(ctx context.Context, query string) string
	RSIReport(ctx context.Context, query string) (*service.RSIReport, error)
}

type Advisor interface {
	Ask(ctx context.Context, chatID int64, message string) (string, error)
}

type Handler struct {
	tracer    trace.Tracer
	assistant Assistant
	advisor   Advisor
	log       *logger.Logger
}

func New(tracer trace.Tracer, assistant Assistant, advisor Advisor) *Handler {
	return &Handler{
		tracer:    tracer,
		assistant: assistant,
		advisor:   advisor,
		log:       logger.Get().With("component", "http"),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/rsi", h.GetRSI)
	api.GET("/price", h.GetPrice)
	api.GET("/forex", h.GetForex)
	api.GET("/news", h.GetNews)
	api.POST("/chat", h.PostChat)

	r.GET("/ws/chat", h.ChatSocket)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps lookup errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}
