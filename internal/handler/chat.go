package handler

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"trading-assistant/internal/advisor"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

const (
	wsReadLimit    = 8 << 10
	wsIdleTimeout  = 5 * time.Minute
	wsWriteTimeout = 10 * time.Second
)

// Web conversations get ids in (webChatIDBase-webChatIDSpan, webChatIDBase],
// far below Telegram group ids and SSH session ids.
const (
	webChatIDBase int64 = -(1 << 62)
	webChatIDSpan int64 = 1 << 60
)

var errForeignChatID = errors.New("chat_id was not issued by this API")

func newWebChatID() int64 {
	return webChatIDBase - rand.Int64N(webChatIDSpan)
}

func isWebChatID(id int64) bool {
	return id <= webChatIDBase && id > webChatIDBase-webChatIDSpan
}

// resolveChatID opens a new conversation for a zero id and otherwise only
// resumes ids previously handed out by newWebChatID.
func resolveChatID(id int64) (int64, error) {
	if id == 0 {
		return newWebChatID(), nil
	}
	if !isWebChatID(id) {
		return 0, errForeignChatID
	}
	return id, nil
}

type chatRequest struct {
	ChatID  int64  `json:"chat_id"`
	Message string `json:"message" binding:"required"`
}

type chatResponse struct {
	ChatID int64  `json:"chat_id"`
	Reply  string `json:"reply,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (h *Handler) PostChat(c *gin.Context) {
	if h.advisor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advisor unavailable"})
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	chatID, err := resolveChatID(req.ChatID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.post-chat")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat.id", chatID))

	reply, err := h.advisor.Ask(ctx, chatID, req.Message)
	if err != nil {
		status := chatStatus(err)
		if status >= http.StatusInternalServerError {
			h.log.Warnw("chat request failed", "chat_id", chatID, "error", err)
		}
		c.JSON(status, chatResponse{ChatID: chatID, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, chatResponse{ChatID: chatID, Reply: reply})
}

func chatStatus(err error) int {
	switch {
	case errors.Is(err, advisor.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, advisor.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ChatSocket upgrades to a websocket and answers one chatResponse per
// incoming text frame. ?chat_id= resumes an issued conversation; otherwise
// the connection gets its own.
func (h *Handler) ChatSocket(c *gin.Context) {
	if h.advisor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advisor unavailable"})
		return
	}

	requested, err := strconv.ParseInt(c.DefaultQuery("chat_id", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat_id must be an integer"})
		return
	}
	chatID, err := resolveChatID(requested)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	ctx := c.Request.Context()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debugw("websocket closed", "chat_id", chatID, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		resp := h.socketReply(ctx, chatID, string(payload))
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (h *Handler) socketReply(ctx context.Context, chatID int64, message string) chatResponse {
	ctx, span := h.tracer.Start(ctx, "handler.ws-chat")
	defer span.End()

	reply, err := h.advisor.Ask(ctx, chatID, message)
	if err != nil {
		return chatResponse{ChatID: chatID, Error: err.Error()}
	}
	return chatResponse{ChatID: chatID, Reply: reply}
}
