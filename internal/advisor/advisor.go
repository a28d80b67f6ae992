package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trading-assistant/pkg/logger"

	"github.com/openai/openai-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxHistory    = 20
	defaultMaxToolRounds = 4

	fallbackAnswer = "I couldn't put together an answer. Please try rephrasing the question."

	systemPrompt = "You are a trading assistant for cryptocurrency and forex markets. " +
		"Use the available tools for live prices, exchange rates, RSI readings and news; " +
		"never invent market numbers. Quote tool results accurately and keep answers short. " +
		"You provide information, not financial advice."
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrUnavailable  = errors.New("advisor is not configured")
)

// AdvisorService runs a chat turn through the LLM, executing any tool calls
// it requests, and remembers the exchange per chat.
type AdvisorService struct {
	tracer        trace.Tracer
	llm           LLMClient
	tools         Toolbox
	store         ConversationStore
	model         string
	maxHistory    int
	maxToolRounds int
	log           *logger.Logger
}

func NewAdvisorService(
	tracer trace.Tracer,
	llm LLMClient,
	tools Toolbox,
	store ConversationStore,
	model string,
	maxHistory int,
) *AdvisorService {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	if store == nil {
		store = NewInMemoryConversationStore(maxHistory * 2)
	}
	return &AdvisorService{
		tracer:        tracer,
		llm:           llm,
		tools:         tools,
		store:         store,
		model:         model,
		maxHistory:    maxHistory,
		maxToolRounds: defaultMaxToolRounds,
		log:           logger.Get().With("component", "advisor"),
	}
}

// WithMaxToolRounds caps how many tool-call rounds one question may use.
func (s *AdvisorService) WithMaxToolRounds(n int) *AdvisorService {
	if n > 0 {
		s.maxToolRounds = n
	}
	return s
}

func (s *AdvisorService) Ask(ctx context.Context, chatID int64, message string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.ask")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat.id", chatID))

	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if s.llm == nil {
		return "", ErrUnavailable
	}

	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(systemPrompt)}
	history, err := s.store.RecentMessages(ctx, chatID, s.maxHistory)
	if err != nil {
		s.log.Warnw("load conversation history failed", "chat_id", chatID, "error", err)
	}
	for _, m := range history {
		switch m.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	answer, err := s.complete(ctx, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if err := s.store.AppendMessage(ctx, chatID, RoleUser, message); err != nil {
		s.log.Warnw("persist user message failed", "chat_id", chatID, "error", err)
	}
	if err := s.store.AppendMessage(ctx, chatID, RoleAssistant, answer); err != nil {
		s.log.Warnw("persist assistant message failed", "chat_id", chatID, "error", err)
	}
	return answer, nil
}

func (s *AdvisorService) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	tools := toolDefinitions()

	for round := 0; ; round++ {
		params := openai.ChatCompletionNewParams{
			Model:    s.model,
			Messages: messages,
		}
		// The last round withholds tools so the model has to answer.
		if round < s.maxToolRounds && s.tools != nil {
			params.Tools = tools
		}

		resp, err := s.llm.Complete(ctx, params)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if resp == nil || len(resp.Choices) == 0 {
			return "", errors.New("chat completion returned no choices")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 || params.Tools == nil {
			answer := strings.TrimSpace(msg.Content)
			if answer == "" {
				answer = fallbackAnswer
			}
			return answer, nil
		}

		messages = append(messages, msg.ToParam())
		for _, call := range msg.ToolCalls {
			result := s.runTool(ctx, call.Function.Name, call.Function.Arguments)
			messages = append(messages, openai.ToolMessage(result, call.ID))
		}
	}
}

func (s *AdvisorService) runTool(ctx context.Context, name, arguments string) string {
	ctx, span := s.tracer.Start(ctx, "advisor.tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name))

	result := RunTool(ctx, s.tools, name, arguments)
	s.log.Debugw("tool call", "tool", name, "arguments", arguments)
	return result
}
