// Package assistant answers recycling questions through a generative model.
package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/metrics"
)

var ErrEmptyPrompt = errors.New("empty prompt")

const (
	EmptyReply   = "Sorry, I can't handle that request right now."
	ErrorReply   = "Something went wrong while reaching the AI assistant. Please check the network connection or the API key."
	greetingText = "Hi! I'm EcoBot. Not sure which bin your trash goes in, or how to recycle something? Just ask me! 🌱"

	// maxHistory bounds how much of the session is replayed to the model.
	maxHistory = 20
)

// QuickPrompts are offered as one-click questions in the chat view.
var QuickPrompts = []string{
	"How should I dispose of plastic bottles?",
	"Where do old batteries go?",
	"Can pizza boxes be recycled?",
	"How do I compost at home?",
}

func systemInstruction(language string) string {
	return "You are EcoBot, an AI assistant specialised in recycling and waste management. " +
		"Help users sort their waste correctly, give advice on green living and explain how waste is processed. " +
		"Keep answers short and friendly, and use emoji to make them lively. " +
		"If the user asks about hazardous or electronic waste, warn them to handle it carefully. " +
		"Language: " + language + "."
}

// Model generates a reply to prompt given the earlier turns of the chat.
type Model interface {
	Generate(ctx context.Context, system string, history []domain.ChatMessage, prompt string) (string, error)
}

type Assistant struct {
	model  Model
	system string
}

// New returns an assistant; a nil model makes every answer the error fallback.
func New(model Model, language string) *Assistant {
	return &Assistant{model: model, system: systemInstruction(language)}
}

func NewMessage(role domain.ChatRole, text string) domain.ChatMessage {
	return domain.ChatMessage{ID: uuid.NewString(), Role: role, Text: text}
}

func Greeting() domain.ChatMessage {
	return NewMessage(domain.RoleModel, greetingText)
}

// Ask sends text to the model and always produces a reply message; model
// failures become the static fallback text.
func (a *Assistant) Ask(ctx context.Context, text string, history []domain.ChatMessage) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, ErrEmptyPrompt
	}

	if a.model == nil {
		metrics.AssistantRequests.WithLabelValues("fallback").Inc()
		return NewMessage(domain.RoleModel, ErrorReply), nil
	}

	reply, err := a.model.Generate(ctx, a.system, trimHistory(history), text)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("assistant request failed")
		metrics.AssistantRequests.WithLabelValues("fallback").Inc()
		reply = ErrorReply
	case strings.TrimSpace(reply) == "":
		metrics.AssistantRequests.WithLabelValues("empty").Inc()
		reply = EmptyReply
	default:
		metrics.AssistantRequests.WithLabelValues("ok").Inc()
	}
	return NewMessage(domain.RoleModel, reply), nil
}

// trimHistory keeps the newest turns and drops leading model turns (such as
// the greeting); the model expects a conversation to open with the user.
func trimHistory(history []domain.ChatMessage) []domain.ChatMessage {
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	for len(history) > 0 && history[0].Role != domain.RoleUser {
		history = history[1:]
	}
	out := make([]domain.ChatMessage, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		if m.Role != domain.RoleUser && m.Role != domain.RoleModel {
			continue
		}
		out = append(out, m)
	}
	return out
}
