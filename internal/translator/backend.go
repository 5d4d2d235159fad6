package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/MimeLyc/sentence-sub-translator/internal/llm"
	"github.com/MimeLyc/sentence-sub-translator/internal/termmap"
	"github.com/MimeLyc/sentence-sub-translator/pkg/log"
)

// DefaultModel is sent when neither the request nor the client names one.
const DefaultModel = "local-model"

const disconnectedMessage = "Could not connect to the translation backend API"

// LLMBackend is a Backend backed by an OpenAI-compatible chat API.
type LLMBackend struct {
	client *llm.Client

	mu       sync.RWMutex
	glossary termmap.TermMap
}

// NewLLMBackend wraps client.
func NewLLMBackend(client *llm.Client) *LLMBackend {
	return &LLMBackend{client: client}
}

// SetGlossary replaces the fixed translations added to prompts.
func (b *LLMBackend) SetGlossary(tm termmap.TermMap) {
	b.mu.Lock()
	b.glossary = tm
	b.mu.Unlock()
}

// Glossary returns the current glossary.
func (b *LLMBackend) Glossary() termmap.TermMap {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.glossary
}

// CheckConnection lists models first and falls back to probing the API
// root, which reports connected with no models.
func (b *LLMBackend) CheckConnection(ctx context.Context) ConnectionStatus {
	models, err := b.client.GetModels(ctx)
	if err == nil {
		status := ConnectionStatus{Connected: true, Models: make([]Model, 0, len(models))}
		for _, m := range models {
			status.Models = append(status.Models, Model{ID: m.ID})
		}
		return status
	}
	log.Debug("Model listing failed, probing %s: %v", b.client.BaseURL(), err)

	if err := b.client.Ping(ctx); err != nil {
		log.Warn("Translation backend unreachable: %v", err)
		return ConnectionStatus{Connected: false, Models: []Model{}, Error: disconnectedMessage}
	}
	return ConnectionStatus{Connected: true, Models: []Model{}}
}

// TranslateText asks the model for a plain translation of text.
func (b *LLMBackend) TranslateText(
	ctx context.Context,
	text string,
	languageName string,
	model string,
	temperature float64,
	maxTokens int,
) (string, error) {
	if model == "" {
		model = DefaultModel
	}

	opts := llm.NewChatCompletionOptions().
		WithSystemPrompt(b.systemPrompt(text, languageName)).
		WithModel(model).
		WithTemperature(temperature).
		WithMaxTokens(maxTokens)

	resp, err := b.client.ChatCompletion(ctx, []llm.Message{{Role: "user", Content: text}}, opts)
	if err != nil {
		return "", backendError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", backendError("chat completion", fmt.Errorf("no choices in response"))
	}

	choice := resp.Choices[0]
	if choice.Truncated() {
		return "", backendError("chat completion", fmt.Errorf("%w (max_tokens=%d)", ErrTruncated, maxTokens))
	}

	return strings.TrimSpace(choice.Message.Content), nil
}

func (b *LLMBackend) systemPrompt(text, languageName string) string {
	prompt := fmt.Sprintf("You are a professional translator. Translate the following text into %s. Only respond with the translated text, nothing else.", languageName)

	if terms := termmap.Match(b.Glossary(), text).Prompt(); terms != "" {
		prompt += "\n\n" + terms
	}
	return prompt
}
