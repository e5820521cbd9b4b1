// Package moderation gates user-submitted review text through an
// OpenAI-compatible chat model before it is allowed into a document.
package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Verdict is the oracle's answer for one piece of text.
type Verdict struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

// IModerator is what the session machine depends on.
type IModerator interface {
	Review(ctx context.Context, text string) (*Verdict, error)
}

// chatCompleter is the slice of the openai client we use; tests plug a fake.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Moderator struct {
	client chatCompleter
	model  string
}

var _ IModerator = &Moderator{}

const systemPrompt = `You review short pieces of text submitted to a public course-review repository.
Reject text that contains personal attacks, doxxing, slurs, spam, or content unrelated to studying a course.
Honest negative opinions about a course or its teaching are allowed.
Answer with a single JSON object and nothing else: {"approved": true|false, "reason": "<short reason>"}`

func NewModerator(apiKey, baseURL, model string) *Moderator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Moderator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Review asks the model for a verdict. A transport failure is returned as an
// error so the caller can retry; a reply that cannot be parsed as a verdict is
// treated as a rejection.
func (m *Moderator) Review(ctx context.Context, text string) (*Verdict, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("moderation: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("moderation: completion returned no choices")
	}
	return parseVerdict(resp.Choices[0].Message.Content), nil
}

// parseVerdict extracts the JSON verdict from the model reply. Anything the
// parser cannot make sense of becomes a rejection rather than a pass.
func parseVerdict(reply string) *Verdict {
	raw := strings.TrimSpace(reply)
	if i := strings.Index(raw, "{"); i >= 0 {
		if j := strings.LastIndex(raw, "}"); j > i {
			raw = raw[i : j+1]
		}
	}
	var v Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return &Verdict{Approved: false, Reason: "moderation reply was not understood"}
	}
	if !v.Approved && v.Reason == "" {
		v.Reason = "rejected by moderation"
	}
	return &v
}
