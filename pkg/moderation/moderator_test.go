package moderation

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	reply string
	err   error
	seen  openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.seen = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func TestReviewApproved(t *testing.T) {
	fake := &fakeCompleter{reply: `{"approved": true, "reason": "fine"}`}
	m := &Moderator{client: fake, model: "gpt-4o-mini"}

	v, err := m.Review(context.Background(), "The lectures were dense but fair.")
	require.NoError(t, err)
	assert.True(t, v.Approved)
	assert.Equal(t, "gpt-4o-mini", fake.seen.Model)
	assert.EqualValues(t, 0, fake.seen.Temperature)
}

func TestReviewRejected(t *testing.T) {
	fake := &fakeCompleter{reply: `{"approved": false, "reason": "personal attack"}`}
	m := &Moderator{client: fake, model: "gpt-4o-mini"}

	v, err := m.Review(context.Background(), "the lecturer is an idiot")
	require.NoError(t, err)
	assert.False(t, v.Approved)
	assert.Equal(t, "personal attack", v.Reason)
}

func TestReviewVerdictWrappedInProse(t *testing.T) {
	fake := &fakeCompleter{reply: "Sure, here is my verdict:\n{\"allowed\": true, \"reason\": \"ok\"}\nDone."}
	m := &Moderator{client: fake, model: "m"}

	v, err := m.Review(context.Background(), "text")
	require.NoError(t, err)
	assert.True(t, v.Approved)
}

func TestReviewUnparsableDefaultsToReject(t *testing.T) {
	fake := &fakeCompleter{reply: "I cannot decide."}
	m := &Moderator{client: fake, model: "m"}

	v, err := m.Review(context.Background(), "text")
	require.NoError(t, err)
	assert.False(t, v.Approved)
	assert.NotEmpty(t, v.Reason)
}

func TestReviewTransportErrorSurfaces(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("connection refused")}
	m := &Moderator{client: fake, model: "m"}

	_, err := m.Review(context.Background(), "text")
	assert.Error(t, err)
}
