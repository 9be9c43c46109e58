package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view     ViewType
		expected string
	}{
		{ViewMenu, "menu"},
		{ViewChat, "chat"},
		{ViewPassages, "passages"},
		{ViewSettings, "settings"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.view.String())
		})
	}
}

func TestExchange_Failed(t *testing.T) {
	t.Run("answered", func(t *testing.T) {
		e := Exchange{Question: "q", Answer: &domain.Answer{Text: "a"}}
		assert.False(t, e.Failed())
	})

	t.Run("errored", func(t *testing.T) {
		e := Exchange{Question: "q", Err: errors.New("boom")}
		assert.True(t, e.Failed())
	})

	t.Run("no answer and no error", func(t *testing.T) {
		assert.True(t, Exchange{Question: "q"}.Failed())
	})
}

func TestAnswerCompleted_CarriesError(t *testing.T) {
	err := errors.New("llm down")
	msg := AnswerCompleted{Question: "q", Err: err}

	assert.Equal(t, "q", msg.Question)
	assert.Nil(t, msg.Answer)
	assert.ErrorIs(t, msg.Err, err)
}
