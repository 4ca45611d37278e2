package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sichef/sichef/pkg/anthropic"
	anthropicmocks "github.com/sichef/sichef/pkg/anthropic/mocks"
)

var items = []Item{
	{ID: "1", Name: "Da Enzo", Address: "Via dei Vascellari 29", City: "Roma", Dish: "carbonara"},
	{ID: "2", Name: "Bonci"},
}

func respond(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: text}}}
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "Luogo: Da Enzo · Via dei Vascellari 29 · Roma", Fallback(items[0]))
	assert.Equal(t, "Luogo: Bonci", Fallback(items[1]))
	assert.Equal(t, "", Fallback(Item{ID: "3", Dish: "pizza"}))
}

func TestDescribe_Model(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(respond("```json\n{\"1\": \"Trattoria storica di Trastevere.\", \"2\": 42}\n```"), nil).Once()

	out := New(client, "").Describe(context.Background(), items)

	assert.Equal(t, map[string]string{"1": "Trattoria storica di Trastevere.", "2": ""}, out)
}

func TestDescribe_FallbackOnError(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded")).Once()

	out := New(client, "").Describe(context.Background(), items)

	assert.Equal(t, "Luogo: Bonci", out["2"])
	assert.Len(t, out, 2)
}

func TestDescribe_FallbackOnGarbage(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(respond("non so"), nil).Once()

	out := New(client, "").Describe(context.Background(), items)

	assert.Equal(t, "Luogo: Da Enzo · Via dei Vascellari 29 · Roma", out["1"])
}

func TestDescribe_NoClient(t *testing.T) {
	out := New(nil, "").Describe(context.Background(), items)
	assert.Equal(t, "Luogo: Bonci", out["2"])
}

func TestDescribe_Empty(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	out := New(client, "").Describe(context.Background(), nil)
	assert.Empty(t, out)
	assert.NotNil(t, out)
}
