package model

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_CannedResponse(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("hola", "buenos días")

	respCh, errCh := m.Generate(context.Background(), Request{Prompt: "hola"})
	final, err := Collect(respCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "buenos días", final.Content)
	assert.Equal(t, "stop", final.FinishReason)
	require.NotNil(t, final.Usage)
}

func TestMockModel_StreamingEmitsPartials(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("q", "abc")

	respCh, errCh := m.Generate(context.Background(), Request{Prompt: "q", Stream: true})
	var chunks []string
	var final Response
	for resp := range respCh {
		if resp.Partial {
			chunks = append(chunks, resp.Content)
			continue
		}
		final = resp
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, "abc", strings.Join(chunks, ""))
	assert.Equal(t, "abc", final.Content)
}

func TestMockModel_EmptyPromptFails(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	respCh, errCh := m.Generate(context.Background(), Request{})
	_, err := Collect(respCh, errCh)
	assert.Error(t, err)
}

func TestMockModel_Cancellation(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	respCh, errCh := m.Generate(ctx, Request{Prompt: "q", Stream: true})
	for range respCh {
	}
	assert.ErrorIs(t, <-errCh, context.Canceled)
}
