// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ChatRequest
		wantErr bool
	}{
		{
			name: "valid minimal",
			req:  ChatRequest{Message: "What is my deductible?"},
		},
		{
			name: "valid with session and history",
			req: ChatRequest{
				Message:   "and then?",
				SessionID: uuid.New().String(),
				History: []ConversationTurn{
					{Role: RoleUser, Content: "What is my deductible?"},
					{Role: RoleAssistant, Content: "Your deductible is $500"},
				},
			},
		},
		{
			name:    "empty message",
			req:     ChatRequest{Message: ""},
			wantErr: true,
		},
		{
			name:    "oversized message",
			req:     ChatRequest{Message: strings.Repeat("a", MaxMessageContentBytes+1)},
			wantErr: true,
		},
		{
			name:    "malformed session id",
			req:     ChatRequest{Message: "hi", SessionID: "not-a-uuid"},
			wantErr: true,
		},
		{
			name: "invalid history role",
			req: ChatRequest{
				Message: "hi",
				History: []ConversationTurn{{Role: "system", Content: "sneaky"}},
			},
			wantErr: true,
		},
		{
			name: "oversized history turn",
			req: ChatRequest{
				Message: "hi",
				History: []ConversationTurn{{Role: RoleUser, Content: strings.Repeat("a", MaxMessageContentBytes+1)}},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChatRequest_HistoryLengthCap(t *testing.T) {
	req := ChatRequest{Message: "hi"}
	for i := 0; i <= MaxHistoryTurnsPerRequest; i++ {
		req.History = append(req.History, ConversationTurn{Role: RoleUser, Content: "x"})
	}
	assert.Error(t, req.Validate())

	req.History = req.History[:MaxHistoryTurnsPerRequest]
	assert.NoError(t, req.Validate())
}

func TestChatRequest_EnsureSessionID(t *testing.T) {
	req := ChatRequest{Message: "hi"}
	got := req.EnsureSessionID()

	require.NotEmpty(t, got)
	assert.Equal(t, got, req.SessionID)
	_, err := uuid.Parse(got)
	assert.NoError(t, err, "a generated session id must be a valid UUID")

	again := req.EnsureSessionID()
	assert.Equal(t, got, again, "an existing session id is never replaced")
}

func TestChatResponse_JSONShape(t *testing.T) {
	resp := ChatResponse{
		SessionID: "s",
		Message:   "q",
		Response:  "a",
		Sources:   []ChatSource{{Label: "policy.pdf (Policy)"}},
	}

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	body := string(raw)
	assert.Contains(t, body, `"session_id":"s"`)
	assert.NotContains(t, body, "no_context", "the flag is omitted on normal answers")
	assert.NotContains(t, body, `"url"`, "empty source URLs are omitted")

	resp.NoContext = true
	raw, err = json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"no_context":true`)
}
