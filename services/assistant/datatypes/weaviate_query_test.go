// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
)

func TestParseGraphQLResponse_ChatSession(t *testing.T) {
	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{
				"ClaimChatSession": []interface{}{
					map[string]interface{}{
						"session_id": "sess-1",
						"user_id":    "user-1",
						"_additional": map[string]interface{}{
							"id": "11111111-2222-3333-4444-555555555555",
						},
					},
				},
			},
		},
	}

	parsed, err := ParseGraphQLResponse[ChatSessionQueryResponse](resp)
	require.NoError(t, err)
	require.Len(t, parsed.Get.ClaimChatSession, 1)

	session := parsed.Get.ClaimChatSession[0]
	assert.Equal(t, "sess-1", session.SessionID)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", session.Additional.ID)
}

func TestParseGraphQLResponse_EmptyResult(t *testing.T) {
	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{
				"ClaimChatTurn": []interface{}{},
			},
		},
	}

	parsed, err := ParseGraphQLResponse[ChatTurnQueryResponse](resp)
	require.NoError(t, err)
	assert.Empty(t, parsed.Get.ClaimChatTurn)
}

func TestHistoryFromRows_NewestFirstBecomesChronological(t *testing.T) {
	// Rows arrive newest first, as the session-history query sorts them.
	rows := []ChatTurnResult{
		{Question: "third question", Answer: "third answer", Timestamp: 3000},
		{Question: "second question", Answer: "", Timestamp: 2000},
		{Question: "first question", Answer: "first answer", Timestamp: 1000},
	}

	history := historyFromRows(rows)

	require.Len(t, history, 5)
	assert.Equal(t, ConversationTurn{Role: RoleUser, Content: "first question"}, history[0])
	assert.Equal(t, ConversationTurn{Role: RoleAssistant, Content: "first answer"}, history[1])
	assert.Equal(t, ConversationTurn{Role: RoleUser, Content: "second question"}, history[2],
		"a blank answer drops only the assistant half of the turn")
	assert.Equal(t, ConversationTurn{Role: RoleAssistant, Content: "third answer"}, history[4])
}

func TestHistoryFromRows_Empty(t *testing.T) {
	assert.Empty(t, historyFromRows(nil))
	assert.Empty(t, historyFromRows([]ChatTurnResult{{Question: " ", Answer: ""}}))
}

func TestChatTurnProperties_ToMap(t *testing.T) {
	props := ChatTurnProperties{
		SessionId: "sess-1",
		UserId:    "user-1",
		Question:  "q",
		Answer:    "a",
		Timestamp: 1700000000,
	}

	m := props.ToMap()

	assert.Equal(t, "sess-1", m["session_id"])
	assert.Equal(t, "q", m["question"])
	assert.Equal(t, "a", m["answer"])
	assert.Equal(t, int64(1700000000), m["timestamp"])
}

func TestWithSessionBeacon(t *testing.T) {
	props := (&ChatTurnProperties{SessionId: "sess-1"}).ToMap()

	WithSessionBeacon(props, "11111111-2222-3333-4444-555555555555")

	refs, ok := props["inSession"].([]BeaconRef)
	require.True(t, ok)
	require.Len(t, refs, 1)
	assert.Equal(t,
		"weaviate://localhost/ClaimChatSession/11111111-2222-3333-4444-555555555555",
		refs[0].Beacon)
}

func TestChatSchemas(t *testing.T) {
	session := GetChatSessionSchema()
	assert.Equal(t, "ClaimChatSession", session.Class)
	assert.Equal(t, "none", session.Vectorizer, "chat persistence needs no vectors")

	turn := GetChatTurnSchema()
	assert.Equal(t, "ClaimChatTurn", turn.Class)

	var hasBeacon bool
	for _, prop := range turn.Properties {
		if prop.Name == "inSession" {
			hasBeacon = true
			assert.Contains(t, prop.DataType, "ClaimChatSession")
		}
	}
	assert.True(t, hasBeacon, "turns must reference their session")
}
