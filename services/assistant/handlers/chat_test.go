// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianClaims/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianClaims/services/assistant/middleware"
	"github.com/AleutianAI/AleutianClaims/services/assistant/rag"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockGenerator struct {
	result      rag.Result
	lastQuery   string
	lastUserID  string
	lastHistory []datatypes.ConversationTurn
}

func (m *mockGenerator) GenerateResponse(_ context.Context, query, userID string, history []datatypes.ConversationTurn) rag.Result {
	m.lastQuery = query
	m.lastUserID = userID
	m.lastHistory = history
	return m.result
}

type mockStore struct {
	saved   chan datatypes.ChatTurn
	history []datatypes.ConversationTurn
}

func newMockStore() *mockStore {
	return &mockStore{saved: make(chan datatypes.ChatTurn, 1)}
}

func (m *mockStore) SaveTurn(turn datatypes.ChatTurn) error {
	m.saved <- turn
	return nil
}

func (m *mockStore) LoadHistory(context.Context, string, int) ([]datatypes.ConversationTurn, error) {
	return m.history, nil
}

func newChatRouter(gen ResponseGenerator, store ConversationStore) *gin.Engine {
	router := gin.New()
	handler := NewChatHandler(gen, store)
	group := router.Group("/api/v1/chatbot")
	group.Use(middleware.AuthMiddleware(middleware.NopAuthProvider{}))
	group.POST("/chat", handler.Chat)
	return router
}

func postChat(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chatbot/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChat_Success(t *testing.T) {
	gen := &mockGenerator{result: rag.Result{
		Response: "Your deductible is $500",
		Sources:  []datatypes.ChatSource{{Label: "policy.pdf (Policy)", URL: "https://signed.example/doc"}},
	}}
	router := newChatRouter(gen, nil)

	w := postChat(t, router, `{"message": "What is my deductible?"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Your deductible is $500", resp.Response)
	assert.Equal(t, "What is my deductible?", resp.Message)
	assert.NotEmpty(t, resp.SessionID, "a session id is minted when the client sends none")
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "policy.pdf (Policy)", resp.Sources[0].Label)

	assert.Equal(t, "local-user", gen.lastUserID,
		"the pipeline identity comes from auth, never from the body")
}

func TestChat_UserIDInBodyIsIgnored(t *testing.T) {
	gen := &mockGenerator{result: rag.Result{Response: "ok"}}
	router := newChatRouter(gen, nil)

	w := postChat(t, router, `{"message": "hi", "user_id": "someone-else"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "local-user", gen.lastUserID)
}

func TestChat_SessionIDRoundTrips(t *testing.T) {
	gen := &mockGenerator{result: rag.Result{Response: "ok"}}
	router := newChatRouter(gen, nil)

	sessionID := "0b9fc9a2-52dc-4aef-8b05-5e6d70c770e8"
	w := postChat(t, router, `{"message": "hi", "session_id": "`+sessionID+`"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, sessionID, resp.SessionID)
}

func TestChat_ClientHistoryReachesPipeline(t *testing.T) {
	gen := &mockGenerator{result: rag.Result{Response: "ok"}}
	router := newChatRouter(gen, nil)

	w := postChat(t, router, `{
		"message": "clarify",
		"history": [
			{"role": "user", "content": "What is my deductible?"},
			{"role": "assistant", "content": "Your deductible is $500"}
		]
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gen.lastHistory, 2)
	assert.Equal(t, "Your deductible is $500", gen.lastHistory[1].Content)
}

func TestChat_NoContextResponse(t *testing.T) {
	gen := &mockGenerator{result: rag.Result{
		Response:  rag.RefusalMessage,
		Sources:   []datatypes.ChatSource{},
		NoContext: true,
	}}
	router := newChatRouter(gen, nil)

	w := postChat(t, router, `{"message": "unanswerable"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.NoContext)
	assert.Equal(t, rag.RefusalMessage, resp.Response)
}

func TestChat_RefusalTurnIsPersisted(t *testing.T) {
	gen := &mockGenerator{result: rag.Result{
		Response:  rag.RefusalMessage,
		NoContext: true,
	}}
	store := newMockStore()
	router := newChatRouter(gen, store)

	w := postChat(t, router, `{"message": "unanswerable"}`)
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case turn := <-store.saved:
		assert.Equal(t, "unanswerable", turn.Question)
		assert.Equal(t, rag.RefusalMessage, turn.Answer,
			"refusals belong in the transcript too")
		assert.Equal(t, "local-user", turn.UserId)
	case <-time.After(time.Second):
		t.Fatal("chat turn was never persisted")
	}
}

func TestChat_StoredHistoryReachesPipeline(t *testing.T) {
	gen := &mockGenerator{result: rag.Result{Response: "ok"}}
	store := newMockStore()
	store.history = []datatypes.ConversationTurn{
		{Role: datatypes.RoleUser, Content: "What is my deductible?"},
		{Role: datatypes.RoleAssistant, Content: "Your deductible is $500"},
	}
	router := newChatRouter(gen, store)

	w := postChat(t, router, `{"message": "clarify"}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gen.lastHistory, 2)
	assert.Equal(t, "Your deductible is $500", gen.lastHistory[1].Content)
	<-store.saved
}

func TestChat_BadRequests(t *testing.T) {
	gen := &mockGenerator{result: rag.Result{Response: "ok"}}
	router := newChatRouter(gen, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"message": `},
		{"missing message", `{}`},
		{"bad session id", `{"message": "hi", "session_id": "nope"}`},
		{"bad history role", `{"message": "hi", "history": [{"role": "system", "content": "x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postChat(t, router, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestVocabularyEndpoints(t *testing.T) {
	router := gin.New()
	vocab := NewVocabularyHandler()
	router.GET("/vocabulary", vocab.ListTerms)
	router.GET("/vocabulary/:term", vocab.GetTerm)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vocabulary", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deductible")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vocabulary/claim", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var term datatypes.VocabularyTermResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &term))
	assert.Equal(t, "Formal request for insurance coverage/payment", term.Definition)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vocabulary/unknown-term", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	router := gin.New()
	router.GET("/health", Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
