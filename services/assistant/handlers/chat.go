// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP surface of the claims assistant.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianClaims/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianClaims/services/assistant/middleware"
	"github.com/AleutianAI/AleutianClaims/services/assistant/rag"
)

// ResponseGenerator is the pipeline behind the chat endpoint. *rag.Service
// satisfies it.
type ResponseGenerator interface {
	GenerateResponse(ctx context.Context, query, userID string, history []datatypes.ConversationTurn) rag.Result
}

// ConversationStore persists chat turns and recalls session history.
// *datatypes.Store satisfies it.
type ConversationStore interface {
	SaveTurn(turn datatypes.ChatTurn) error
	LoadHistory(ctx context.Context, sessionID string, maxTurns int) ([]datatypes.ConversationTurn, error)
}

// ChatHandler serves POST /api/v1/chatbot/chat.
type ChatHandler struct {
	generator ResponseGenerator
	store     ConversationStore // nil disables persistence and history recall
}

// NewChatHandler builds the handler. store may be nil.
func NewChatHandler(generator ResponseGenerator, store ConversationStore) *ChatHandler {
	return &ChatHandler{generator: generator, store: store}
}

// Chat answers one user message.
//
// # Description
//
//	Validates the request, resolves the caller identity from the auth
//	middleware, loads persisted session history when the client sent
//	none, runs the RAG pipeline, and persists the finished turn
//	asynchronously so response latency does not pay for storage.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req datatypes.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	auth, ok := middleware.GetAuthInfo(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	req.EnsureSessionID()

	// Client-supplied history wins; otherwise recall what we stored.
	history := req.History
	if len(history) == 0 && h.store != nil {
		loaded, err := h.store.LoadHistory(c.Request.Context(), req.SessionID, datatypes.MaxHistoryTurnsPerRequest)
		if err != nil {
			slog.Warn("Could not load session history", "session_id", req.SessionID, "error", err)
		} else {
			history = loaded
		}
	}

	result := h.generator.GenerateResponse(c.Request.Context(), req.Message, auth.UserID, history)

	// Every exchange is persisted, refusals and fallbacks included, so a
	// session transcript reads back complete.
	if h.store != nil {
		turn := datatypes.ChatTurn{
			SessionId: req.SessionID,
			UserId:    auth.UserID,
			Question:  req.Message,
			Answer:    result.Response,
		}
		go func() {
			if err := h.store.SaveTurn(turn); err != nil {
				slog.Warn("Could not persist chat turn", "session_id", turn.SessionId, "error", err)
			}
		}()
	}

	c.JSON(http.StatusOK, datatypes.ChatResponse{
		SessionID: req.SessionID,
		Message:   req.Message,
		Response:  result.Response,
		Sources:   result.Sources,
		NoContext: result.NoContext,
		Timestamp: time.Now().UTC(),
	})
}
