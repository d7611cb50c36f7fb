// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the claims assistant service.
//
// This file contains the request and response types for the chatbot
// endpoints, plus the conversation-turn types shared by the RAG pipeline.
// For Weaviate persistence of chat turns, see conversation.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Constants for Security Compliance
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single message or
	// history turn. Unbounded message input mitigation.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxHistoryTurnsPerRequest is the maximum number of history turns a
	// caller may supply in one request.
	MaxHistoryTurnsPerRequest = 100
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes enforces the MaxMessageContentBytes limit on a string
// field. Checks byte length (not rune count) to prevent memory exhaustion
// with large payloads.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Conversation Types
// =============================================================================

// ConversationTurn is a single prior turn of the chat, most-recent-last.
// Turns are immutable once created and supplied by the caller per request.
type ConversationTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"maxbytes"`
}

// =============================================================================
// Chat Request / Response Types
// =============================================================================

// ChatRequest is the body of POST /api/v1/chatbot/chat.
//
// The user id is deliberately NOT part of the request body — it comes from
// the authenticated identity. Accepting it from the client would let one
// user retrieve another user's documents through the ACL filter.
//
// # Fields
//
//   - Message: Required. The user's question. Limited to 32KB.
//   - SessionID: Optional. Chat session to continue; a new UUID is
//     generated when absent.
//   - History: Optional. Recent turns supplied by the caller. When empty
//     and a session id is given, the handler loads the persisted turns.
type ChatRequest struct {
	Message   string             `json:"message" validate:"required,maxbytes"`
	SessionID string             `json:"session_id" validate:"omitempty,uuid4"`
	History   []ConversationTurn `json:"history" validate:"max=100,dive"`
}

// Validate validates the ChatRequest fields using the shared validator.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// EnsureSessionID returns the request's session id, generating and storing
// a new UUID when the caller did not provide one.
func (r *ChatRequest) EnsureSessionID() string {
	if r.SessionID == "" {
		r.SessionID = generateUUID()
	}
	return r.SessionID
}

// ChatSource is a user-facing citation: a label plus an optional resolved
// link. Knowledge-base citations carry no URL.
type ChatSource struct {
	Label string `json:"label"`
	URL   string `json:"url,omitempty"`
}

// ChatResponse is the body returned by POST /api/v1/chatbot/chat.
//
// NoContext marks turns the hallucination gate refused: the fixed refusal
// text is returned and no generation was attempted.
type ChatResponse struct {
	SessionID string       `json:"session_id"`
	Message   string       `json:"message"`
	Response  string       `json:"response"`
	Sources   []ChatSource `json:"sources"`
	NoContext bool         `json:"no_context,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// =============================================================================
// Feedback Types
// =============================================================================

// FeedbackRequest is the body of POST /api/v1/chatbot/feedback. It marks a
// previously persisted chat turn as helpful or not.
//
// IsHelpful is a pointer so that an explicit `false` survives validation;
// a plain bool would make "not helpful" indistinguishable from an absent
// field.
type FeedbackRequest struct {
	MessageID string `json:"message_id" validate:"required,uuid"`
	IsHelpful *bool  `json:"is_helpful" validate:"required"`
}

// Validate validates the FeedbackRequest fields using the shared validator.
func (r *FeedbackRequest) Validate() error {
	return chatValidate.Struct(r)
}

// =============================================================================
// Vocabulary Types
// =============================================================================

// VocabularyTermResponse is the body of GET /api/v1/chatbot/vocabulary/:term.
type VocabularyTermResponse struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

func generateUUID() string {
	return uuid.New().String()
}
