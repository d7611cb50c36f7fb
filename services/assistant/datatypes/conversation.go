// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
)

var convTracer = otel.Tracer("aleutian.claims.datatypes")

// ErrTurnNotFound reports feedback against a chat turn id that does not
// exist in the store.
var ErrTurnNotFound = errors.New("chat turn not found")

// FindOrCreateChatSessionUUID finds a ClaimChatSession by its session_id and
// returns its Weaviate UUID. If it doesn't exist, it creates one and returns
// the new UUID.
func FindOrCreateChatSessionUUID(ctx context.Context, client *weaviate.Client,
	sessionID, userID string) (string, error) {

	ctx, span := convTracer.Start(ctx, "FindOrCreateChatSessionUUID")
	defer span.End()

	// 1. Try to find the existing session
	where := filters.Where().
		WithPath([]string{"session_id"}).
		WithOperator(filters.Equal).
		WithValueString(sessionID)

	fields := []graphql.Field{
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}}},
	}

	resp, err := client.GraphQL().Get().
		WithClassName("ClaimChatSession").
		WithWhere(where).
		WithFields(fields...).
		WithLimit(1).
		Do(ctx)

	if err != nil {
		return "", fmt.Errorf("error querying for chat session: %w", err)
	}

	queryResp, err := ParseGraphQLResponse[ChatSessionQueryResponse](resp)
	if err != nil {
		return "", fmt.Errorf("error parsing chat session query response: %w", err)
	}

	if len(queryResp.Get.ClaimChatSession) > 0 {
		uuid := queryResp.Get.ClaimChatSession[0].Additional.ID
		slog.Info("Found existing chat session", "sessionId", sessionID, "weaviateUUID", uuid)
		return uuid, nil
	}

	// 2. Not found, so create it
	slog.Info("No existing chat session found, creating a new one", "sessionId", sessionID)
	props := ChatSessionProperties{
		SessionId: sessionID,
		UserId:    userID,
		Timestamp: time.Now().UnixMilli(),
	}

	result, err := client.Data().Creator().
		WithClassName("ClaimChatSession").
		WithProperties(props.ToMap()).
		Do(ctx)

	if err != nil {
		return "", fmt.Errorf("failed to create new chat session: %w", err)
	}

	if result == nil || result.Object == nil {
		return "", fmt.Errorf("weaviate created a chat session but returned a nil result")
	}

	slog.Info("Successfully created new chat session", "sessionId", sessionID,
		"weaviateUUID", result.Object.ID)
	return result.Object.ID.String(), nil
}

// ChatTurn is one answered question, persisted after the response has been
// returned to the caller.
type ChatTurn struct {
	SessionId string `json:"session_id"`
	UserId    string `json:"user_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// Save persists the turn to Weaviate, linking it to its parent session.
// Turns with an empty answer are silently skipped.
func (t *ChatTurn) Save(client *weaviate.Client) error {
	if len(strings.TrimSpace(t.Answer)) == 0 {
		return nil
	}
	slog.Info("Saving chat turn to Weaviate", "sessionId", t.SessionId)

	parentCtx := context.Background()
	sessionUUID, err := FindOrCreateChatSessionUUID(parentCtx, client, t.SessionId, t.UserId)
	if err != nil {
		slog.Error(
			"Failed to find or create parent session, saving turn without graph link",
			"sessionId", t.SessionId,
			"error", err)
	}

	props := ChatTurnProperties{
		SessionId: t.SessionId,
		UserId:    t.UserId,
		Question:  t.Question,
		Answer:    t.Answer,
		Timestamp: time.Now().UnixMilli(),
	}
	properties := props.ToMap()

	// Add the beacon link if we have a valid session UUID
	if err == nil {
		WithSessionBeacon(properties, sessionUUID)
	}

	_, err = client.Data().Creator().
		WithClassName("ClaimChatTurn").
		WithProperties(properties).
		Do(parentCtx)

	if err != nil {
		return fmt.Errorf("failed to save chat turn to Weaviate: %w", err)
	}

	slog.Info("Successfully saved chat turn", "sessionId", t.SessionId)
	return nil
}

// LoadSessionHistory returns the persisted turns of a session as an ordered
// conversation (oldest first, alternating user/assistant), capped at
// maxTurns question/answer pairs.
//
// A missing or empty session yields an empty history, not an error.
func LoadSessionHistory(ctx context.Context, client *weaviate.Client,
	sessionID string, maxTurns int) ([]ConversationTurn, error) {

	ctx, span := convTracer.Start(ctx, "LoadSessionHistory")
	defer span.End()

	where := filters.Where().
		WithPath([]string{"session_id"}).
		WithOperator(filters.Equal).
		WithValueString(sessionID)

	fields := []graphql.Field{
		{Name: "question"},
		{Name: "answer"},
		{Name: "timestamp"},
	}

	// Newest first so the limit keeps the most recent turns of a long
	// session; historyFromRows flips them back to chronological order.
	resp, err := client.GraphQL().Get().
		WithClassName("ClaimChatTurn").
		WithWhere(where).
		WithSort(graphql.Sort{Path: []string{"timestamp"}, Order: graphql.Desc}).
		WithFields(fields...).
		WithLimit(maxTurns).
		Do(ctx)

	if err != nil {
		return nil, fmt.Errorf("error querying session history: %w", err)
	}

	queryResp, err := ParseGraphQLResponse[ChatTurnQueryResponse](resp)
	if err != nil {
		return nil, fmt.Errorf("error parsing session history response: %w", err)
	}

	return historyFromRows(queryResp.Get.ClaimChatTurn), nil
}

// Store exposes the chat persistence operations the HTTP layer needs on
// top of a Weaviate client.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

func (s *Store) SaveTurn(turn ChatTurn) error {
	return turn.Save(s.client)
}

func (s *Store) LoadHistory(ctx context.Context, sessionID string,
	maxTurns int) ([]ConversationTurn, error) {
	return LoadSessionHistory(ctx, s.client, sessionID, maxTurns)
}

// RecordFeedback marks a persisted chat turn as helpful or not. Returns
// ErrTurnNotFound when no turn with that id exists.
func (s *Store) RecordFeedback(ctx context.Context, turnID string, isHelpful bool) error {
	ctx, span := convTracer.Start(ctx, "Store.RecordFeedback")
	defer span.End()

	exists, err := s.client.Data().Checker().
		WithClassName("ClaimChatTurn").
		WithID(turnID).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("error checking chat turn %s: %w", turnID, err)
	}
	if !exists {
		return ErrTurnNotFound
	}

	err = s.client.Data().Updater().
		WithClassName("ClaimChatTurn").
		WithID(turnID).
		WithProperties(map[string]interface{}{"is_helpful": isHelpful}).
		WithMerge().
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to record feedback on chat turn %s: %w", turnID, err)
	}

	slog.Info("Recorded chat turn feedback", "turnId", turnID, "isHelpful", isHelpful)
	return nil
}

// historyFromRows converts newest-first turn rows into an oldest-first
// conversation, skipping blank questions and answers.
func historyFromRows(rows []ChatTurnResult) []ConversationTurn {
	history := make([]ConversationTurn, 0, 2*len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if strings.TrimSpace(rows[i].Question) != "" {
			history = append(history, ConversationTurn{Role: RoleUser, Content: rows[i].Question})
		}
		if strings.TrimSpace(rows[i].Answer) != "" {
			history = append(history, ConversationTurn{Role: RoleAssistant, Content: rows[i].Answer})
		}
	}
	return history
}
