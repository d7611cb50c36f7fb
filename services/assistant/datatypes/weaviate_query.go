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
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// =============================================================================
// Generic GraphQL Response Parser
// =============================================================================

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target type.
//
// # Description
//
// This generic function encapsulates the marshal/unmarshal pattern required to
// convert Weaviate's dynamic response (map[string]models.JSONObject) into a
// strongly-typed Go struct. The target type T must have json tags matching
// the expected response shape.
//
// # Inputs
//
//   - resp: The GraphQL response from the Weaviate client's Do() method.
//
// # Outputs
//
//   - *T: Pointer to the parsed struct.
//   - error: Non-nil if the response is nil or parsing fails.
//
// # Limitations
//
//   - Type mismatches result in zero values, not errors.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// =============================================================================
// Query Response Types
// =============================================================================

// ChatSessionQueryResponse represents the response from querying the
// ClaimChatSession class.
type ChatSessionQueryResponse struct {
	Get struct {
		ClaimChatSession []ChatSessionResult `json:"ClaimChatSession"`
	} `json:"Get"`
}

// ChatSessionResult represents a single chat session from a query.
type ChatSessionResult struct {
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	Timestamp  int64  `json:"timestamp"`
	Additional struct {
		ID string `json:"id"`
	} `json:"_additional"`
}

// ChatTurnQueryResponse represents the response from querying the
// ClaimChatTurn class.
type ChatTurnQueryResponse struct {
	Get struct {
		ClaimChatTurn []ChatTurnResult `json:"ClaimChatTurn"`
	} `json:"Get"`
}

// ChatTurnResult represents a single persisted turn from a query.
type ChatTurnResult struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp int64  `json:"timestamp"`
}

// =============================================================================
// Property Structs
// =============================================================================

// ChatSessionProperties represents the properties for creating a
// ClaimChatSession object.
type ChatSessionProperties struct {
	SessionId string `json:"session_id"`
	UserId    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
}

// ToMap converts ChatSessionProperties to the map format required by the
// Weaviate client's WithProperties() method.
func (p *ChatSessionProperties) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"session_id": p.SessionId,
		"user_id":    p.UserId,
		"timestamp":  p.Timestamp,
	}
}

// ChatTurnProperties represents the properties for creating a ClaimChatTurn
// object.
type ChatTurnProperties struct {
	SessionId string `json:"session_id"`
	UserId    string `json:"user_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp int64  `json:"timestamp"`
}

// ToMap converts ChatTurnProperties to the map format required by the
// Weaviate client's WithProperties() method.
func (p *ChatTurnProperties) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"session_id": p.SessionId,
		"user_id":    p.UserId,
		"question":   p.Question,
		"answer":     p.Answer,
		"timestamp":  p.Timestamp,
	}
}

// BeaconRef represents a Weaviate cross-reference beacon.
type BeaconRef struct {
	Beacon string `json:"beacon"`
}

// WithSessionBeacon adds an inSession beacon reference to the properties map.
//
// The "localhost" in the beacon URI is part of Weaviate's standard
// cross-reference format and is NOT an actual host.
// See: https://weaviate.io/developers/weaviate/manage-data/cross-references
func WithSessionBeacon(props map[string]interface{}, sessionUUID string) {
	beacon := BeaconRef{
		Beacon: fmt.Sprintf("weaviate://localhost/ClaimChatSession/%s", sessionUUID),
	}
	props["inSession"] = []BeaconRef{beacon}
}
