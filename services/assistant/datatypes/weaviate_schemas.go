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
	"log"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// GetChatSessionSchema returns the schema for the ClaimChatSession class.
// Sessions carry no vectors; they exist to group turns per user.
func GetChatSessionSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:               "ClaimChatSession",
		Description:         "Metadata for a single claims-chat session",
		Vectorizer:          "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{IndexTimestamps: true},
		Properties: []*models.Property{
			{
				Name:            "session_id",
				DataType:        []string{"text"},
				Description:     "The unique ID for the chat session.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "user_id",
				DataType:        []string{"text"},
				Description:     "The authenticated owner of the session.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "timestamp",
				DataType:    []string{"number"},
				Description: "Session creation time, Unix milliseconds.",
			},
		},
	}
}

// GetChatTurnSchema returns the schema for the ClaimChatTurn class.
func GetChatTurnSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:               "ClaimChatTurn",
		Description:         "One answered question within a claims-chat session",
		Vectorizer:          "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{IndexTimestamps: true},
		Properties: []*models.Property{
			{
				Name:            "session_id",
				DataType:        []string{"text"},
				Description:     "The session this turn belongs to.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "user_id",
				DataType:        []string{"text"},
				Description:     "The authenticated owner of the turn.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "question",
				DataType:     []string{"text"},
				Description:  "The user's question as submitted.",
				Tokenization: "word",
			},
			{
				Name:         "answer",
				DataType:     []string{"text"},
				Description:  "The assistant's answer as returned.",
				Tokenization: "word",
			},
			{
				Name:        "timestamp",
				DataType:    []string{"number"},
				Description: "Turn completion time, Unix milliseconds.",
			},
			{
				Name:        "is_helpful",
				DataType:    []string{"boolean"},
				Description: "User feedback on the answer; absent until submitted.",
			},
			{
				Name:        "inSession",
				DataType:    []string{"ClaimChatSession"},
				Description: "Cross-reference to the parent session.",
			},
		},
	}
}

// EnsureChatSchema creates the chat persistence classes if they are missing.
// Called once at startup when a Weaviate client is configured.
func EnsureChatSchema(client *weaviate.Client) {
	schemaGetters := []func() *models.Class{
		GetChatSessionSchema,
		GetChatTurnSchema,
	}

	for _, getSchema := range schemaGetters {
		class := getSchema()
		slog.Info("Checking schema", "class", class.Class)

		_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(context.Background())
		if err != nil {
			// If it doesn't exist, the client returns an error. We can now create it.
			slog.Info("Schema not found, creating it...", "class", class.Class)
			err := client.Schema().ClassCreator().WithClass(class).Do(context.Background())
			if err != nil {
				log.Fatalf("Failed to create schema for class %s: %v", class.Class, err)
			}
			slog.Info("Successfully created schema", "class", class.Class)
		} else {
			slog.Info("Schema already exists", "class", class.Class)
		}
	}
}
