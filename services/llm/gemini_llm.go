// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient talks to Gemini through the Vertex AI backend of the
// google.golang.org/genai SDK. Data residency follows the configured
// location (the insurance deployment pins this to an EU region).
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client from environment configuration.
//
// Reads:
//   - GOOGLE_CLOUD_PROJECT: required, the GCP project hosting Vertex AI.
//   - VERTEX_AI_LOCATION: region for Vertex AI calls, defaults to "europe-west1".
//   - GEMINI_MODEL: model id, defaults to "gemini-1.5-flash".
//
// Returns an error if the project is missing or the SDK client cannot be
// constructed. Credentials come from Application Default Credentials.
func NewGeminiClient(ctx context.Context) (*GeminiClient, error) {
	project := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if project == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT is not set")
	}

	location := os.Getenv("VERTEX_AI_LOCATION")
	if location == "" {
		location = "europe-west1"
		slog.Warn("VERTEX_AI_LOCATION not set, defaulting to europe-west1")
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-1.5-flash"
		slog.Info("GEMINI_MODEL not set, defaulting to", "model", model)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	slog.Info("Initializing Gemini client", "model", model, "location", location)
	return &GeminiClient{client: client, model: model}, nil
}

// Generate implements the LLMClient interface.
//
// The first part becomes the system instruction; the remaining parts are
// sent as the user content. Generation parameters map directly onto the
// GenerateContentConfig fields.
func (g *GeminiClient) Generate(ctx context.Context, parts []string, params GenerationParams) (string, error) {
	if len(parts) == 0 {
		return "", fmt.Errorf("no prompt parts provided")
	}

	config := &genai.GenerateContentConfig{}
	if params.Temperature != nil {
		config.Temperature = genai.Ptr(*params.Temperature)
	}
	if params.TopP != nil {
		config.TopP = genai.Ptr(*params.TopP)
	}
	if params.MaxTokens != nil {
		config.MaxOutputTokens = int32(*params.MaxTokens)
	}
	if len(params.Stop) > 0 {
		config.StopSequences = params.Stop
	}

	userParts := parts
	if len(parts) > 1 {
		config.SystemInstruction = genai.NewContentFromText(parts[0], genai.RoleUser)
		userParts = parts[1:]
	}

	contents := make([]*genai.Content, 0, len(userParts))
	for _, p := range userParts {
		contents = append(contents, genai.NewContentFromText(p, genai.RoleUser))
	}

	slog.Debug("Generating text via Gemini", "model", g.model)
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		slog.Error("Gemini API call failed", "error", err)
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}
