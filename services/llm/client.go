// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides the generative-model client abstraction for the
// claims assistant. The concrete backend (Gemini on Vertex AI, or any
// OpenAI-compatible endpoint) is selected at startup via LLM_BACKEND_TYPE.
package llm

import "context"

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend.
//
// Generate takes the prompt as ordered parts: the first part is treated as
// the system instruction, the remaining parts form the user turn. Backends
// without native system-role support may concatenate the parts.
type LLMClient interface {
	Generate(ctx context.Context, parts []string, params GenerationParams) (string, error)
}

// Float32Ptr returns a pointer to the given float32 for use in GenerationParams.
func Float32Ptr(v float32) *float32 { return &v }

// IntPtr returns a pointer to the given int for use in GenerationParams.
func IntPtr(v int) *int { return &v }
