// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rag

import (
	"strings"
	"unicode/utf8"
)

// NoContextSentinel is what AssembleContext returns when every context
// block is empty. It never reaches the model because the admission gate
// rejects the request first.
const NoContextSentinel = "No relevant context found."

// ContextBlocks holds the three context sources in their fixed prompt
// order: history first, then the user's own documents, then general
// knowledge.
type ContextBlocks struct {
	History   string
	Documents string
	Knowledge string
}

// AssembleContext renders the non-empty blocks under labeled section
// headers so the model can tell user documents apart from general
// background.
func AssembleContext(blocks ContextBlocks) string {
	var parts []string
	if strings.TrimSpace(blocks.History) != "" {
		parts = append(parts, "=== CONVERSATION HISTORY ===\n"+blocks.History)
	}
	if strings.TrimSpace(blocks.Documents) != "" {
		parts = append(parts, "=== YOUR DOCUMENTS ===\n"+blocks.Documents)
	}
	if strings.TrimSpace(blocks.Knowledge) != "" {
		parts = append(parts, "=== GENERAL INSURANCE KNOWLEDGE ===\n"+blocks.Knowledge)
	}
	if len(parts) == 0 {
		return NoContextSentinel
	}
	return strings.Join(parts, "\n\n")
}

// AdmissionPolicy decides whether the gathered context is substantial
// enough to let generation proceed. It is the hallucination gate: with
// thin context the model invents policy details instead of declining.
type AdmissionPolicy interface {
	Admit(blocks ContextBlocks) bool
}

// ThresholdGate admits a request when any single block carries more than
// MinContextChars characters after trimming whitespace. Characters are
// runes, so accented text does not clear the bar early on byte length.
// Blocks are not summed; fragments from three sources are no better
// grounding than one fragment.
type ThresholdGate struct {
	MinContextChars int
}

// DefaultGate returns the production gate threshold.
func DefaultGate() ThresholdGate {
	return ThresholdGate{MinContextChars: 50}
}

func (g ThresholdGate) Admit(blocks ContextBlocks) bool {
	for _, block := range []string{blocks.Documents, blocks.History, blocks.Knowledge} {
		if utf8.RuneCountInString(strings.TrimSpace(block)) > g.MinContextChars {
			return true
		}
	}
	return false
}
