// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rag implements the retrieval-augmented response pipeline for the
// claims assistant: query rewriting, ACL-scoped document retrieval with a
// knowledge-base fallback, context assembly behind a hallucination gate,
// and hardened prompt construction.
package rag

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianClaims/services/assistant/datatypes"
)

// followupMarkers are the phrases that mark a question as referring back to
// the conversation rather than standing alone. Matching is a substring check
// on the lowercased query; the French entries cover our bilingual users.
var followupMarkers = []string{
	"ce que tu viens de dire",
	"tu viens de dire",
	"explique",
	"reformule",
	"rephrase",
	"repeat",
	"again",
	"clarify",
	"what you said",
	"what do you mean",
	"in simple words",
	"en mots simples",
}

// maxRewriteContextChars caps how much prior conversation gets appended to a
// rewritten search query. Vertex Search degrades on very long queries.
const maxRewriteContextChars = 500

// IsFollowup reports whether the query leans on earlier conversation.
func IsFollowup(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	for _, marker := range followupMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}

// RewriteQuery expands a follow-up question into a self-contained search
// query by appending the most recent turn it could be referring to. The last
// assistant answer is preferred over the last user message since follow-ups
// almost always react to what the assistant just said. Non-follow-ups and
// queries with no usable history pass through unchanged.
func RewriteQuery(query string, history []datatypes.ConversationTurn) string {
	if len(history) == 0 || !IsFollowup(query) {
		return query
	}

	var lastAssistant, lastUser string
	for i := len(history) - 1; i >= 0; i-- {
		content := strings.TrimSpace(history[i].Content)
		if content == "" {
			continue
		}
		role := strings.ToLower(history[i].Role)
		if role == datatypes.RoleAssistant && lastAssistant == "" {
			lastAssistant = content
		}
		if role == datatypes.RoleUser && lastUser == "" {
			lastUser = content
		}
		if lastAssistant != "" && lastUser != "" {
			break
		}
	}

	context := lastAssistant
	label := "Previous assistant answer"
	if context == "" {
		context = lastUser
		label = "Previous user message"
	}
	if context == "" {
		return query
	}

	context = strings.Join(strings.Fields(context), " ")
	// Cap by runes, not bytes: French context would otherwise be cut
	// mid-rune and ship invalid UTF-8 to the search backend.
	if runes := []rune(context); len(runes) > maxRewriteContextChars {
		context = string(runes[:maxRewriteContextChars])
	}

	return fmt.Sprintf("%s\n\n%s: %s", query, label, context)
}

// FormatHistory renders the last maxTurns conversation turns as one
// "User:"/"Assistant:" line each, skipping blank turns. Returns "" when
// there is nothing to show.
func FormatHistory(history []datatypes.ConversationTurn, maxTurns int) string {
	if len(history) == 0 || maxTurns <= 0 {
		return ""
	}
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	var lines []string
	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		label := "Assistant"
		if strings.ToLower(turn.Role) == datatypes.RoleUser {
			label = "User"
		}
		lines = append(lines, label+": "+content)
	}
	return strings.Join(lines, "\n")
}
