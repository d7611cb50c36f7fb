// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembleContext_AllBlocks(t *testing.T) {
	got := AssembleContext(ContextBlocks{
		History:   "User: hi",
		Documents: "policy text",
		Knowledge: "a deductible is...",
	})

	historyIdx := strings.Index(got, "=== CONVERSATION HISTORY ===")
	docsIdx := strings.Index(got, "=== YOUR DOCUMENTS ===")
	knowIdx := strings.Index(got, "=== GENERAL INSURANCE KNOWLEDGE ===")

	assert.True(t, historyIdx >= 0 && docsIdx > historyIdx && knowIdx > docsIdx,
		"blocks must appear in history, documents, knowledge order")
	assert.Contains(t, got, "=== YOUR DOCUMENTS ===\npolicy text")
}

func TestAssembleContext_SkipsEmptyBlocks(t *testing.T) {
	got := AssembleContext(ContextBlocks{Documents: "policy text", History: "   "})

	assert.NotContains(t, got, "CONVERSATION HISTORY")
	assert.NotContains(t, got, "GENERAL INSURANCE KNOWLEDGE")
	assert.Equal(t, "=== YOUR DOCUMENTS ===\npolicy text", got)
}

func TestAssembleContext_Empty(t *testing.T) {
	assert.Equal(t, NoContextSentinel, AssembleContext(ContextBlocks{}))
	assert.Equal(t, NoContextSentinel, AssembleContext(ContextBlocks{History: " \n "}))
}

func TestThresholdGate_Boundary(t *testing.T) {
	gate := DefaultGate()

	exactly50 := strings.Repeat("a", 50)
	assert.False(t, gate.Admit(ContextBlocks{Documents: exactly50}),
		"exactly the threshold is not enough")
	assert.True(t, gate.Admit(ContextBlocks{Documents: exactly50 + "a"}))
}

func TestThresholdGate_CountsRunesNotBytes(t *testing.T) {
	gate := DefaultGate()

	// 26 characters, 52 bytes. Byte counting would admit this.
	assert.False(t, gate.Admit(ContextBlocks{Documents: strings.Repeat("é", 26)}))
	assert.True(t, gate.Admit(ContextBlocks{Documents: strings.Repeat("é", 51)}))
}

func TestThresholdGate_TrimsBeforeCounting(t *testing.T) {
	gate := DefaultGate()

	padded := "  " + strings.Repeat("a", 45) + "   \n"
	assert.False(t, gate.Admit(ContextBlocks{Documents: padded}),
		"surrounding whitespace must not count toward the threshold")
}

func TestThresholdGate_BlocksAreNotSummed(t *testing.T) {
	gate := DefaultGate()

	thirty := strings.Repeat("b", 30)
	assert.False(t, gate.Admit(ContextBlocks{Documents: thirty, History: thirty, Knowledge: thirty}))
}

func TestThresholdGate_AnySingleBlockAdmits(t *testing.T) {
	gate := DefaultGate()
	long := strings.Repeat("c", 51)

	assert.True(t, gate.Admit(ContextBlocks{History: long}))
	assert.True(t, gate.Admit(ContextBlocks{Knowledge: long}))
	assert.True(t, gate.Admit(ContextBlocks{Documents: long}))
}
