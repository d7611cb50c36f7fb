// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianClaims/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianClaims/services/assistant/knowledge"
)

// VocabularyHandler serves the insurance glossary endpoints.
type VocabularyHandler struct{}

func NewVocabularyHandler() *VocabularyHandler {
	return &VocabularyHandler{}
}

// ListTerms returns every defined glossary term, sorted.
func (h *VocabularyHandler) ListTerms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"terms": knowledge.VocabularyTerms()})
}

// GetTerm returns the definition of one glossary term.
func (h *VocabularyHandler) GetTerm(c *gin.Context) {
	term := c.Param("term")
	definition, ok := knowledge.TermDefinition(term)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown term: " + term})
		return
	}
	c.JSON(http.StatusOK, datatypes.VocabularyTermResponse{
		Term:       term,
		Definition: definition,
	})
}
