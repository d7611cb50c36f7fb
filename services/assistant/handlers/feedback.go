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
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianClaims/services/assistant/datatypes"
)

// FeedbackRecorder stores a thumbs-up/down verdict against a persisted chat
// turn. *datatypes.Store satisfies it.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, turnID string, isHelpful bool) error
}

// FeedbackHandler serves POST /api/v1/chatbot/feedback.
type FeedbackHandler struct {
	recorder FeedbackRecorder // nil disables the endpoint
}

// NewFeedbackHandler builds the handler. recorder may be nil when no
// persistence backend is configured.
func NewFeedbackHandler(recorder FeedbackRecorder) *FeedbackHandler {
	return &FeedbackHandler{recorder: recorder}
}

// Submit records whether an answer was helpful.
//
// # Description
//
//	Validates the request and merges the verdict onto the stored chat
//	turn. An unknown message id is a 404; a missing persistence backend
//	is a 503 because feedback has nowhere to live without one.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req datatypes.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.recorder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feedback storage is not configured"})
		return
	}

	err := h.recorder.RecordFeedback(c.Request.Context(), req.MessageID, *req.IsHelpful)
	switch {
	case errors.Is(err, datatypes.ErrTurnNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
	case err != nil:
		slog.Error("Could not record feedback", "message_id", req.MessageID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record feedback"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Feedback submitted"})
	}
}
