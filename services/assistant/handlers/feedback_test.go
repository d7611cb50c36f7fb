// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianClaims/services/assistant/datatypes"
)

type mockRecorder struct {
	err         error
	calls       int
	lastTurnID  string
	lastVerdict bool
}

func (m *mockRecorder) RecordFeedback(_ context.Context, turnID string, isHelpful bool) error {
	m.calls++
	m.lastTurnID = turnID
	m.lastVerdict = isHelpful
	return m.err
}

func newFeedbackRouter(recorder FeedbackRecorder) *gin.Engine {
	router := gin.New()
	router.POST("/feedback", NewFeedbackHandler(recorder).Submit)
	return router
}

func postFeedback(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const feedbackTurnID = "5fc9a33e-9ec9-4f5f-9d57-0c1f9a2b7a11"

func TestFeedback_Success(t *testing.T) {
	recorder := &mockRecorder{}
	router := newFeedbackRouter(recorder)

	w := postFeedback(router, `{"message_id": "`+feedbackTurnID+`", "is_helpful": true}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Feedback submitted")
	assert.Equal(t, feedbackTurnID, recorder.lastTurnID)
	assert.True(t, recorder.lastVerdict)
}

func TestFeedback_ExplicitFalseIsAccepted(t *testing.T) {
	recorder := &mockRecorder{lastVerdict: true}
	router := newFeedbackRouter(recorder)

	w := postFeedback(router, `{"message_id": "`+feedbackTurnID+`", "is_helpful": false}`)

	require.Equal(t, http.StatusOK, w.Code,
		"a thumbs-down must not be rejected as a missing field")
	assert.False(t, recorder.lastVerdict)
}

func TestFeedback_UnknownTurnIs404(t *testing.T) {
	recorder := &mockRecorder{err: datatypes.ErrTurnNotFound}
	router := newFeedbackRouter(recorder)

	w := postFeedback(router, `{"message_id": "`+feedbackTurnID+`", "is_helpful": true}`)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Message not found")
}

func TestFeedback_StoreErrorIs500(t *testing.T) {
	recorder := &mockRecorder{err: errors.New("weaviate down")}
	router := newFeedbackRouter(recorder)

	w := postFeedback(router, `{"message_id": "`+feedbackTurnID+`", "is_helpful": true}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestFeedback_NoRecorderIs503(t *testing.T) {
	router := newFeedbackRouter(nil)

	w := postFeedback(router, `{"message_id": "`+feedbackTurnID+`", "is_helpful": true}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFeedback_BadRequests(t *testing.T) {
	recorder := &mockRecorder{}
	router := newFeedbackRouter(recorder)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"message_id": `},
		{"missing message id", `{"is_helpful": true}`},
		{"missing verdict", `{"message_id": "` + feedbackTurnID + `"}`},
		{"message id not a uuid", `{"message_id": "42", "is_helpful": true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postFeedback(router, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Zero(t, recorder.calls, "invalid requests must never reach the store")
}
