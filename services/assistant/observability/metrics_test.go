// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestChatMetrics_RecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)

	m.RecordOutcome(OutcomeAnswered)
	m.RecordOutcome(OutcomeAnswered)
	m.RecordOutcome(OutcomeNoContext)
	m.RecordGateRejection()
	m.RecordRetrievedChunks(5)
	m.RecordGenerationSeconds(0.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChatRequests.WithLabelValues(OutcomeAnswered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChatRequests.WithLabelValues(OutcomeNoContext)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateRejections))
}

func TestChatMetrics_NilSafe(t *testing.T) {
	var m *ChatMetrics

	assert.NotPanics(t, func() {
		m.RecordOutcome(OutcomeError)
		m.RecordGateRejection()
		m.RecordRetrievedChunks(1)
		m.RecordGenerationSeconds(1)
	})
}
