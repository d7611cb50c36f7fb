// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability exposes Prometheus metrics for the chat pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat request outcomes as recorded on ChatRequests.
const (
	OutcomeAnswered  = "answered"
	OutcomeNoContext = "no_context"
	OutcomeFallback  = "generation_fallback"
	OutcomeError     = "error"
)

// ChatMetrics instruments the RAG pipeline.
type ChatMetrics struct {
	ChatRequests      *prometheus.CounterVec
	GateRejections    prometheus.Counter
	RetrievedChunks   prometheus.Histogram
	GenerationSeconds prometheus.Histogram
}

// NewChatMetrics registers the chat metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production.
func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	factory := promauto.With(reg)
	return &ChatMetrics{
		ChatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_chat_requests_total",
			Help: "Chat requests by outcome.",
		}, []string{"outcome"}),
		GateRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "claims_chat_gate_rejections_total",
			Help: "Requests refused by the context admission gate.",
		}),
		RetrievedChunks: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "claims_chat_retrieved_chunks",
			Help:    "Document chunks retrieved per chat request.",
			Buckets: []float64{0, 1, 2, 4, 8, 12, 16},
		}),
		GenerationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "claims_chat_generation_seconds",
			Help:    "LLM generation latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordOutcome increments the request counter for the given outcome.
// Nil-safe so the pipeline can run unmetered in tests.
func (m *ChatMetrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ChatRequests.WithLabelValues(outcome).Inc()
}

// RecordGateRejection counts a hallucination-gate refusal.
func (m *ChatMetrics) RecordGateRejection() {
	if m == nil {
		return
	}
	m.GateRejections.Inc()
}

// RecordRetrievedChunks observes how many chunks retrieval produced.
func (m *ChatMetrics) RecordRetrievedChunks(n int) {
	if m == nil {
		return
	}
	m.RetrievedChunks.Observe(float64(n))
}

// RecordGenerationSeconds observes one generation's wall time.
func (m *ChatMetrics) RecordGenerationSeconds(seconds float64) {
	if m == nil {
		return
	}
	m.GenerationSeconds.Observe(seconds)
}
