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
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianClaims/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianClaims/services/assistant/observability"
	"github.com/AleutianAI/AleutianClaims/services/assistant/search"
	"github.com/AleutianAI/AleutianClaims/services/llm"
)

var ragTracer = otel.Tracer("aleutian.claims.rag")

// Fixed user-facing strings. These are returned verbatim so the frontend
// and support scripts can match on them.
const (
	// RefusalMessage is returned when the admission gate rejects a request.
	RefusalMessage = "I don't have enough information in your documents or my knowledge base to answer this question accurately. Please upload relevant documents or rephrase your question about general insurance topics."

	// GenerationFallbackMessage is returned when the LLM call itself fails.
	GenerationFallbackMessage = "I'm having trouble generating a response right now. Please try again or contact our support."

	// PipelineErrorMessage is returned when anything else in the pipeline
	// fails or panics.
	PipelineErrorMessage = "I apologize, but I encountered an error processing your question. Please try rephrasing or our contact support."
)

// KnowledgeSource selects fallback knowledge text and citations for a
// query. *knowledge.Catalog satisfies it.
type KnowledgeSource interface {
	Select(query string, topK int) (string, []datatypes.ChatSource)
}

// SourceURLResolver maps a document URI to a clickable URL, or "" when it
// cannot. *storage.Resolver satisfies it.
type SourceURLResolver interface {
	ResolveURL(uri string) string
}

// Config tunes the pipeline. Zero values are replaced by the defaults the
// service was tuned with.
type Config struct {
	DocumentTopK    int               // chunks requested from document search
	KnowledgeTopK   int               // knowledge-base entries in the fallback
	MaxHistoryTurns int               // turns rendered into the history block
	Gate            AdmissionPolicy   // nil means DefaultGate()
	Generation      llm.GenerationParams // nil fields mean the factual defaults
}

func (c Config) withDefaults() Config {
	if c.DocumentTopK <= 0 {
		c.DocumentTopK = 12
	}
	if c.KnowledgeTopK <= 0 {
		c.KnowledgeTopK = 3
	}
	if c.MaxHistoryTurns <= 0 {
		c.MaxHistoryTurns = 12
	}
	if c.Gate == nil {
		c.Gate = DefaultGate()
	}
	// Low temperature keeps the model on the provided context.
	if c.Generation.Temperature == nil {
		c.Generation.Temperature = llm.Float32Ptr(0.3)
	}
	if c.Generation.TopP == nil {
		c.Generation.TopP = llm.Float32Ptr(0.8)
	}
	if c.Generation.MaxTokens == nil {
		c.Generation.MaxTokens = llm.IntPtr(1024)
	}
	return c
}

// Result is one answered chat turn.
type Result struct {
	Response  string
	Sources   []datatypes.ChatSource
	NoContext bool
	Err       error // pipeline error behind PipelineErrorMessage, nil otherwise
}

// Service runs the full RAG pipeline for one chat message.
type Service struct {
	searcher  search.Searcher // nil disables document retrieval
	knowledge KnowledgeSource
	generator llm.LLMClient
	resolver  SourceURLResolver // nil leaves document citations unlinked
	metrics   *observability.ChatMetrics
	cfg       Config
}

// NewService wires the pipeline. searcher, resolver, and metrics may be
// nil; knowledge and generator must not be.
func NewService(
	searcher search.Searcher,
	knowledge KnowledgeSource,
	generator llm.LLMClient,
	resolver SourceURLResolver,
	metrics *observability.ChatMetrics,
	cfg Config,
) (*Service, error) {
	if knowledge == nil {
		return nil, fmt.Errorf("rag: knowledge source is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("rag: generator is required")
	}
	return &Service{
		searcher:  searcher,
		knowledge: knowledge,
		generator: generator,
		resolver:  resolver,
		metrics:   metrics,
		cfg:       cfg.withDefaults(),
	}, nil
}

// GenerateResponse answers one user message.
//
// # Description
//
//	Runs rewrite, retrieval, fallback, gate, and generation in order.
//	Document retrieval is scoped to userID; the knowledge base is only
//	consulted when neither documents nor history produced anything. The
//	returned Result always carries a user-presentable Response, even on
//	internal failure.
//
// # Inputs
//
//	ctx - Carries cancellation and the active trace.
//	query - The user's question, verbatim.
//	userID - Identity used for ACL-filtered retrieval.
//	history - Prior turns of this session, oldest first. May be nil.
//
// # Outputs
//
//	Result - Response text, deduplicated citations, gate flag, and the
//	underlying error when the pipeline failed.
func (s *Service) GenerateResponse(ctx context.Context, query, userID string, history []datatypes.ConversationTurn) (result Result) {
	ctx, span := ragTracer.Start(ctx, "rag.GenerateResponse",
		trace.WithAttributes(attribute.Int("history.turns", len(history))))
	defer span.End()

	// Whatever breaks below, the user gets an apology, not a stack trace.
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("rag pipeline panic: %v", r)
			slog.Error("RAG pipeline panicked", "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			s.metrics.RecordOutcome(observability.OutcomeError)
			result = Result{Response: PipelineErrorMessage, Sources: []datatypes.ChatSource{}, Err: err}
		}
	}()

	historyContext := FormatHistory(history, s.cfg.MaxHistoryTurns)
	searchQuery := RewriteQuery(query, history)

	documentContext, documentSources, err := s.retrieveDocuments(ctx, searchQuery, userID)
	if err != nil {
		// Retrieval trouble degrades to a documentless answer.
		slog.Warn("Document retrieval failed, continuing without documents",
			"error", err)
		span.RecordError(err)
		documentContext, documentSources = "", nil
	}

	var knowledgeContext string
	var knowledgeSources []datatypes.ChatSource
	if strings.TrimSpace(documentContext) == "" && strings.TrimSpace(historyContext) == "" {
		knowledgeContext, knowledgeSources = s.knowledge.Select(searchQuery, s.cfg.KnowledgeTopK)
	}

	blocks := ContextBlocks{
		History:   historyContext,
		Documents: documentContext,
		Knowledge: knowledgeContext,
	}

	if !s.cfg.Gate.Admit(blocks) {
		span.SetAttributes(attribute.Bool("gate.rejected", true))
		s.metrics.RecordGateRejection()
		s.metrics.RecordOutcome(observability.OutcomeNoContext)
		return Result{Response: RefusalMessage, Sources: []datatypes.ChatSource{}, NoContext: true}
	}

	sources := append(documentSources, knowledgeSources...)
	if sources == nil {
		sources = []datatypes.ChatSource{}
	}

	prompt := BuildPrompt(query, AssembleContext(blocks))

	start := time.Now()
	response, err := s.generator.Generate(ctx, prompt, s.cfg.Generation)
	s.metrics.RecordGenerationSeconds(time.Since(start).Seconds())
	if err != nil {
		slog.Error("LLM generation failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		s.metrics.RecordOutcome(observability.OutcomeFallback)
		return Result{Response: GenerationFallbackMessage, Sources: sources}
	}

	s.metrics.RecordOutcome(observability.OutcomeAnswered)
	return Result{Response: response, Sources: sources}
}

// retrieveDocuments searches the user's own documents and renders the hits
// into one context block. Chunk numbering follows the search ranking over
// all returned chunks, so a skipped empty chunk leaves a gap rather than
// renumbering later sources. Citations are deduplicated by (label, uri);
// the same file found under different URIs stays distinct.
func (s *Service) retrieveDocuments(ctx context.Context, query, userID string) (string, []datatypes.ChatSource, error) {
	if s.searcher == nil {
		return "", nil, nil
	}

	ctx, span := ragTracer.Start(ctx, "rag.retrieveDocuments")
	defer span.End()

	chunks, err := s.searcher.SearchForRAG(ctx, query, userID, s.cfg.DocumentTopK)
	if err != nil {
		return "", nil, fmt.Errorf("document search failed: %w", err)
	}
	span.SetAttributes(attribute.Int("chunks.count", len(chunks)))
	s.metrics.RecordRetrievedChunks(len(chunks))

	if len(chunks) == 0 {
		return "", nil, nil
	}

	type sourceKey struct {
		label string
		uri   string
	}
	seen := make(map[sourceKey]struct{})

	var contextParts []string
	var sources []datatypes.ChatSource
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk.Content) == "" {
			continue
		}
		label := formatSourceLabel(chunk.Source)
		contextParts = append(contextParts,
			fmt.Sprintf("[Source %d: %s]\n%s", i+1, label, chunk.Content))

		key := sourceKey{label: label, uri: chunk.Source.URI}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		var url string
		if s.resolver != nil {
			url = s.resolver.ResolveURL(chunk.Source.URI)
		}
		sources = append(sources, datatypes.ChatSource{Label: label, URL: url})
	}

	return strings.Join(contextParts, "\n\n"), sources, nil
}

// formatSourceLabel renders "filename (document_type)" with the fallbacks
// already applied by the search layer backstopped here.
func formatSourceLabel(info search.SourceInfo) string {
	filename := info.Filename
	if filename == "" {
		filename = "Document"
	}
	docType := info.DocumentType
	if docType == "" {
		docType = "Unknown"
	}
	return fmt.Sprintf("%s (%s)", filename, docType)
}
