// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	discoveryengine "cloud.google.com/go/discoveryengine/apiv1"
	"cloud.google.com/go/discoveryengine/apiv1/discoveryenginepb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var searchTracer = otel.Tracer("aleutian.claims.search")

// Compile-time interface implementation check.
var _ Searcher = (*VertexSearcher)(nil)

// VertexConfig holds the Discovery Engine resource coordinates.
type VertexConfig struct {
	ProjectID   string
	Location    string // "eu" or "us" select the regional endpoint
	DataStoreID string
	EngineID    string
}

// Endpoint returns the Discovery Engine API endpoint for the configured
// location. Multi-region locations use the regional endpoint for data
// residency compliance.
func (c VertexConfig) Endpoint() string {
	if c.Location == "eu" || c.Location == "us" {
		return fmt.Sprintf("%s-discoveryengine.googleapis.com:443", c.Location)
	}
	return "discoveryengine.googleapis.com:443"
}

// documentParent returns the branch path documents are created under.
func (c VertexConfig) documentParent() string {
	return fmt.Sprintf(
		"projects/%s/locations/%s/collections/default_collection/dataStores/%s/branches/default_branch",
		c.ProjectID, c.Location, c.DataStoreID,
	)
}

// servingConfig returns the engine serving config used for search.
func (c VertexConfig) servingConfig() string {
	return fmt.Sprintf(
		"projects/%s/locations/%s/collections/default_collection/engines/%s/servingConfigs/default_search",
		c.ProjectID, c.Location, c.EngineID,
	)
}

// VertexSearcher retrieves claim-document chunks from Vertex AI Search.
type VertexSearcher struct {
	client *discoveryengine.SearchClient
	cfg    VertexConfig
}

// NewVertexSearcher creates a searcher bound to the configured datastore.
// Credentials come from Application Default Credentials.
func NewVertexSearcher(ctx context.Context, cfg VertexConfig, opts ...option.ClientOption) (*VertexSearcher, error) {
	if cfg.ProjectID == "" || cfg.DataStoreID == "" || cfg.EngineID == "" {
		return nil, fmt.Errorf("vertex search config incomplete: project, datastore and engine ids are required")
	}

	opts = append([]option.ClientOption{option.WithEndpoint(cfg.Endpoint())}, opts...)
	client, err := discoveryengine.NewSearchClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery engine search client: %w", err)
	}

	slog.Info("Initialized Vertex AI Search client",
		"location", cfg.Location, "datastore", cfg.DataStoreID, "engine", cfg.EngineID)
	return &VertexSearcher{client: client, cfg: cfg}, nil
}

// Close releases the underlying gRPC connection.
func (s *VertexSearcher) Close() error {
	return s.client.Close()
}

// hashUserID hashes the user id before it is attached to the search request
// as the end-user identity.
func hashUserID(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}

// SearchForRAG implements the Searcher interface.
//
// # Description
//
// Runs an ACL-filtered search against the claims datastore and converts the
// results into RAG-ready chunks: snippets and extractive answers become the
// chunk content, document metadata becomes provenance with the filename and
// type fallback chain applied.
//
// # Outputs
//
//   - []DocumentChunk: ranked chunks, possibly empty on no match.
//   - error: Non-nil only on transport or service failure. The caller is
//     expected to downgrade errors to an empty result set.
func (s *VertexSearcher) SearchForRAG(ctx context.Context, query, userID string, topK int) ([]DocumentChunk, error) {
	ctx, span := searchTracer.Start(ctx, "VertexSearcher.SearchForRAG")
	defer span.End()
	span.SetAttributes(
		attribute.Int("search.top_k", topK),
		attribute.Int("search.query_length", len(query)),
	)

	req := &discoveryenginepb.SearchRequest{
		ServingConfig: s.cfg.servingConfig(),
		Query:         query,
		PageSize:      int32(topK),
		// Identify the end user (hashed) for personalization and logging.
		UserInfo: &discoveryenginepb.UserInfo{
			UserId: hashUserID(userID),
		},
		// Make the search tolerant to typos and broaden queries.
		SpellCorrectionSpec: &discoveryenginepb.SearchRequest_SpellCorrectionSpec{
			Mode: discoveryenginepb.SearchRequest_SpellCorrectionSpec_AUTO,
		},
		QueryExpansionSpec: &discoveryenginepb.SearchRequest_QueryExpansionSpec{
			Condition: discoveryenginepb.SearchRequest_QueryExpansionSpec_AUTO,
		},
		// Enable snippet extraction for RAG.
		ContentSearchSpec: &discoveryenginepb.SearchRequest_ContentSearchSpec{
			SnippetSpec: &discoveryenginepb.SearchRequest_ContentSearchSpec_SnippetSpec{
				ReturnSnippet:   true,
				MaxSnippetCount: 3,
			},
			ExtractiveContentSpec: &discoveryenginepb.SearchRequest_ContentSearchSpec_ExtractiveContentSpec{
				MaxExtractiveAnswerCount:  3,
				MaxExtractiveSegmentCount: 5,
			},
		},
	}

	it := s.client.Search(ctx, req)

	var chunks []DocumentChunk
	for {
		result, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "search failed")
			return nil, fmt.Errorf("vertex search failed: %w", err)
		}
		chunks = append(chunks, resultToChunk(result))
		if len(chunks) >= topK {
			break
		}
	}

	span.SetAttributes(attribute.Int("search.chunks_count", len(chunks)))
	slog.Info("Vertex search completed", "chunks", len(chunks))
	return chunks, nil
}

// resultToChunk converts one search result into a RAG chunk, applying the
// filename and document-type fallback chain.
func resultToChunk(result *discoveryenginepb.SearchResponse_SearchResult) DocumentChunk {
	doc := result.GetDocument()

	meta := map[string]string{}
	if sd := doc.GetStructData(); sd != nil {
		for key, value := range sd.GetFields() {
			meta[key] = value.GetStringValue()
		}
	}

	// Snippets and extractive answers become the chunk content.
	var snippets []string
	if derived := doc.GetDerivedStructData(); derived != nil {
		fields := derived.GetFields()
		if list := fields["snippets"].GetListValue(); list != nil {
			for _, v := range list.GetValues() {
				if snippet := v.GetStructValue().GetFields()["snippet"].GetStringValue(); snippet != "" {
					snippets = append(snippets, snippet)
				}
			}
		}
		if list := fields["extractive_answers"].GetListValue(); list != nil {
			for _, v := range list.GetValues() {
				if answer := v.GetStructValue().GetFields()["content"].GetStringValue(); answer != "" {
					snippets = append(snippets, answer)
				}
			}
		}
	}

	uri := strings.TrimSpace(doc.GetContent().GetUri())

	filename := meta["filename"]
	if filename == "" && uri != "" {
		segments := strings.Split(uri, "/")
		filename = segments[len(segments)-1]
	}
	if filename == "" {
		filename = doc.GetId()
	}
	if filename == "" {
		filename = "Document"
	}

	documentType := meta["document_type"]
	if documentType == "" {
		documentType = "Unknown"
	}

	return DocumentChunk{
		DocumentID: doc.GetId(),
		Content:    strings.Join(snippets, "\n"),
		Source: SourceInfo{
			Filename:     filename,
			DocumentType: documentType,
			ClaimID:      meta["claim_id"],
			URI:          uri,
		},
	}
}
