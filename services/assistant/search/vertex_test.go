// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package search

import (
	"testing"

	"cloud.google.com/go/discoveryengine/apiv1/discoveryenginepb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestVertexConfig_Endpoint(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"global", "discoveryengine.googleapis.com:443"},
		{"eu", "eu-discoveryengine.googleapis.com:443"},
		{"us", "us-discoveryengine.googleapis.com:443"},
	}
	for _, tt := range tests {
		cfg := VertexConfig{Location: tt.location}
		assert.Equal(t, tt.want, cfg.Endpoint())
	}
}

func TestHashUserID(t *testing.T) {
	assert.Equal(t, hashUserID("user-1"), hashUserID("user-1"))
	assert.NotEqual(t, hashUserID("user-1"), hashUserID("user-2"))
	assert.Len(t, hashUserID("user-1"), 64, "sha256 hex digest")
	assert.NotContains(t, hashUserID("user-1"), "user-1")
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestResultToChunk_MetadataAndSnippets(t *testing.T) {
	result := &discoveryenginepb.SearchResponse_SearchResult{
		Document: &discoveryenginepb.Document{
			Id: "claim_7_doc_3",
			Data: &discoveryenginepb.Document_StructData{StructData: mustStruct(t, map[string]any{
				"filename":      "water_damage.pdf",
				"document_type": "Claim",
				"claim_id":      "7",
			})},
			DerivedStructData: mustStruct(t, map[string]any{
				"snippets": []any{
					map[string]any{"snippet": "first snippet"},
					map[string]any{"snippet": ""},
				},
				"extractive_answers": []any{
					map[string]any{"content": "extracted answer"},
				},
			}),
			Content: &discoveryenginepb.Document_Content{
				Content: &discoveryenginepb.Document_Content_Uri{
					Uri: "gs://bucket/claims/7/water_damage.pdf",
				},
			},
		},
	}

	chunk := resultToChunk(result)

	assert.Equal(t, "claim_7_doc_3", chunk.DocumentID)
	assert.Equal(t, "first snippet\nextracted answer", chunk.Content,
		"empty snippets are dropped, answers follow snippets")
	assert.Equal(t, "water_damage.pdf", chunk.Source.Filename)
	assert.Equal(t, "Claim", chunk.Source.DocumentType)
	assert.Equal(t, "7", chunk.Source.ClaimID)
	assert.Equal(t, "gs://bucket/claims/7/water_damage.pdf", chunk.Source.URI)
}

func TestResultToChunk_FilenameFallbackChain(t *testing.T) {
	// No metadata: filename comes from the URI.
	chunk := resultToChunk(&discoveryenginepb.SearchResponse_SearchResult{
		Document: &discoveryenginepb.Document{
			Id:      "doc-1",
			Content: &discoveryenginepb.Document_Content{
				Content: &discoveryenginepb.Document_Content_Uri{Uri: "gs://bucket/a/b/scan.pdf"},
			},
		},
	})
	assert.Equal(t, "scan.pdf", chunk.Source.Filename)
	assert.Equal(t, "Unknown", chunk.Source.DocumentType)

	// No URI either: the document id.
	chunk = resultToChunk(&discoveryenginepb.SearchResponse_SearchResult{
		Document: &discoveryenginepb.Document{Id: "doc-1"},
	})
	assert.Equal(t, "doc-1", chunk.Source.Filename)

	// Nothing at all: the generic label.
	chunk = resultToChunk(&discoveryenginepb.SearchResponse_SearchResult{
		Document: &discoveryenginepb.Document{},
	})
	assert.Equal(t, "Document", chunk.Source.Filename)
	assert.Empty(t, chunk.Content)
}

func TestSearchDocumentID(t *testing.T) {
	assert.Equal(t, "claim_7_doc_3", searchDocumentID(7, 3))
}
