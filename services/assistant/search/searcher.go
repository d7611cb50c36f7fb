// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search provides retrieval over the user's indexed claim documents.
//
// The production implementation talks to Vertex AI Search (Discovery Engine)
// with document-level ACLs: a single datastore holds every user's documents,
// and each document lists its owner as the only reader, so search results
// are filtered to the requesting user by the service itself. The package
// never receives document content outside that scope.
package search

import "context"

// SourceInfo is the provenance of a retrieved chunk.
//
// Filename falls back (in the searcher) to the URI's last path segment, then
// to the document id, then to "Document"; DocumentType falls back to
// "Unknown". Downstream citation code may rely on these fields being set.
type SourceInfo struct {
	Filename     string `json:"filename"`
	DocumentType string `json:"document_type"`
	ClaimID      string `json:"claim_id,omitempty"`
	URI          string `json:"uri,omitempty"`
}

// DocumentChunk is one retrieved content fragment with provenance. Chunks
// are read-only once fetched; their lifetime is one request.
type DocumentChunk struct {
	DocumentID string     `json:"document_id"`
	Content    string     `json:"content"`
	Source     SourceInfo `json:"source"`
	Relevance  float64    `json:"relevance,omitempty"`
}

// Searcher defines the contract for ACL-filtered document retrieval.
//
// # Description
//
// SearchForRAG returns up to topK content chunks from the given user's
// indexed documents, ranked by relevance. Implementations must enforce
// per-user ACL filtering internally and may return an empty slice on no
// match. Errors are reported so the caller can decide how to degrade; the
// RAG pipeline treats any error as "no results".
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Searcher interface {
	SearchForRAG(ctx context.Context, query, userID string, topK int) ([]DocumentChunk, error)
}
