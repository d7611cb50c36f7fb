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
	"fmt"
	"log/slog"
	"time"

	discoveryengine "cloud.google.com/go/discoveryengine/apiv1"
	"cloud.google.com/go/discoveryengine/apiv1/discoveryenginepb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Admin manages the documents of the claims datastore: indexing uploaded
// claim documents with a per-owner ACL, and removing them again. Used by
// the document-upload flow and the claimsctl CLI, never by the chat path.
type Admin struct {
	client *discoveryengine.DocumentClient
	cfg    VertexConfig
}

// NewAdmin creates a document administration client for the configured
// datastore.
func NewAdmin(ctx context.Context, cfg VertexConfig, opts ...option.ClientOption) (*Admin, error) {
	if cfg.ProjectID == "" || cfg.DataStoreID == "" {
		return nil, fmt.Errorf("vertex search config incomplete: project and datastore ids are required")
	}

	opts = append([]option.ClientOption{option.WithEndpoint(cfg.Endpoint())}, opts...)
	client, err := discoveryengine.NewDocumentClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery engine document client: %w", err)
	}
	return &Admin{client: client, cfg: cfg}, nil
}

// Close releases the underlying gRPC connection.
func (a *Admin) Close() error {
	return a.client.Close()
}

// IndexRequest describes one claim document to index.
//
// UserID MUST come from the authenticated identity, never from client
// input: it becomes the only ACL reader of the indexed document.
type IndexRequest struct {
	DocumentID   int64
	ClaimID      int64
	UserID       string
	GCSURI       string
	DocumentType string
	Filename     string
	MimeType     string
}

// searchDocumentID builds the datastore document id for a claim document.
func searchDocumentID(claimID, documentID int64) string {
	return fmt.Sprintf("claim_%d_doc_%d", claimID, documentID)
}

// buildDocument assembles the Discovery Engine document with content
// reference, metadata, and owner-only ACL.
func (a *Admin) buildDocument(req IndexRequest, docID string) (*discoveryenginepb.Document, error) {
	structData, err := structpb.NewStruct(map[string]interface{}{
		"claim_id":      fmt.Sprintf("%d", req.ClaimID),
		"document_id":   fmt.Sprintf("%d", req.DocumentID),
		"document_type": req.DocumentType,
		"filename":      req.Filename,
		"user_id":       req.UserID,
		"indexed_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build document metadata: %w", err)
	}

	return &discoveryenginepb.Document{
		Id:   docID,
		Name: fmt.Sprintf("%s/documents/%s", a.cfg.documentParent(), docID),
		Data: &discoveryenginepb.Document_StructData{StructData: structData},
		Content: &discoveryenginepb.Document_Content{
			MimeType: req.MimeType,
			Content: &discoveryenginepb.Document_Content_Uri{
				Uri: req.GCSURI,
			},
		},
		// Owner-only ACL: the uploading user is the single reader, which is
		// what scopes search results to the requesting user.
		AclInfo: &discoveryenginepb.Document_AclInfo{
			Readers: []*discoveryenginepb.Document_AclInfo_AccessRestriction{
				{
					Principals: []*discoveryenginepb.Principal{
						{
							Principal: &discoveryenginepb.Principal_UserId{UserId: req.UserID},
						},
					},
				},
			},
		},
	}, nil
}

// IndexDocument indexes a claim document, updating it in place when it has
// been indexed before.
func (a *Admin) IndexDocument(ctx context.Context, req IndexRequest) (string, error) {
	docID := searchDocumentID(req.ClaimID, req.DocumentID)

	doc, err := a.buildDocument(req, docID)
	if err != nil {
		return "", err
	}

	_, err = a.client.CreateDocument(ctx, &discoveryenginepb.CreateDocumentRequest{
		Parent:     a.cfg.documentParent(),
		Document:   doc,
		DocumentId: docID,
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			slog.Info("Document already indexed, updating", "documentId", docID)
			_, err = a.client.UpdateDocument(ctx, &discoveryenginepb.UpdateDocumentRequest{
				Document:     doc,
				AllowMissing: true,
			})
			if err != nil {
				return "", fmt.Errorf("failed to update indexed document %s: %w", docID, err)
			}
			return docID, nil
		}
		return "", fmt.Errorf("failed to index document %s: %w", docID, err)
	}

	slog.Info("Indexed claim document", "documentId", docID, "claimId", req.ClaimID)
	return docID, nil
}

// DeleteDocument removes a claim document from the search index.
func (a *Admin) DeleteDocument(ctx context.Context, claimID, documentID int64) error {
	docID := searchDocumentID(claimID, documentID)
	err := a.client.DeleteDocument(ctx, &discoveryenginepb.DeleteDocumentRequest{
		Name: fmt.Sprintf("%s/documents/%s", a.cfg.documentParent(), docID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document %s from index: %w", docID, err)
	}
	slog.Info("Deleted claim document from index", "documentId", docID)
	return nil
}
