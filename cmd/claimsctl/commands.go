// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianClaims/services/assistant/search"
	"github.com/AleutianAI/AleutianClaims/services/assistant/storage"
)

var (
	projectID   string
	location    string
	dataStoreID string
	engineID    string
	bucketName  string

	rootCmd = &cobra.Command{
		Use:   "claimsctl",
		Short: "Operator CLI for the claims assistant",
	}

	setupSearchCmd = &cobra.Command{
		Use:   "setup-search",
		Short: "Provision the Vertex AI Search datastore and engine",
		RunE:  runSetupSearch,
	}

	uploadCmd = &cobra.Command{
		Use:   "upload <local-file>",
		Short: "Upload a claim document to storage and index it for search",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpload,
	}

	indexCmd = &cobra.Command{
		Use:   "index <gcs-uri>",
		Short: "Index an already-uploaded document for search",
		Args:  cobra.ExactArgs(1),
		RunE:  runIndex,
	}

	deleteDocCmd = &cobra.Command{
		Use:   "delete-doc",
		Short: "Remove a document from the search index",
		RunE:  runDeleteDoc,
	}

	uploadClaimID  int64
	uploadUserID   string
	uploadDocType  string
	uploadDocID    int64
	deleteClaimID  int64
	deleteDocID    int64
)

func init() {
	rootCmd.PersistentFlags().StringVar(&projectID, "project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID")
	rootCmd.PersistentFlags().StringVar(&location, "location", "global", "Vertex AI Search location")
	rootCmd.PersistentFlags().StringVar(&dataStoreID, "datastore", "claims-documents", "datastore ID")
	rootCmd.PersistentFlags().StringVar(&engineID, "engine", "claims-search", "search engine ID")
	rootCmd.PersistentFlags().StringVar(&bucketName, "bucket", os.Getenv("CLAIMS_STORAGE_BUCKET"), "GCS bucket for claim documents")

	for _, cmd := range []*cobra.Command{uploadCmd, indexCmd} {
		cmd.Flags().Int64Var(&uploadClaimID, "claim", 0, "claim ID the document belongs to")
		cmd.Flags().StringVar(&uploadUserID, "user", "", "owning user ID for ACL filtering")
		cmd.Flags().StringVar(&uploadDocType, "type", "Unknown", "document type label")
		cmd.Flags().Int64Var(&uploadDocID, "doc", 0, "numeric document ID")
		cmd.MarkFlagRequired("claim")
		cmd.MarkFlagRequired("user")
		cmd.MarkFlagRequired("doc")
	}

	deleteDocCmd.Flags().Int64Var(&deleteClaimID, "claim", 0, "claim ID the document belongs to")
	deleteDocCmd.Flags().Int64Var(&deleteDocID, "doc", 0, "numeric document ID")
	deleteDocCmd.MarkFlagRequired("claim")
	deleteDocCmd.MarkFlagRequired("doc")

	rootCmd.AddCommand(setupSearchCmd, uploadCmd, indexCmd, deleteDocCmd)
}

func vertexConfig() (search.VertexConfig, error) {
	if projectID == "" {
		return search.VertexConfig{}, fmt.Errorf("--project (or GOOGLE_CLOUD_PROJECT) is required")
	}
	return search.VertexConfig{
		ProjectID:   projectID,
		Location:    location,
		DataStoreID: dataStoreID,
		EngineID:    engineID,
	}, nil
}

func runSetupSearch(cmd *cobra.Command, _ []string) error {
	cfg, err := vertexConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	setup, err := search.NewSetup(ctx, cfg)
	if err != nil {
		return err
	}
	defer setup.Close()

	dsName, err := setup.CreateDataStore(ctx, "")
	if err != nil {
		return err
	}
	fmt.Printf("Datastore ready: %s\n", dsName)

	engName, err := setup.CreateEngine(ctx, "")
	if err != nil {
		return err
	}
	fmt.Printf("Search engine ready: %s\n", engName)
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	if bucketName == "" {
		return fmt.Errorf("--bucket (or CLAIMS_STORAGE_BUCKET) is required")
	}
	localPath := args[0]

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	ctx := cmd.Context()
	store, err := storage.NewService(ctx, bucketName)
	if err != nil {
		return err
	}
	defer store.Close()

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	gcsURI, err := store.Upload(ctx, uploadClaimID, filepath.Base(localPath), contentType, f)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded to %s\n", gcsURI)

	return indexDocument(ctx, gcsURI, filepath.Base(localPath), contentType)
}

func runIndex(cmd *cobra.Command, args []string) error {
	gcsURI := args[0]
	contentType := mime.TypeByExtension(filepath.Ext(gcsURI))
	return indexDocument(cmd.Context(), gcsURI, filepath.Base(gcsURI), contentType)
}

func indexDocument(ctx context.Context, gcsURI, filename, mimeType string) error {
	cfg, err := vertexConfig()
	if err != nil {
		return err
	}

	admin, err := search.NewAdmin(ctx, cfg)
	if err != nil {
		return err
	}
	defer admin.Close()

	name, err := admin.IndexDocument(ctx, search.IndexRequest{
		DocumentID:   uploadDocID,
		ClaimID:      uploadClaimID,
		UserID:       uploadUserID,
		GCSURI:       gcsURI,
		DocumentType: uploadDocType,
		Filename:     filename,
		MimeType:     mimeType,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Indexed as %s\n", name)
	return nil
}

func runDeleteDoc(cmd *cobra.Command, _ []string) error {
	cfg, err := vertexConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	admin, err := search.NewAdmin(ctx, cfg)
	if err != nil {
		return err
	}
	defer admin.Close()

	if err := admin.DeleteDocument(ctx, deleteClaimID, deleteDocID); err != nil {
		return err
	}
	fmt.Println("Document removed from the index")
	return nil
}
