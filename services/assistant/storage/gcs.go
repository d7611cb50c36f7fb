// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package storage keeps claim documents in Google Cloud Storage and turns
// gs:// references from the search index into URLs a browser can open.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// Service wraps a GCS bucket holding uploaded claim documents.
type Service struct {
	client     *storage.Client
	BucketName string
}

// NewService creates a GCS-backed document store. Credentials come from
// Application Default Credentials unless extra options override them.
func NewService(ctx context.Context, bucketName string, opts ...option.ClientOption) (*Service, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("storage bucket name is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &Service{client: client, BucketName: bucketName}, nil
}

// Close releases the underlying GCS client.
func (s *Service) Close() error {
	return s.client.Close()
}

// objectName builds a collision-free object path for a claim document:
// claims/<claimID>/<timestamp>_<uuid8><ext>. The original filename only
// contributes its extension so user input never shapes the object key.
func objectName(claimID int64, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	shortID := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("claims/%d/%d_%s%s", claimID, time.Now().UTC().Unix(), shortID, ext)
}

// Upload streams a document into the bucket and returns its gs:// URI.
func (s *Service) Upload(ctx context.Context, claimID int64, filename, contentType string, r io.Reader) (string, error) {
	object := objectName(claimID, filename)

	w := s.client.Bucket(s.BucketName).Object(object).NewWriter(ctx)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.ContentType = contentType
	w.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write GCS object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", object, err)
	}

	return fmt.Sprintf("gs://%s/%s", s.BucketName, object), nil
}

// Delete removes an object given its gs:// URI. Deleting an object that is
// already gone is not an error.
func (s *Service) Delete(ctx context.Context, gcsURI string) error {
	bucket, object, err := parseGCSURI(gcsURI)
	if err != nil {
		return err
	}

	err = s.client.Bucket(bucket).Object(object).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("failed to delete GCS object %s: %w", gcsURI, err)
	}
	return nil
}

// SignGCSURI produces a time-limited V4 signed URL for a gs:// URI. Signing
// needs a credential that can impersonate a service account; callers should
// expect failures in environments without one and fall back accordingly.
func (s *Service) SignGCSURI(gcsURI string, ttl time.Duration) (string, error) {
	bucket, object, err := parseGCSURI(gcsURI)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	url, err := s.client.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for %s: %w", gcsURI, err)
	}
	return url, nil
}

// parseGCSURI splits gs://bucket/path/to/object into bucket and object path.
func parseGCSURI(gcsURI string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(gcsURI, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// URI: %q", gcsURI)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("malformed gs:// URI: %q", gcsURI)
	}
	return bucket, object, nil
}
