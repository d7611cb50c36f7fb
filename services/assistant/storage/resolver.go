// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// URLSigner mints a time-limited URL for a gs:// URI. *Service satisfies it.
type URLSigner interface {
	SignGCSURI(gcsURI string, ttl time.Duration) (string, error)
}

// Resolver turns document URIs from search results into something a client
// can open. Resolution never fails: any URI that cannot be turned into an
// http(s) URL resolves to the empty string and the citation ships without
// a link.
type Resolver struct {
	signer  URLSigner
	signTTL time.Duration
}

// NewResolver builds a resolver. signer may be nil, in which case gs:// URIs
// resolve straight to their public object URL.
func NewResolver(signer URLSigner, signTTL time.Duration) *Resolver {
	if signTTL <= 0 {
		signTTL = 15 * time.Minute
	}
	return &Resolver{signer: signer, signTTL: signTTL}
}

// ResolveURL maps a raw document URI to a clickable URL.
//
// Rules, in order:
//   - empty input resolves to ""
//   - http:// and https:// URLs pass through untouched
//   - gs:// URIs get a signed URL; if signing fails the public object URL
//     is used instead
//   - anything else resolves to ""
func (r *Resolver) ResolveURL(uri string) string {
	if uri == "" {
		return ""
	}
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri
	}
	if !strings.HasPrefix(uri, "gs://") {
		return ""
	}

	if r.signer != nil {
		signed, err := r.signer.SignGCSURI(uri, r.signTTL)
		if err == nil {
			return signed
		}
		slog.Warn("Could not sign source URL, falling back to public URL",
			"uri", uri, "error", err)
	}
	return publicGCSURL(uri)
}

// publicGCSURL rewrites gs://bucket/object to the unauthenticated object
// endpoint. Only useful when the bucket allows public reads, but it is the
// best available fallback when signing is not possible.
func publicGCSURL(gcsURI string) string {
	bucket, object, err := parseGCSURI(gcsURI)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}
