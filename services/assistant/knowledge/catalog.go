// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package knowledge provides the curated fallback knowledge base for the
// claims assistant.
//
// The catalog is a small, versioned set of reference entries (general
// insurance definitions plus paraphrased Code des assurances articles)
// loaded once at process start from an embedded YAML file. It is consulted
// only when a question matches neither the user's indexed documents nor the
// running conversation, and it is immutable after load — safe for unlimited
// concurrent readers.
package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianClaims/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianClaims/services/assistant/knowledge/catalogdata"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Scoring Configuration
// =============================================================================

// ScoringWeights holds the relevance weights for catalog entry scoring.
//
// The defaults reproduce the tuning the assistant has always shipped with;
// they have not been calibrated against query logs, so they are kept as
// configuration rather than literals.
type ScoringWeights struct {
	// TopicMatch is added when the entry's topic appears as a substring
	// of the lowercased query.
	TopicMatch int
	// KeywordMatch is added once per entry keyword found as a substring
	// of the lowercased query.
	KeywordMatch int
	// WordOverlap is added once per query word longer than three
	// characters that appears verbatim among the entry content's tokens.
	WordOverlap int
}

// DefaultScoringWeights returns the standard 10/3/1 weighting.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{TopicMatch: 10, KeywordMatch: 3, WordOverlap: 1}
}

// =============================================================================
// Catalog Types
// =============================================================================

// Entry is a single reference entry in the knowledge catalog.
type Entry struct {
	Topic    string   `yaml:"topic"`
	Source   string   `yaml:"source"`
	Ref      string   `yaml:"ref"`
	Keywords []string `yaml:"keywords"`
	Content  string   `yaml:"content"`

	// contentTokens caches the whitespace-split tokens of the lowercased
	// content for word-overlap scoring.
	contentTokens map[string]struct{} `yaml:"-"`
}

type catalogFile struct {
	Version string  `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}

// Catalog is the loaded, immutable knowledge base.
type Catalog struct {
	Version string
	Entries []Entry

	weights ScoringWeights
}

// NewCatalog parses the embedded catalog file and prepares it for scoring.
//
// Returns an error if the embedded YAML is malformed or empty. The returned
// catalog is read-only; one instance is shared by all requests.
func NewCatalog() (*Catalog, error) {
	return NewCatalogWithWeights(DefaultScoringWeights())
}

// NewCatalogWithWeights is NewCatalog with explicit scoring weights.
func NewCatalogWithWeights(weights ScoringWeights) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogdata.InsuranceCatalog, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded catalog file: %w", err)
	}
	if len(file.Entries) == 0 {
		return nil, fmt.Errorf("embedded catalog contains no entries")
	}

	for i := range file.Entries {
		tokens := strings.Fields(strings.ToLower(file.Entries[i].Content))
		set := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			set[tok] = struct{}{}
		}
		file.Entries[i].contentTokens = set
	}

	return &Catalog{
		Version: file.Version,
		Entries: file.Entries,
		weights: weights,
	}, nil
}

// =============================================================================
// Scoring and Selection
// =============================================================================

// Score computes the integer relevance of one entry against a query.
//
// Scoring is deterministic: identical query and entry always yield the same
// score. A zero score means the entry is irrelevant.
func (c *Catalog) Score(e *Entry, query string) int {
	queryLower := strings.ToLower(query)
	score := 0

	topic := strings.ToLower(e.Topic)
	if topic != "" && strings.Contains(queryLower, topic) {
		score += c.weights.TopicMatch
	}

	for _, kw := range e.Keywords {
		kw = strings.ToLower(kw)
		if kw != "" && strings.Contains(queryLower, kw) {
			score += c.weights.KeywordMatch
		}
	}

	for _, word := range strings.Fields(queryLower) {
		if len(word) > 3 {
			if _, ok := e.contentTokens[word]; ok {
				score += c.weights.WordOverlap
			}
		}
	}

	return score
}

// Select returns the concatenated content of the most relevant entries and
// one citation per selected entry, in selection order.
//
// Entries scoring zero are discarded; the remainder is sorted by descending
// score with ties keeping catalog order (stable sort). When nothing scores,
// the first topK entries in catalog order are returned instead — the
// fallback knowledge base never comes back empty.
func (c *Catalog) Select(query string, topK int) (string, []datatypes.ChatSource) {
	type scored struct {
		score int
		entry *Entry
	}

	var relevant []scored
	for i := range c.Entries {
		if s := c.Score(&c.Entries[i], query); s > 0 {
			relevant = append(relevant, scored{score: s, entry: &c.Entries[i]})
		}
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].score > relevant[j].score
	})

	var selected []*Entry
	if len(relevant) == 0 {
		for i := range c.Entries {
			if i >= topK {
				break
			}
			selected = append(selected, &c.Entries[i])
		}
	} else {
		for i, s := range relevant {
			if i >= topK {
				break
			}
			selected = append(selected, s.entry)
		}
	}

	var parts []string
	sources := make([]datatypes.ChatSource, 0, len(selected))
	for _, e := range selected {
		if e.Content != "" {
			parts = append(parts, e.Content)
		}
		ref := e.Ref
		if ref == "" {
			ref = e.Topic
		}
		source := e.Source
		if source == "" {
			source = "Knowledge Base"
		}
		sources = append(sources, datatypes.ChatSource{
			Label: fmt.Sprintf("%s: %s", source, ref),
		})
	}

	return strings.Join(parts, "\n\n"), sources
}
