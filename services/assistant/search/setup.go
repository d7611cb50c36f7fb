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

	discoveryengine "cloud.google.com/go/discoveryengine/apiv1"
	"cloud.google.com/go/discoveryengine/apiv1/discoveryenginepb"
	"google.golang.org/api/option"
)

// Setup provisions the Discovery Engine infrastructure: the ACL-enabled,
// chunking-enabled datastore and the search engine on top of it. Run once
// per deployment via claimsctl; ACL and chunking must be set at datastore
// creation time and cannot be changed later.
type Setup struct {
	dataStoreClient *discoveryengine.DataStoreClient
	engineClient    *discoveryengine.EngineClient
	cfg             VertexConfig
}

// NewSetup creates the provisioning clients.
func NewSetup(ctx context.Context, cfg VertexConfig, opts ...option.ClientOption) (*Setup, error) {
	opts = append([]option.ClientOption{option.WithEndpoint(cfg.Endpoint())}, opts...)

	dsClient, err := discoveryengine.NewDataStoreClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	engClient, err := discoveryengine.NewEngineClient(ctx, opts...)
	if err != nil {
		dsClient.Close()
		return nil, fmt.Errorf("failed to create engine client: %w", err)
	}

	return &Setup{dataStoreClient: dsClient, engineClient: engClient, cfg: cfg}, nil
}

// Close releases both gRPC connections.
func (s *Setup) Close() error {
	err := s.dataStoreClient.Close()
	if cerr := s.engineClient.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Setup) collectionPath() string {
	return fmt.Sprintf("projects/%s/locations/%s/collections/default_collection",
		s.cfg.ProjectID, s.cfg.Location)
}

// CreateDataStore creates the claims document datastore with OCR parsing
// and layout-based chunking configured for RAG.
func (s *Setup) CreateDataStore(ctx context.Context, displayName string) (string, error) {
	if displayName == "" {
		displayName = "Claims Documents"
	}

	dataStore := &discoveryenginepb.DataStore{
		DisplayName:      displayName,
		IndustryVertical: discoveryenginepb.IndustryVertical_GENERIC,
		SolutionTypes:    []discoveryenginepb.SolutionType{discoveryenginepb.SolutionType_SOLUTION_TYPE_SEARCH},
		ContentConfig:    discoveryenginepb.DataStore_CONTENT_REQUIRED,
		DocumentProcessingConfig: &discoveryenginepb.DocumentProcessingConfig{
			// Merge OCR output with digital text for scanned claim PDFs.
			DefaultParsingConfig: &discoveryenginepb.DocumentProcessingConfig_ParsingConfig{
				TypeDedicatedConfig: &discoveryenginepb.DocumentProcessingConfig_ParsingConfig_OcrParsingConfig_{
					OcrParsingConfig: &discoveryenginepb.DocumentProcessingConfig_ParsingConfig_OcrParsingConfig{
						UseNativeText: true,
					},
				},
			},
			ChunkingConfig: &discoveryenginepb.DocumentProcessingConfig_ChunkingConfig{
				ChunkMode: &discoveryenginepb.DocumentProcessingConfig_ChunkingConfig_LayoutBasedChunkingConfig_{
					LayoutBasedChunkingConfig: &discoveryenginepb.DocumentProcessingConfig_ChunkingConfig_LayoutBasedChunkingConfig{
						ChunkSize:               500,
						IncludeAncestorHeadings: true,
					},
				},
			},
		},
	}

	op, err := s.dataStoreClient.CreateDataStore(ctx, &discoveryenginepb.CreateDataStoreRequest{
		Parent:      s.collectionPath(),
		DataStore:   dataStore,
		DataStoreId: s.cfg.DataStoreID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create datastore: %w", err)
	}

	result, err := op.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("datastore creation did not complete: %w", err)
	}

	slog.Info("Created datastore", "name", result.GetName())
	return result.GetName(), nil
}

// CreateEngine creates the search engine linked to the claims datastore.
func (s *Setup) CreateEngine(ctx context.Context, displayName string) (string, error) {
	if displayName == "" {
		displayName = "Claims Search Engine"
	}

	engine := &discoveryenginepb.Engine{
		DisplayName:  displayName,
		SolutionType: discoveryenginepb.SolutionType_SOLUTION_TYPE_SEARCH,
		DataStoreIds: []string{s.cfg.DataStoreID},
		EngineConfig: &discoveryenginepb.Engine_SearchEngineConfig_{
			SearchEngineConfig: &discoveryenginepb.Engine_SearchEngineConfig{
				SearchTier:   discoveryenginepb.SearchTier_SEARCH_TIER_ENTERPRISE,
				SearchAddOns: []discoveryenginepb.SearchAddOn{discoveryenginepb.SearchAddOn_SEARCH_ADD_ON_LLM},
			},
		},
	}

	op, err := s.engineClient.CreateEngine(ctx, &discoveryenginepb.CreateEngineRequest{
		Parent:   s.collectionPath(),
		Engine:   engine,
		EngineId: s.cfg.EngineID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create engine: %w", err)
	}

	result, err := op.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("engine creation did not complete: %w", err)
	}

	slog.Info("Created search engine", "name", result.GetName())
	return result.GetName(), nil
}
