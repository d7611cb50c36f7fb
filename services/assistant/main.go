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
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"

	"github.com/AleutianAI/AleutianClaims/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianClaims/services/assistant/handlers"
	"github.com/AleutianAI/AleutianClaims/services/assistant/knowledge"
	"github.com/AleutianAI/AleutianClaims/services/assistant/middleware"
	"github.com/AleutianAI/AleutianClaims/services/assistant/observability"
	"github.com/AleutianAI/AleutianClaims/services/assistant/rag"
	"github.com/AleutianAI/AleutianClaims/services/assistant/routes"
	"github.com/AleutianAI/AleutianClaims/services/assistant/search"
	"github.com/AleutianAI/AleutianClaims/services/assistant/storage"
	"github.com/AleutianAI/AleutianClaims/services/llm"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("claims-assistant")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// initWeaviate connects to the chat persistence store. Returns nil when the
// service should run without persistence.
func initWeaviate() *weaviate.Client {
	weaviateURL := strings.Trim(os.Getenv("WEAVIATE_SERVICE_URL"), "\"' ")
	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("WEAVIATE_SERVICE_URL not set or empty. Running without chat persistence.")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WEAVIATE_SERVICE_URL is invalid. Running without chat persistence.",
			"url", weaviateURL, "error", err)
		return nil
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client", "error", err)
		return nil
	}

	datatypes.EnsureChatSchema(client)
	return client
}

// initSearcher builds the Vertex AI Search retriever when enabled. Returns
// nil when document retrieval is off; the pipeline then answers from the
// knowledge base and conversation history only.
func initSearcher(ctx context.Context) search.Searcher {
	if strings.ToLower(os.Getenv("ENABLE_VERTEX_SEARCH")) != "true" {
		slog.Info("ENABLE_VERTEX_SEARCH is not 'true'. Document retrieval disabled.")
		return nil
	}

	cfg := search.VertexConfig{
		ProjectID:   os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Location:    os.Getenv("VERTEX_SEARCH_LOCATION"),
		DataStoreID: os.Getenv("VERTEX_SEARCH_DATASTORE_ID"),
		EngineID:    os.Getenv("VERTEX_SEARCH_ENGINE_ID"),
	}
	if cfg.Location == "" {
		cfg.Location = "global"
	}
	if cfg.ProjectID == "" || cfg.DataStoreID == "" {
		slog.Warn("Vertex search enabled but GOOGLE_CLOUD_PROJECT or VERTEX_SEARCH_DATASTORE_ID missing. Document retrieval disabled.")
		return nil
	}

	searcher, err := search.NewVertexSearcher(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create Vertex searcher. Document retrieval disabled.", "error", err)
		return nil
	}
	return searcher
}

// initGenerator picks the LLM backend from LLM_BACKEND_TYPE.
func initGenerator(ctx context.Context) (llm.LLMClient, error) {
	backend := strings.ToLower(os.Getenv("LLM_BACKEND_TYPE"))
	switch backend {
	case "openai":
		return llm.NewOpenAIClient()
	case "", "gemini":
		return llm.NewGeminiClient(ctx)
	default:
		slog.Warn("Unknown LLM_BACKEND_TYPE, defaulting to gemini", "backend", backend)
		return llm.NewGeminiClient(ctx)
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("CHATBOT_PORT")
	if port == "" {
		port = "8080"
	}

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	ctx := context.Background()

	weaviateClient := initWeaviate()
	searcher := initSearcher(ctx)

	var resolver *storage.Resolver
	if bucket := os.Getenv("CLAIMS_STORAGE_BUCKET"); bucket != "" {
		storageSvc, err := storage.NewService(ctx, bucket)
		if err != nil {
			slog.Error("Failed to create storage service. Source links will use public URLs.", "error", err)
			resolver = storage.NewResolver(nil, 0)
		} else {
			resolver = storage.NewResolver(storageSvc, 15*time.Minute)
		}
	} else {
		slog.Info("CLAIMS_STORAGE_BUCKET not set. Source links will use public URLs.")
		resolver = storage.NewResolver(nil, 0)
	}

	catalog, err := knowledge.NewCatalog()
	if err != nil {
		log.Fatalf("FATAL: Could not load the insurance knowledge catalog: %v", err)
	}

	generator, err := initGenerator(ctx)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize the LLM client: %v", err)
	}

	metrics := observability.NewChatMetrics(prometheus.DefaultRegisterer)

	ragService, err := rag.NewService(searcher, catalog, generator, resolver, metrics, rag.Config{})
	if err != nil {
		log.Fatalf("FATAL: Could not initialize the RAG service: %v", err)
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("claims-assistant"))

	// A nil *weaviate.Client must stay a nil interface so the handlers
	// take their no-persistence paths.
	var convStore *datatypes.Store
	if weaviateClient != nil {
		convStore = datatypes.NewStore(weaviateClient)
	}
	var turnStore handlers.ConversationStore
	var feedbackRecorder handlers.FeedbackRecorder
	if convStore != nil {
		turnStore = convStore
		feedbackRecorder = convStore
	}

	chatHandler := handlers.NewChatHandler(ragService, turnStore)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackRecorder)
	routes.SetupRoutes(router, middleware.NopAuthProvider{}, chatHandler, feedbackHandler)

	slog.Info("Starting claims assistant", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("failed to start the server: %v", err)
	}
}
