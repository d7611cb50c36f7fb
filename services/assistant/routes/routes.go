// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes wires the assistant's HTTP endpoints.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianClaims/services/assistant/handlers"
	"github.com/AleutianAI/AleutianClaims/services/assistant/middleware"
)

// SetupRoutes registers all endpoints on the router.
//
// Description:
//
//	Registers the public health and metrics endpoints plus the
//	authenticated chatbot API group.
//
// Endpoints:
//
//	GET  /health - Liveness probe
//	GET  /metrics - Prometheus metrics
//	POST /api/v1/chatbot/chat - Answer a chat message
//	POST /api/v1/chatbot/feedback - Rate a persisted answer
//	GET  /api/v1/chatbot/vocabulary - List glossary terms
//	GET  /api/v1/chatbot/vocabulary/:term - Define one term
func SetupRoutes(router *gin.Engine, auth middleware.AuthProvider,
	chat *handlers.ChatHandler, feedback *handlers.FeedbackHandler) {

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	vocab := handlers.NewVocabularyHandler()

	api := router.Group("/api/v1/chatbot")
	api.Use(middleware.AuthMiddleware(auth))
	{
		api.POST("/chat", chat.Chat)
		api.POST("/feedback", feedback.Submit)
		api.GET("/vocabulary", vocab.ListTerms)
		api.GET("/vocabulary/:term", vocab.GetTerm)
	}
}
