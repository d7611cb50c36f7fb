// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware holds the request identity layer. The user identity
// used for ACL-scoped retrieval comes exclusively from here; it is never
// read from a request body.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const authInfoKey = "aleutian.claims.authInfo"

// AuthInfo is the authenticated caller identity attached to each request.
type AuthInfo struct {
	UserID string
}

// AuthProvider resolves the caller identity from an incoming request.
// Returning an error rejects the request with 401.
type AuthProvider interface {
	Authenticate(c *gin.Context) (AuthInfo, error)
}

// NopAuthProvider is the single-tenant development provider. Every request
// maps to the same local user; deployments front this service with a
// gateway that swaps in a real provider.
type NopAuthProvider struct{}

func (NopAuthProvider) Authenticate(_ *gin.Context) (AuthInfo, error) {
	return AuthInfo{UserID: "local-user"}, nil
}

// AuthMiddleware authenticates every request in the group and stores the
// identity in the gin context for handlers to read via GetAuthInfo.
func AuthMiddleware(provider AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := provider.Authenticate(c)
		if err != nil || info.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		SetAuthInfo(c, info)
		c.Next()
	}
}

// SetAuthInfo stores the caller identity on the request context.
func SetAuthInfo(c *gin.Context, info AuthInfo) {
	c.Set(authInfoKey, info)
}

// GetAuthInfo returns the identity placed by AuthMiddleware. The second
// return is false when the middleware did not run.
func GetAuthInfo(c *gin.Context) (AuthInfo, bool) {
	v, ok := c.Get(authInfoKey)
	if !ok {
		return AuthInfo{}, false
	}
	info, ok := v.(AuthInfo)
	return info, ok
}
