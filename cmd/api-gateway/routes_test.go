package main

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ultraval/secure-desk-api/pkg/config"
)

func registeredRoutes(t *testing.T) map[string]bool {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerRoutes(r, &config.Config{APIPrefix: "/api/v1"}, routeDeps{})

	routes := make(map[string]bool)
	for _, route := range r.Routes() {
		routes[route.Method+" "+route.Path] = true
	}
	return routes
}

func TestRegisterRoutesAuthSurface(t *testing.T) {
	routes := registeredRoutes(t)

	assert.True(t, routes["POST /api/v1/auth/login"])
	assert.True(t, routes["POST /api/v1/auth/refresh"])
	assert.True(t, routes["GET /api/v1/auth/me"])
	assert.True(t, routes["GET /api/v1/auth/capabilities"])
	assert.True(t, routes["POST /api/v1/auth/change-password"])
	assert.False(t, routes["GET /api/v1/users/capabilities"])
}

func TestRegisterRoutesQuincenaSurface(t *testing.T) {
	routes := registeredRoutes(t)

	assert.True(t, routes["GET /api/v1/quincena/stats"])
	assert.True(t, routes["GET /api/v1/quincena/timeline"])
	assert.True(t, routes["GET /api/v1/quincena/current"])
	assert.True(t, routes["POST /api/v1/quincena/reconcile"])
}
