// Package httpapi wires the HTTP transport (Gin) to the application
// services, middleware and route handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, access logging, panic
// recovery, metrics, CORS, security headers, idempotency and rate limiting.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/welder-tracker/internal/app"
	"github.com/tbourn/welder-tracker/internal/http/handlers"
	"github.com/tbourn/welder-tracker/internal/http/middleware"
	"github.com/tbourn/welder-tracker/internal/repo"
)

var corsMethods = []string{"GET", "POST", "PUT", "OPTIONS"}

var corsHeaders = []string{"Origin", "Content-Type", "Accept", "If-None-Match", middleware.HeaderIdempotencyKey}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: one structured access line per request
//  4. Recovery: capture panics after logger
//  5. Body size limiter (snapshot uploads are the largest bodies)
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter per IP, bypass on replay
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, a *app.App) *handlers.Handlers {
	cfg := a.Config
	r.HandleMethodNotAllowed = true

	h := handlers.New(a.Welders, a.Norms, a.Records, a.Snapshots, func(ctx context.Context) (repo.Stats, error) {
		return repo.StoreStats(ctx, a.DB)
	})
	h.Replays = handlers.NewReplayStore(cfg.IdempotencyTTL)
	h.Watch(a.Bus)
	if cfg.MaxImportBytes > 0 {
		h.MaxImportBytes = cfg.MaxImportBytes
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(h.MaxImportBytes + 1))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, h.Replays.Lookup))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					hdr := c.Writer.Header()
					hdr.Set("Access-Control-Allow-Origin", origin)
					hdr.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Backups carry the whole store; keep them out of shared caches.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      middleware.NoStorePrefix(strings.TrimSuffix(cfg.APIBasePath, "/") + "/snapshot"),
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Welders
		api.GET("/welders", h.ListWelders)
		api.POST("/welders", h.CreateWelder)
		api.GET("/welders/:id", h.WelderCard)

		// Records
		api.GET("/welders/:id/records", h.ListRecords)
		api.POST("/welders/:id/records", h.AddRecord)
		api.PUT("/records/:id/quantity", h.CorrectRecord)
		api.GET("/records/:id/history", h.RecordHistory)

		// Norms
		api.GET("/norms", h.ListNorms)
		api.POST("/norms", h.CreateNorm)
		api.GET("/norms/similar", h.SimilarNorms)

		// Views and backups
		api.GET("/summary", h.Summary)
		api.GET("/summary.xlsx", h.SummaryXLSX)
		api.GET("/snapshot", h.ExportSnapshot)
		api.POST("/snapshot/import", h.ImportSnapshot)
	}
	return h
}

// limitBody caps the request body size for all endpoints to maxBytes using
// http.MaxBytesReader. Requests exceeding the cap fail on read.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
