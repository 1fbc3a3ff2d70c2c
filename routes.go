package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"civicwatch/config"
	"civicwatch/services"
	"civicwatch/sources"
	"civicwatch/storage"
)

// app hält die verdrahteten Dienste für die Handler.
type app struct {
	ctx        context.Context
	registry   *sources.Registry
	writer     *storage.Writer
	orch       *services.Orchestrator
	news       *services.NewsService
	enrichment *services.EnrichmentService
	aggregator *services.Aggregator
	health     *services.HealthProbe
	log        *zap.Logger
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func newRouter(cfg *config.Config, a *app, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	setupHealthRoutes(router, a)
	setupAdminRoutes(router, a)
	setupAnalyticsRoutes(router, a)
	setupRecordRoutes(router, a)
	return router
}

func setupHealthRoutes(router *gin.Engine, a *app) {
	router.GET("/health", func(c *gin.Context) {
		st := a.health.Check(c.Request.Context())
		status := http.StatusOK
		if !st.StoreUp {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, st)
	})
}

func setupAdminRoutes(router *gin.Engine, a *app) {
	rg := router.Group("/admin")

	// Ohne ?source läuft der komplette Scrape im Hintergrund, mit ?source synchron.
	rg.POST("/scrape", func(c *gin.Context) {
		if name := c.Query("source"); name != "" {
			src, ok := a.registry.Lookup(name)
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown source"})
				return
			}
			rep, err := a.orch.RunSources(c.Request.Context(), []sources.Source{src})
			if errors.Is(err, services.ErrRunInProgress) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, rep)
			return
		}

		if a.orch.Running() {
			c.JSON(http.StatusConflict, gin.H{"error": services.ErrRunInProgress.Error()})
			return
		}
		go func() {
			if _, err := a.orch.RunOnce(a.ctx); err != nil {
				a.log.Error("Async scraping run failed", zap.Error(err))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Scraping run triggered."})
	})

	rg.GET("/scrape/last", func(c *gin.Context) {
		rep, ok := a.orch.LastReport()
		if !ok {
			state, _ := a.orch.State()
			c.JSON(http.StatusNotFound, gin.H{"error": "no finished run yet", "state": state})
			return
		}
		c.JSON(http.StatusOK, rep)
	})

	rg.POST("/news", func(c *gin.Context) {
		if a.news.Running() {
			c.JSON(http.StatusConflict, gin.H{"error": services.ErrRunInProgress.Error()})
			return
		}
		go func() {
			if _, err := a.news.Run(a.ctx); err != nil {
				a.log.Error("Async news run failed", zap.Error(err))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "News run triggered."})
	})

	rg.POST("/enrich", func(c *gin.Context) {
		rep, err := a.enrichment.Sweep(c.Request.Context())
		if err != nil {
			a.log.Error("Enrichment sweep failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rep)
	})

	rg.POST("/analytics", func(c *gin.Context) {
		snap, err := a.aggregator.Recompute(c.Request.Context())
		if err != nil {
			a.log.Error("Analytics recompute failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	rg.GET("/sources", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.registry.All())
	})
}

func setupAnalyticsRoutes(router *gin.Engine, a *app) {
	router.GET("/analytics/latest", func(c *gin.Context) {
		snap, err := a.writer.LatestSnapshot(c.Request.Context())
		if storage.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot yet"})
			return
		}
		if err != nil {
			a.log.Error("Database query for latest snapshot failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, snap)
	})
}

func setupRecordRoutes(router *gin.Engine, a *app) {
	router.GET("/officials", func(c *gin.Context) {
		officials, err := a.writer.ListOfficials(c.Request.Context(), listFilter(c))
		respondList(c, a.log, officials, err)
	})
	router.GET("/bills", func(c *gin.Context) {
		bills, err := a.writer.ListBills(c.Request.Context(), listFilter(c))
		respondList(c, a.log, bills, err)
	})
	router.GET("/articles", func(c *gin.Context) {
		articles, err := a.writer.ListArticles(c.Request.Context(), listFilter(c))
		respondList(c, a.log, articles, err)
	})
}

func listFilter(c *gin.Context) storage.ListFilter {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	if offset < 0 {
		offset = 0
	}
	return storage.ListFilter{
		Jurisdiction: c.Query("jurisdiction"),
		Level:        c.Query("level"),
		Party:        c.Query("party"),
		Category:     c.Query("category"),
		Source:       c.Query("source"),
		Topic:        c.Query("topic"),
		Limit:        limit,
		Offset:       offset,
	}
}

func respondList[T any](c *gin.Context, log *zap.Logger, items []T, err error) {
	if err != nil {
		log.Error("Database list query failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, items)
}
