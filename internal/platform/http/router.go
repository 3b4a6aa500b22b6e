package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tahles/directory-crawler/internal/business/crawler"
	"github.com/tahles/directory-crawler/internal/repository"
)

// Router wires HTTP handlers around the crawl service and repositories.
type Router struct {
	ads     *repository.AdRepository
	runs    *repository.RunRepository
	stats   *repository.StatsRepository
	changes *repository.ChangeLogRepository
	crawler *crawler.Service
	origins string
}

func NewRouter(
	ads *repository.AdRepository,
	runs *repository.RunRepository,
	stats *repository.StatsRepository,
	changes *repository.ChangeLogRepository,
	crawlerSvc *crawler.Service,
	allowedOrigins string,
) *gin.Engine {
	r := &Router{
		ads:     ads,
		runs:    runs,
		stats:   stats,
		changes: changes,
		crawler: crawlerSvc,
		origins: allowedOrigins,
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), r.corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/ads", r.listAds)
		api.GET("/ads/export", r.exportAds)
		api.GET("/changes", r.listChanges)
		api.GET("/stats", r.getStats)
		api.POST("/stats/refresh", r.refreshStats)
		api.POST("/crawl/run", r.startCrawl)
		api.POST("/crawl/cancel", r.cancelCrawl)
		api.POST("/crawl/reprocess", r.startReprocess)
		api.GET("/crawl/status", r.getCrawlStatus)
		api.GET("/crawl/runs", r.listCrawlRuns)
	}

	return router
}

func (r *Router) corsMiddleware() gin.HandlerFunc {
	origins := strings.Split(r.origins, ",")
	trimmed := make([]string, 0, len(origins))
	for _, o := range origins {
		if t := strings.TrimSpace(o); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := "*"
		for _, o := range trimmed {
			if o == "*" || o == origin {
				allowed = origin
				break
			}
		}
		c.Header("Access-Control-Allow-Origin", allowed)
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *Router) listAds(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	items, total, err := r.ads.List(c.Request.Context(), repository.AdQuery{
		City:     c.Query("city"),
		Source:   c.Query("source"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  page,
	})
}

func (r *Router) exportAds(c *gin.Context) {
	ads, err := r.ads.FetchAll(c.Request.Context())
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=ads.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	if err := writer.Write([]string{"source", "source_id", "nickname", "city", "price_min", "verified", "vip", "online", "updated_at"}); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	for _, ad := range ads {
		priceMin := ""
		if ad.PriceMin != nil {
			priceMin = strconv.Itoa(*ad.PriceMin)
		}
		row := []string{
			ad.Source,
			ad.SourceID,
			ad.Nickname,
			ad.City,
			priceMin,
			fmt.Sprintf("%t", ad.Verified),
			fmt.Sprintf("%t", ad.VIP),
			fmt.Sprintf("%t", ad.Online),
			ad.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
	}
}

func (r *Router) listChanges(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := r.changes.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

func (r *Router) getStats(c *gin.Context) {
	stats, err := r.stats.GetSystemStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (r *Router) refreshStats(c *gin.Context) {
	stats, err := r.crawler.RefreshSystemStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (r *Router) startCrawl(c *gin.Context) {
	runID, err := r.crawler.Start(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runId": runID})
}

type cancelReq struct {
	RunID string `json:"runId"`
}

func (r *Router) cancelCrawl(c *gin.Context) {
	var req cancelReq
	if err := c.BindJSON(&req); err != nil || req.RunID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "runId is required"})
		return
	}
	if !r.crawler.Cancel(req.RunID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found or already finished"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runId": req.RunID, "canceled": true})
}

func (r *Router) startReprocess(c *gin.Context) {
	runID, err := r.crawler.StartReprocess(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runId": runID})
}

func (r *Router) getCrawlStatus(c *gin.Context) {
	runID := c.Query("runId")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "runId is required"})
		return
	}
	run, err := r.runs.GetRun(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (r *Router) listCrawlRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := r.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": runs})
}
