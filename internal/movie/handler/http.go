package handler

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
	"github.com/umanagarjuna/go-movie-aggregator/pkg/validator"
)

//go:embed templates/index.html
var templates embed.FS

// MovieLister is the aggregation core as seen by the adapters.
type MovieLister interface {
	ListMovies(ctx context.Context, filter string, page, pageLimit int) ([]domain.AggregatedMovie, error)
	DumpCache(ctx context.Context) (*domain.CacheDump, error)
}

// MetricsReader exposes collected counters and gauges.
type MetricsReader interface {
	GetCounters() map[string]int64
	GetGauges() map[string]float64
}

type HTTPHandler struct {
	service   MovieLister
	validator validator.PageValidator
	metrics   MetricsReader
	logger    *zap.Logger
}

func NewHTTPHandler(service MovieLister, pages validator.PageValidator,
	metrics MetricsReader, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		service:   service,
		validator: pages,
		metrics:   metrics,
		logger:    logger,
	}
}

func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/index.html")))

	router.GET("/", h.Index)
	router.GET("/cache", h.DumpCache)
	router.GET("/metrics", h.Metrics)

	api := router.Group("/api")
	{
		api.GET("/movies", h.ListMovies)
	}
}

type listRequest struct {
	filter    string
	page      int
	pageLimit int
}

func (h *HTTPHandler) parseList(c *gin.Context) (listRequest, bool) {
	page, pageLimit, err := h.validator.Parse(c.Query("page"), c.Query("page_limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return listRequest{}, false
	}
	return listRequest{filter: c.Query("filter"), page: page, pageLimit: pageLimit}, true
}

func (h *HTTPHandler) list(c *gin.Context, req listRequest) ([]domain.AggregatedMovie, bool) {
	movies, err := h.service.ListMovies(c.Request.Context(), req.filter, req.page, req.pageLimit)
	if err != nil {
		h.logger.Error("Failed to list movies",
			zap.Error(err), zap.String("filter", req.filter), zap.Int("page", req.page))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return movies, true
}

// Index renders the HTML movie list.
func (h *HTTPHandler) Index(c *gin.Context) {
	req, ok := h.parseList(c)
	if !ok {
		return
	}

	movies, ok := h.list(c, req)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Filter":    req.filter,
		"Movies":    movies,
		"Page":      req.page,
		"PrevPage":  req.page - 1,
		"NextPage":  req.page + 1,
		"PageLimit": req.pageLimit,
		"HasNext":   len(movies) > 0,
	})
}

// ListMovies returns the aggregated movies as JSON.
func (h *HTTPHandler) ListMovies(c *gin.Context) {
	req, ok := h.parseList(c)
	if !ok {
		return
	}

	movies, ok := h.list(c, req)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, movies)
}

// DumpCache returns the full cache content for inspection.
func (h *HTTPHandler) DumpCache(c *gin.Context) {
	dump, err := h.service.DumpCache(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to dump cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, dump)
}

func (h *HTTPHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"counters": h.metrics.GetCounters(),
		"gauges":   h.metrics.GetGauges(),
	})
}
