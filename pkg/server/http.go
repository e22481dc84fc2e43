package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/abdhe/inspirai/pkg/generator"
	"github.com/abdhe/inspirai/pkg/logger"
	"github.com/abdhe/inspirai/pkg/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	clientIDHeader  = "X-Client-ID"
)

type generateRequest struct {
	Theme     string `json:"theme"`
	Format    string `json:"format"`
	Tone      string `json:"tone"`
	Style     string `json:"style"`
	WordCount int    `json:"wordCount"`
}

type generateResponse struct {
	Text      string           `json:"text"`
	Format    generator.Format `json:"format"`
	Filename  string           `json:"filename"`
	RequestID string           `json:"requestId"`
}

type errorResponse struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Retryable      bool   `json:"retryable"`
	ProviderStatus int    `json:"providerStatus,omitempty"`
	RequestID      string `json:"requestId"`
}

type vocabularyResponse struct {
	Formats   []generator.Format            `json:"formats"`
	Tones     []string                      `json:"tones"`
	Styles    map[generator.Format][]string `json:"styles"`
	WordCount wordCountRange                `json:"wordCount"`
	Defaults  generator.Params              `json:"defaults"`
}

type wordCountRange struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

// Handler builds the HTTP API.
func (s *Server) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(s.serviceName))
	engine.Use(requestID())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  origins(s.allowedOrigins),
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader, clientIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(observe())

	engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.GET("/vocabulary", s.handleVocabulary)
	api.POST("/generate", s.handleGenerate)

	return engine
}

func (s *Server) handleGenerate(c *gin.Context) {
	ctx := c.Request.Context()
	reqID := logger.RequestID(ctx)

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Code:      "invalid_params",
			Message:   "request body must be a JSON object: " + err.Error(),
			RequestID: reqID,
		})
		return
	}

	format, err := generator.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "invalid_params", Message: err.Error(), RequestID: reqID})
		return
	}
	p := generator.Params{
		Theme:     req.Theme,
		Format:    format,
		Tone:      req.Tone,
		Style:     req.Style,
		WordCount: req.WordCount,
	}.WithDefaults()

	clientKey := c.GetHeader(clientIDHeader)
	if clientKey == "" {
		clientKey = c.ClientIP()
	}

	text, err := s.generate(ctx, clientKey, p)
	if err != nil {
		f := classify(err)
		if f.Code == "busy" {
			metrics.BusyRejectionsTotal.WithLabelValues("http").Inc()
		}
		logger.FromContext(ctx).Info("generate request failed", "component", "http", "code", f.Code, "error", err)
		c.JSON(f.HTTPStatus, errorResponse{
			Code:           f.Code,
			Message:        err.Error(),
			Retryable:      f.Retryable,
			ProviderStatus: f.ProviderStatus,
			RequestID:      reqID,
		})
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		Text:      text,
		Format:    p.Format,
		Filename:  generator.DownloadName(p.Format),
		RequestID: reqID,
	})
}

func (s *Server) handleVocabulary(c *gin.Context) {
	styles := make(map[generator.Format][]string)
	for _, f := range generator.Formats() {
		styles[f] = generator.Styles(f)
	}
	c.JSON(http.StatusOK, vocabularyResponse{
		Formats: generator.Formats(),
		Tones:   generator.Tones,
		Styles:  styles,
		WordCount: wordCountRange{
			Min:  generator.MinWordCount,
			Max:  generator.MaxWordCount,
			Step: generator.WordCountStep,
		},
		Defaults: generator.Params{}.WithDefaults(),
	})
}

// requestID reuses an incoming X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// observe records Prometheus metrics and an access log line per request.
func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())

		logger.FromContext(c.Request.Context()).Debug("http request",
			"component", "http", "method", method, "path", path, "status", status, "elapsed", elapsed)
	}
}

func origins(o []string) []string {
	if len(o) == 0 {
		return []string{"*"}
	}
	return o
}
