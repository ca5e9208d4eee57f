// Package server exposes the node declaration and prompt building over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rkirkendall/prompt-perfect/internal/ai"
	"github.com/rkirkendall/prompt-perfect/internal/node"
	"github.com/rkirkendall/prompt-perfect/internal/promptbuilder"
)

const requestIDHeader = "X-Request-ID"

// Response is the envelope for every JSON reply. Code 0 is success, -1 failure.
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func Success(data any) Response {
	return Response{Code: 0, Msg: "success", Data: data}
}

func Fail(msg string) Response {
	return Response{Code: -1, Msg: msg}
}

// Handler serves the routes registered by Routes.
type Handler struct {
	builder  node.Builder
	node     *node.Node
	defaults promptbuilder.RequestConfig
	logger   *slog.Logger
}

// NewHandler uses defaults for any request field a /api/build caller omits.
func NewHandler(b node.Builder, defaults promptbuilder.RequestConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		builder:  b,
		node:     node.New(b, defaults, logger),
		defaults: defaults,
		logger:   logger,
	}
}

// Routes returns a gin engine with all routes registered.
func (h *Handler) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLog())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, Success("ok")) })
	r.GET("/object_info", h.ObjectInfo)
	r.GET("/object_info/:node", h.ObjectInfo)

	api := r.Group("/api")
	{
		api.POST("/build", h.BuildHandler)
		api.POST("/run", h.RunHandler)
	}
	return r
}

func (h *Handler) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		start := time.Now()
		c.Next()
		h.logger.Info("http request",
			"id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// ObjectInfo serves the node declaration, all nodes or the one named.
func (h *Handler) ObjectInfo(c *gin.Context) {
	d := node.Describe()
	if name := c.Param("node"); name != "" && name != d.ID {
		c.JSON(http.StatusNotFound, Fail("unknown node: "+name))
		return
	}
	c.JSON(http.StatusOK, d.ObjectInfo())
}

type buildRequest struct {
	Fields      promptbuilder.FieldSet `json:"fields"`
	APIKey      string                 `json:"api_key"`
	Model       string                 `json:"model"`
	Temperature *float64               `json:"temperature"`
}

// BuildHandler runs a build from a typed request body.
func (h *Handler) BuildHandler(c *gin.Context) {
	var req buildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	cfg := h.defaults
	if req.APIKey != "" {
		cfg.APIKey = req.APIKey
	}
	if req.Model != "" {
		cfg.Model = req.Model
	}
	if req.Temperature != nil {
		cfg.Temperature = *req.Temperature
	}
	res, err := h.builder.Build(c.Request.Context(), req.Fields, cfg)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Success(res))
}

// RunHandler runs the node from a host-style input map.
func (h *Handler) RunHandler(c *gin.Context) {
	var req struct {
		Inputs map[string]any `json:"inputs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	out, err := h.node.Run(c.Request.Context(), req.Inputs)
	if err != nil {
		h.fail(c, err)
		return
	}
	names := node.Describe().ReturnNames
	data := make(map[string]string, len(names))
	for i, n := range names {
		data[n] = out[i]
	}
	c.JSON(http.StatusOK, Success(data))
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusBadRequest
	var rce *promptbuilder.RemoteCallError
	switch {
	case errors.Is(err, promptbuilder.ErrMissingCredential):
		status = http.StatusUnauthorized
	case errors.As(err, &rce), errors.Is(err, ai.ErrNoChoices):
		status = http.StatusBadGateway
	case c.Request.Context().Err() != nil:
		status = http.StatusRequestTimeout
	}
	h.logger.Warn("build failed", "status", status, "error", err)
	c.JSON(status, Fail(err.Error()))
}
