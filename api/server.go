package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	nodex "github.com/Sampath-yadav/Sahay-Project/agent/nodes/orchestrator"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	AllowOrigins    []string      `split_words:"true" default:"*"`
	RateLimit       float64       `split_words:"true" default:"2"`
	RateBurst       int           `split_words:"true" default:"10"`
	ShutdownTimeout time.Duration `split_words:"true" default:"15s"`
	ReadyTimeout    time.Duration `split_words:"true" default:"3s"`
}

// ChatHandler answers one message. *orchestrator.Orchestrator satisfies it.
type ChatHandler interface {
	Handle(ctx context.Context, in nodex.GraphInput) (nodex.GraphOutput, error)
}

// Check is one named readiness probe.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Deps struct {
	Chat     ChatHandler
	Checks   []Check
	Gatherer prometheus.Gatherer
}

// NewRouter wires middleware and routes onto a fresh gin engine.
func NewRouter(cfg Config, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger())

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && strings.TrimSpace(origins[0]) == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	h := &handler{
		chat:         deps.Chat,
		checks:       deps.Checks,
		readyTimeout: cfg.ReadyTimeout,
	}
	if h.readyTimeout <= 0 {
		h.readyTimeout = 3 * time.Second
	}

	r.GET("/healthz", h.healthz)
	r.GET("/readyz", h.readyz)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/v1")
	v1.Use(RateLimit(cfg.RateLimit, cfg.RateBurst))
	{
		v1.POST("/chat", h.postChat)
	}
	return r
}
