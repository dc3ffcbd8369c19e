// Command example runs a small HTTP service demonstrating the breaker.
//
// GET /test calls a downstream that always fails through the breaker.
// While the breaker is closed the handler returns 502 with the
// downstream error; once enough failures have opened it, calls
// short-circuit to the fallback and return 200 "Fallback!". GET
// /state/:key exposes the raw stored snapshot so the transition is
// observable.
//
// Configuration comes from cloudcb.yaml or CLOUDCB_ environment
// variables; the store defaults to the in-process memory backend, so
// the demo runs with no external dependencies:
//
//	CLOUDCB_SERVICE_NAME=demo go run ./example
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinton1719/cloud-circuit-breaker/circuitbreaker"
	"github.com/clinton1719/cloud-circuit-breaker/config"
	"github.com/clinton1719/cloud-circuit-breaker/logger"
	"github.com/clinton1719/cloud-circuit-breaker/store"

	_ "github.com/clinton1719/cloud-circuit-breaker/store/dynamodb"
	_ "github.com/clinton1719/cloud-circuit-breaker/store/memory"
	_ "github.com/clinton1719/cloud-circuit-breaker/store/redis"
)

var errDownstream = errors.New("downstream service is down")

func main() {
	configFile := flag.String("config", "", "path to cloudcb.yaml (default: search . and ./config)")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.NewDefault().Error("loading configuration", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}

	log := logger.New(&cfg.Logging).WithFields(map[string]interface{}{
		logger.FieldService: cfg.ServiceName,
	})

	ctx := context.Background()
	st, err := store.New(ctx, cfg.Store, log)
	if err != nil {
		log.Error("initializing store", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}

	mgr, err := circuitbreaker.NewManager(st, cfg.Breaker.Settings(), circuitbreaker.WithLogger(log))
	if err != nil {
		log.Error("initializing manager", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}
	eng := circuitbreaker.NewEngine(mgr, circuitbreaker.WithEngineLogger(log))

	router := newRouter(cfg.ServiceName, st, eng, log)

	log.Info("listening", logger.Fields("addr", *addr, logger.FieldProvider, cfg.Store.Provider))
	if err := router.Run(*addr); err != nil {
		log.Error("server stopped", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}
}

func newRouter(serviceName string, st circuitbreaker.Store, eng *circuitbreaker.Engine, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(log))

	// The same "<service>:<operation>" key every instance of this
	// service uses, so they trip and recover together.
	breakerKey := serviceName + ":getTestString"

	router.GET("/test", func(c *gin.Context) {
		out, err := circuitbreaker.ExecuteWithFallback(c.Request.Context(), eng, breakerKey,
			func(ctx context.Context) (string, error) {
				return "", errDownstream
			},
			func(ctx context.Context) (string, error) {
				return "Fallback!", nil
			},
		)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.String(http.StatusOK, out)
	})

	router.GET("/state/:key", func(c *gin.Context) {
		state, err := st.Get(c.Request.Context(), c.Param("key"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if state == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no state stored for key"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"key":               state.Key,
			"status":            state.Status,
			"failure_count":     state.FailureCount,
			"last_failure_time": state.LastFailureTime.Unix(),
		})
	})

	return router
}

// requestID injects a unique X-Request-Id header into every request/response.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(logger.FieldRequestID, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// requestLogger logs every request with method, path, status and duration.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request", map[string]interface{}{
			"method":              c.Request.Method,
			"path":                c.Request.URL.Path,
			"status":              c.Writer.Status(),
			"duration_ms":         time.Since(start).Milliseconds(),
			logger.FieldRequestID: c.GetString(logger.FieldRequestID),
		})
	}
}
