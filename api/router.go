// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"guestbook-api/aws"
	"guestbook-api/db"
	"guestbook-api/guestbook"
	"guestbook-api/media"
	"guestbook-api/middleware"
	"guestbook-api/ratelimit"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	Router    *gin.Engine
	Guestbook *guestbook.Service
	Media     *media.Service
}

// NewRouter wires the production services from config and builds the
// HTTP router around them.
func NewRouter() (*API, error) {
	makeLogger()

	cooldown := viper.GetDuration("guestbook.cooldown")

	var limiter ratelimit.Store
	if viper.GetString("ratelimit.store") == "memory" {
		limiter = ratelimit.NewMemoryStore(cooldown)
	} else {
		conn, err := db.New()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rate limit database, %w", err)
		}

		limiter = ratelimit.NewDBStore(conn, cooldown)
	}

	store, err := aws.NewS3()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
	}

	filename := viper.GetString("guestbook.filename")

	return newAPI(
		guestbook.NewService(store, limiter, filename),
		media.NewService(store, filename),
	), nil
}

// newAPI builds the router around already-constructed services. Tests
// use it to inject fakes.
func newAPI(g *guestbook.Service, m *media.Service) *API {
	router := gin.New()
	a := &API{
		Router:    router,
		Guestbook: g,
		Media:     m,
	}

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:  []string{"*"},
			AllowMethods:  []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "x-filename"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true

	// Per-engine cache store so parallel instances (and tests) don't
	// share cached responses
	cacheStore := persist.NewMemoryStore(time.Minute)
	listMediaTTL := viper.GetDuration("cache.list_media_ttl")
	if listMediaTTL <= 0 {
		listMediaTTL = 10 * time.Second
	}

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 	-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// GET /api/guestbook 	-> Returns all guestbook entries
		main.GET("/guestbook", a.GuestbookFetch)

		// POST /api/guestbook	-> Appends a guestbook entry (form body)
		main.POST("/guestbook", middleware.BodySizeLimiter(1<<20), a.GuestbookSubmit)

		// POST /api/upload	-> JSON body requests a direct-upload URL,
		// anything else is proxied into the blob store
		main.POST("/upload", a.Upload)

		// GET /api/list-media	-> Returns the media manifest
		main.GET("/list-media", cache.CacheByRequestURI(cacheStore, listMediaTTL), a.ListMedia)
	}

	return a
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	if level, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
