package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edugate/sitecms/handlers"
	"github.com/edugate/sitecms/internal/config"
	contenthandler "github.com/edugate/sitecms/internal/content/handler"
	"github.com/edugate/sitecms/internal/content/service"
	"github.com/edugate/sitecms/internal/database"
	"github.com/edugate/sitecms/internal/datadir"
	"github.com/edugate/sitecms/internal/i18n"
	"github.com/edugate/sitecms/internal/oidc"
	"github.com/edugate/sitecms/internal/sections"
	"github.com/edugate/sitecms/internal/storage"
	"github.com/edugate/sitecms/internal/tokens"
	"github.com/edugate/sitecms/internal/upload"
	"github.com/edugate/sitecms/internal/watcher"
	"github.com/edugate/sitecms/pkg/logger"
	"github.com/edugate/sitecms/pkg/metrics"
	"github.com/edugate/sitecms/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: root=%s mongo=%v redis=%v minio=%v editor_auth=%v",
		cfg.Site.Root, cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Storage.MinIOEndpoint != "", cfg.Editor.Enabled())
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	rep, err := datadir.Prepare(datadir.Layout{
		DataDir:           cfg.Site.DataDir,
		DefaultsDir:       cfg.Site.DefaultsDir,
		UploadDir:         cfg.Site.UploadDir,
		ContentFile:       cfg.Site.ContentFile,
		NavbarFile:        cfg.Site.NavbarFile,
		LegacyContentFile: cfg.Site.LegacyContentFile,
	})
	if err != nil {
		logger.Fatalf("failed to prepare data directory: %v", err)
	}
	logger.Infof("data directory ready: restored=%d migrated=%v created=%d", len(rep.Restored), rep.Migrated, len(rep.Created))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.ReadinessCheck{
		"data": func(context.Context) error {
			_, err := os.Stat(cfg.Site.ContentPath())
			return err
		},
	}

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			logger.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
		defer redisClient.Close()
		if cfg.RateLimit.UseRedis {
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	contentSvc := service.NewFileService("content", cfg.Site.ContentPath())
	navbarSvc := service.NewFileService("navbar", cfg.Site.NavbarPath())
	if cfg.MongoDB.URI != "" {
		if client := connectMongo(ctx, cfg); client != nil {
			defer func() { _ = client.Disconnect(context.Background()) }()
			col := client.Database(cfg.MongoDB.Database).Collection("content")
			contentSvc = service.NewMongoService("content", cfg.Site.ContentFile, col)
			navbarSvc = service.NewMongoService("navbar", cfg.Site.NavbarFile, col)
			checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
			logger.Infof("content documents stored in MongoDB %s.content", cfg.MongoDB.Database)
		}
	}

	var backend storage.Backend = storage.NewLocalStorage(cfg.Site.UploadDir)
	if mcfg := storage.MinIOConfigFrom(cfg.Storage); mcfg != nil {
		ms, err := storage.NewMinIOStorage(ctx, mcfg)
		if err != nil {
			logger.Warnf("MinIO unavailable, keeping uploads on disk: %v", err)
		} else {
			backend = ms
			logger.Infof("uploads stored in MinIO bucket %s", mcfg.Bucket)
		}
	}
	uploadSvc := upload.NewService(backend, cfg.Site.UploadURLPrefix)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.AccessLog(), middleware.SecureHeaders(), middleware.CORS())

	guards := writeGuards(ctx, cfg, redisClient)
	contenthandler.RegisterContentRoutes(r, "/api/content", contentSvc, guards...)
	contenthandler.RegisterContentRoutes(r, "/api/navbar", navbarSvc, guards...)
	handlers.RegisterUploadRoutes(r, uploadSvc, cfg.Site.UploadURLPrefix, guards...)
	handlers.RegisterProxyRoutes(r, handlers.NewProxy(nil, cfg.CDN.AllowedHosts))
	handlers.RegisterHealthRoutes(r, startTime, checks)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var siteOpts []handlers.SiteOption
	if cfg.Site.Prerender {
		siteOpts = append(siteOpts, handlers.WithPrerender(sections.DefaultTargets, i18n.DefaultConfig()))
	}
	handlers.RegisterSiteRoutes(r, handlers.NewSite(cfg.Site.Root, cfg.Site.ShellPage, siteOpts...))

	if cfg.Site.WatchFragments {
		if w, err := watcher.New(cfg.Site.SectionsDir, 300*time.Millisecond); err != nil {
			logger.Warnf("fragment watcher disabled: %v", err)
		} else {
			go w.Run(ctx)
		}
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("Server running at http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server failed: %v", err)
	}
	logger.Infof("server stopped")
}

func connectMongo(ctx context.Context, cfg *config.Config) *mongo.Client {
	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
	if err != nil {
		logger.Warnf("%v; using files in %s", err, cfg.Site.DataDir)
		return nil
	}
	return client
}

// writeGuards builds the middleware chain for POST endpoints: editor auth
// first so the limiter can key on the editor subject.
func writeGuards(ctx context.Context, cfg *config.Config, rdb *redis.Client) []gin.HandlerFunc {
	var guards []gin.HandlerFunc

	var vs []middleware.Verifier
	if cfg.Editor.JWTSecret != "" {
		ed, err := tokens.NewEditor(cfg.Editor.JWTSecret)
		if err != nil {
			logger.Fatalf("editor tokens: %v", err)
		}
		vs = append(vs, ed)
	}
	if cfg.Editor.OIDCIssuer != "" {
		ov, err := oidc.NewVerifier(ctx, cfg.Editor.OIDCIssuer, cfg.Editor.OIDCClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			vs = append(vs, ov)
		}
	}
	if cfg.Editor.Enabled() {
		// a configured but unreachable provider still locks the write endpoints
		guards = append(guards, middleware.AuthMiddleware(middleware.AnyVerifier(vs...)))
		logger.Infof("write endpoints require an editor token (%d verifier(s))", len(vs))
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			guards = append(guards, middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			guards = append(guards, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	return guards
}
