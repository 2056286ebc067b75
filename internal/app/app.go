// Package app wires the service together from a loaded configuration.
package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"time"
	"voxllm/internal/cache"
	"voxllm/internal/config"
	"voxllm/internal/documents"
	"voxllm/internal/latex"
	"voxllm/internal/llm"
	"voxllm/internal/logger"
	"voxllm/internal/prompt"
	"voxllm/internal/repository"
	"voxllm/internal/service"
	"voxllm/internal/transport/rest"
	"voxllm/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 5 * time.Second

type App struct {
	Config *config.Config
	Log    *logger.Logger

	Redis *redis.Client // nil when sessions live in memory
	Mongo *mongo.Client // nil when the archive is disabled

	SessionCache cache.SessionCache
	Stats        cache.StatsCache
	CaseRepo     repository.CaseRepo

	Compiler  *latex.Compiler
	Auth      *service.AuthService
	Analysis  *service.AnalysisService
	Interview *service.InterviewService
	Documents *service.DocumentService
	Hub       *ws.Hub
}

// New connects the optional backends and builds every service. Missing LLM
// credentials or an unreachable configured backend are fatal.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	if err := a.connectRedis(ctx); err != nil {
		return nil, err
	}
	if err := a.connectMongo(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	client, err := llm.New(cfg.AI, log)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("llm client: %w", err)
	}

	catalog := prompt.Default()
	if cfg.PromptsFile != "" {
		catalog, err = prompt.LoadFile(cfg.PromptsFile)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("prompts: %w", err)
		}
	}

	secret, err := jwtSecret(cfg, log)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Auth, err = service.NewAuthService(secret, cfg.SessionTTL.Duration)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Compiler = latex.NewCompiler(latex.CompilerConfig{
		PdflatexPath: cfg.LaTeX.PdflatexPath,
		WorkDir:      cfg.LaTeX.WorkDir,
		Timeout:      time.Duration(cfg.LaTeX.TimeoutSeconds) * time.Second,
	}, log)
	if path, err := a.Compiler.Locate(); err != nil {
		log.Warn("pdflatex not found; PDF requests will fail until it is installed", "error", err)
	} else {
		log.Info("pdflatex located", "path", path)
	}

	a.Hub = ws.NewHub(log)
	a.Analysis = service.NewAnalysisService(client, catalog, documents.NewLoader(cfg.DocumentsDir), log)
	a.Interview = service.NewInterviewService(a.SessionCache, a.CaseRepo, a.Stats, a.Analysis, a.Auth, log)
	a.Interview.SetBroadcaster(a.Hub)

	a.Documents, err = service.NewDocumentService(a.Compiler, a.SessionCache, a.CaseRepo, a.Stats, cfg.LaTeX, log)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) connectRedis(ctx context.Context) error {
	if a.Config.RedisAddr == "" {
		a.Log.Warn("REDIS_ADDR not set, keeping sessions in memory")
		a.SessionCache = cache.NewMemorySessionCache(a.Config.SessionTTL.Duration)
		a.Stats = cache.NewMemoryStatsCache()
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return fmt.Errorf("ping redis at %s: %w", a.Config.RedisAddr, err)
	}
	a.Log.Info("connected to redis", "addr", a.Config.RedisAddr)

	a.Redis = rdb
	a.SessionCache = cache.NewSessionCache(rdb, a.Config.SessionTTL.Duration)
	a.Stats = cache.NewStatsCache(rdb)
	return nil
}

func (a *App) connectMongo(ctx context.Context) error {
	if a.Config.MongoURI == "" {
		a.Log.Info("MONGO_URI not set, document archive disabled")
		a.CaseRepo = repository.NewNoopCaseRepo()
		return nil
	}

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(a.Config.MongoURI))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connCtx, nil); err != nil {
		client.Disconnect(ctx)
		return fmt.Errorf("ping mongodb: %w", err)
	}
	a.Log.Info("connected to mongodb", "database", a.Config.MongoDatabase)

	a.Mongo = client
	a.CaseRepo = repository.NewCaseRepo(client.Database(a.Config.MongoDatabase))
	return nil
}

// Router returns the HTTP handler for the service.
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:      a.Auth,
		InterviewService: a.Interview,
		AnalysisService:  a.Analysis,
		DocumentService:  a.Documents,
		Stats:            a.Stats,
		WSHub:            a.Hub,
		AllowOrigins:     a.Config.AllowOrigins,
		Log:              a.Log,
	})
}

// Close releases every backend connection.
func (a *App) Close(ctx context.Context) {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("redis close failed", "error", err)
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			a.Log.Warn("mongodb disconnect failed", "error", err)
		}
	}
}

// jwtSecret returns the configured secret. Outside production an empty
// secret is replaced by a random one, which invalidates tokens on restart.
func jwtSecret(cfg *config.Config, log *logger.Logger) ([]byte, error) {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret), nil
	}
	if cfg.IsProduction() {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate jwt secret: %w", err)
	}
	log.Warn("JWT_SECRET not set, using a random secret for this process")
	return secret, nil
}
