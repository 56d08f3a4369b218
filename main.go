package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gigglechat/internal/api"
	"gigglechat/internal/auth"
	"gigglechat/internal/config"
	"gigglechat/internal/redis"
	"gigglechat/internal/service/account"
	"gigglechat/internal/service/ai"
	"gigglechat/internal/service/character"
	"gigglechat/internal/service/chat"
	"gigglechat/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load(os.Getenv("GIGGLECHAT_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := cfg.BasicConfig.Database
	log.Printf("dbType: %s", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create necessary tables: users, characters
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	sqlStore := character.NewSQLStore(db)
	seeded, err := character.Seed(ctx, sqlStore, character.DefaultRoster())
	if err != nil {
		log.Fatalf("seed characters: %v", err)
	}
	if seeded > 0 {
		log.Printf("seeded %d characters", seeded)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer rdb.Close()
		log.Println("character cache backed by redis")
	}
	characters := character.NewCachedStore(sqlStore, rdb, time.Duration(cfg.BasicConfig.CharacterCacheTTLSeconds)*time.Second)
	if seeded > 0 {
		if err := characters.Invalidate(ctx); err != nil {
			log.Printf("warning: invalidate character cache: %v", err)
		}
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = ephemeralSecret()
		log.Println("warning: JWT_SECRET not set, using an ephemeral signing key; tokens will not survive a restart")
	}
	authService := auth.NewService(secret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())

	accountService, err := account.NewService(db, account.WithHashCost(cfg.Auth.BcryptCost))
	if err != nil {
		log.Fatalf("init account service: %v", err)
	}

	gateway, err := ai.NewGateway(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("init llm gateway: %v", err)
	}
	if gateway.Configured() {
		log.Printf("llm provider %s configured with model %s", cfg.LLM.Provider, cfg.LLM.Model)
	} else {
		log.Println("no llm api key configured, replies use the mock responder")
	}

	chatService := chat.NewService(characters, gateway, chat.OptionsFromConfig(cfg))
	handlers := api.NewHandler(accountService, authService, characters, chatService)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.BasicConfig.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Printf("GiggleChat backend listening on %s", srv.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func ephemeralSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("generate signing key: %v", err)
	}
	return hex.EncodeToString(buf)
}
