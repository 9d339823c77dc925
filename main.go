// Package main boots the OAuth/OIDC provider's HTTP server, wiring
// configuration, the database pool, the protocol services, and routing.
//
// This file intentionally keeps logic focused on composition rather than
// business rules. Handlers, services, and the key/session/broker machinery
// live in their respective packages.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"wibusystem/oauth-provider/appstore"
	"wibusystem/oauth-provider/authzcode"
	"wibusystem/oauth-provider/broker"
	"wibusystem/oauth-provider/config"
	"wibusystem/oauth-provider/discovery"
	"wibusystem/oauth-provider/keymanager"
	"wibusystem/oauth-provider/middleware"
	"wibusystem/oauth-provider/oauthapi"
	"wibusystem/oauth-provider/session"
	"wibusystem/oauth-provider/token"
	"wibusystem/oauth-provider/userservice"
)

func main() {
	log.Println("OAuth provider starting...")

	loadEnvFiles()
	cfg := config.Load()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	pool, err := newPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	privPEM, err := base64.StdEncoding.DecodeString(cfg.OAuth.RSAPrivateKeyPEM)
	if err != nil {
		log.Fatalf("Failed to decode OAUTH_RSA_PRIVATE_KEY: %v", err)
	}
	pubPEM, err := base64.StdEncoding.DecodeString(cfg.OAuth.RSAPublicKeyPEM)
	if err != nil {
		log.Fatalf("Failed to decode OAUTH_RSA_PUBLIC_KEY: %v", err)
	}

	keys, err := keymanager.Load(keymanager.Config{
		PrivatePEM: privPEM,
		PublicPEM:  pubPEM,
		KeysDir:    cfg.OAuth.KeysDir,
	})
	if err != nil {
		log.Fatalf("Failed to load signing keys: %v", err)
	}

	sessions := session.New(cfg.Session.Secret, cfg.Session.ExpirySeconds, cfg.Session.CookieSecure, cfg.Session.CookieDomain)
	brokerVerifier := broker.New(broker.Config{
		AppID:      cfg.Broker.AppID,
		AppSecret:  cfg.Broker.AppSecret,
		JWKSURL:    cfg.Broker.JWKSURL,
		ProfileURL: cfg.Broker.ProfileURL,
		Issuer:     cfg.Broker.Issuer,
	})

	apps := appstore.New(pool)
	users := userservice.New(pool)
	codes := authzcode.New(pool, cfg.OAuth.AuthorizationCodeLifespan)
	tokens := token.New(pool, keys, apps, users, cfg.OAuth.Issuer, cfg.OAuth.AccessTokenLifespan)
	auth := middleware.NewAuthMiddleware(tokens)

	handlers := oauthapi.New(sessions, apps, users, codes, tokens, brokerVerifier, auth, cfg.OAuth.FrontendURL)
	disco := discovery.New(keys, cfg.OAuth.Issuer)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     cfg.CORS.AllowMethods,
		AllowHeaders:     cfg.CORS.AllowHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}))

	handlers.Register(router)
	disco.Register(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("OAuth provider listening on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// newPool opens the Postgres connection pool, applying the pool-sizing
// knobs from config on top of whatever libpq options are in the URL.
func newPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// loadEnvFiles loads environment variables from .env files located in the
// directory of this source file (as recorded at build time by
// runtime.Caller), allowing local overrides without polluting the OS
// environment.
// Order: .env.local then .env (later entries do not override earlier ones).
func loadEnvFiles() {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return
	}
	serviceDir := filepath.Dir(thisFile)

	_ = godotenv.Load(filepath.Join(serviceDir, ".env.local"))
	_ = godotenv.Load(filepath.Join(serviceDir, ".env"))
}
