// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-admin/deployments"
	"recipe-admin/internal/apiserver/auth"
	"recipe-admin/internal/apiserver/recipe"
	"recipe-admin/internal/apiserver/server"
	"recipe-admin/internal/config"
	"recipe-admin/internal/shared/infra"
	objstore "recipe-admin/internal/shared/minio"
	"recipe-admin/internal/shared/ratelimit"
	"recipe-admin/internal/shared/storage"
	pgdriver "recipe-admin/internal/shared/storage/driver/postgres"
	"recipe-admin/internal/shared/storage/driver/sqlite"
	"recipe-admin/internal/shared/storage/mongostore"
	"recipe-admin/internal/shared/storage/repository"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换数据库和 Redis）
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()
	log.Printf("Connected to %s storage", cfg.Driver)

	// 限流器：Redis（多副本共享窗口）> 进程内；测试环境不限流
	var limiter ratelimit.Limiter
	switch {
	case cfg.IsTest():
		limiter = nil
	case cfg.RedisURL != "":
		client, err := infra.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		limiter = ratelimit.NewRedisLimiter(client, ratelimit.Config{
			Max: cfg.RateLimit.Max, Window: cfg.RateLimit.Window,
		})
	default:
		mem := ratelimit.NewMemoryLimiter(ratelimit.Config{
			Max: cfg.RateLimit.Max, Window: cfg.RateLimit.Window,
		})
		// 周期清理过期窗口，防止 per-IP 记录无限增长
		stopSweeper := mem.StartSweeper(cfg.RateLimit.Window)
		defer stopSweeper()
		limiter = mem
	}

	// 图片对象存储（可选）
	var uploader recipe.ImageUploader
	if cfg.MinIO.Enabled {
		client, err := objstore.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("Failed to init MinIO client: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := client.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to ensure MinIO bucket: %v", err)
		}
		cancel()
		uploader = client
		log.Printf("Connected to MinIO at %s", cfg.MinIO.Endpoint)
	}

	// 管理员账号引导（幂等，凭据仅来自环境变量）
	if err := auth.EnsureAdminUser(store, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	h := server.NewHandler(store, cfg, limiter, uploader)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// openStore 按驱动打开持久化存储
//
// mongodb 为默认驱动；postgres 启动时执行幂等初始化脚本；
// sqlite 面向单机部署，建表走 AutoMigrate。
func openStore(cfg *config.Config) (storage.PersistentStore, error) {
	switch cfg.Driver {
	case "mongodb":
		return mongostore.NewStore(cfg.DatabaseURI, cfg.DatabaseName)
	case "postgres":
		db, err := pgdriver.Open(cfg.DatabaseURI)
		if err != nil {
			return nil, err
		}
		if _, err := db.Exec(deployments.InitDBSQL); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
		return repository.NewStore(db, pgdriver.NewDialect()), nil
	case "sqlite":
		db, err := sqlite.Open(cfg.DatabaseURI)
		if err != nil {
			return nil, err
		}
		dialect := sqlite.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return repository.NewStore(db, dialect), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}
