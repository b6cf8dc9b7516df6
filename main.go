package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"hackhub/internal/api"
	"hackhub/internal/repository"
	"hackhub/internal/service"
	"hackhub/internal/storage"
	"hackhub/internal/utils"
	"hackhub/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 有 .env 就先載入，讓環境變數可以覆寫設定檔
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	// 載入應用程式配置
	configDir := os.Getenv("HACKHUB_CONFIG_DIR")
	if configDir == "" {
		configDir = "./pkg/config"
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化資料庫連接
	db, err := storage.Open(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	// 確保在程序結束時關閉數據庫連接
	defer db.Close()

	// 自動遷移資料庫結構
	if err := db.AutoMigrate(); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	// 初始化 repositories 與 services
	repos := repository.NewRepositories(db)
	jwtManager := utils.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	services := service.NewServices(repos, jwtManager, cfg.Chat)

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server listening on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
