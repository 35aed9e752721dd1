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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JabridDave10/distributed-systems-project-backend/config"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/api/handler"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/api/router"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/repository"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/service"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/database"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/jwt"
	applogger "github.com/JabridDave10/distributed-systems-project-backend/pkg/logger"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/redis"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "medcita",
		Short:        "医生排班与预约服务",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createUserCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap 加载配置、初始化日志并连接数据库
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, logger, cfg.Log.Level == "debug")
	if err != nil {
		logger.Sync()
		return nil, nil, nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	return cfg, logger, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// ────── serve ──────

func serveCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer closeDB(db)

			logger.Info("应用启动中...",
				zap.Int("port", cfg.Server.Port),
				zap.String("log_level", cfg.Log.Level),
				zap.String("timezone", cfg.App.Timezone),
			)

			// 1. 执行数据库迁移
			if !skipMigrate {
				sqlDB, err := db.DB()
				if err != nil {
					return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
				}
				if err := database.RunMigrations(sqlDB, logger); err != nil {
					return fmt.Errorf("数据库迁移失败: %w", err)
				}
			}

			// 2. 连接 Redis（可选：连接失败时降级运行，不中断启动）
			var (
				cache     router.Cache
				blacklist service.TokenBlacklist
			)
			rdb, err := redis.NewClient(&cfg.Redis, logger)
			if err != nil {
				logger.Warn("Redis 连接失败，Token 黑名单与限流将不可用", zap.Error(err))
			} else {
				defer rdb.Close()
				cache, blacklist = rdb, rdb
			}

			// 3. 依赖注入: Repository → Service → Handler
			jwtMgr := jwt.NewManager(&cfg.Auth)
			repo := repository.NewRepository(db)
			svc := service.NewService(cfg, repo, jwtMgr, blacklist, logger)
			h := handler.NewHandler(svc)

			if cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			engine := router.Setup(cfg, h, jwtMgr, cache, logger)

			// 4. 启动 HTTP 服务器（优雅关闭）
			srv := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      engine,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			// 5. 监听系统信号，优雅关闭
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-quit:
				logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
			case err := <-errCh:
				return fmt.Errorf("HTTP 服务器异常: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("服务器关闭异常", zap.Error(err))
			}

			logger.Info("服务器已关闭")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "启动时不执行数据库迁移")
	return cmd
}
