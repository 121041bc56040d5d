package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/RevoGrid/RevoGrid/internal/car"
	"github.com/RevoGrid/RevoGrid/internal/cart"
	"github.com/RevoGrid/RevoGrid/internal/common/config"
	"github.com/RevoGrid/RevoGrid/internal/common/db"
	"github.com/RevoGrid/RevoGrid/internal/common/logger"
	"github.com/RevoGrid/RevoGrid/internal/common/middleware"
	"github.com/RevoGrid/RevoGrid/internal/common/server"
	"github.com/RevoGrid/RevoGrid/internal/common/tracing"
	"github.com/RevoGrid/RevoGrid/internal/rental"
	"github.com/RevoGrid/RevoGrid/internal/user"
	"github.com/RevoGrid/RevoGrid/internal/v2g"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/opentracing/opentracing-go"
)

var (
	configPath = flag.String("config", "configs/rental-api.json", "配置文件路径")
)

func main() {
	flag.Parse()

	// .env 可选，用于本地覆盖 Consul 地址等
	_ = godotenv.Load()

	cfg := loadConfig()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		opentracing.SetGlobalTracer(tracer)
		defer closer.Close()
	}

	gormDB, err := db.NewMySQL(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.MaxIdle,
		cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to init mysql: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&user.User{},
		&car.Car{},
		&rental.Rental{},
		&cart.Item{},
		&v2g.Transaction{},
	); err != nil {
		log.Fatalf("failed to migrate mysql schema: %v", err)
	}

	rentalSvc := rental.NewService(gormDB, log)
	defer rentalSvc.Scheduler().Stop()

	authed := middleware.JWTAuth(cfg.Auth, log)

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.AccessLog(log),
		middleware.Tracing(cfg.Server.Name),
		middleware.RateLimit(middleware.NewTokenBucket(200, 100)),
	)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	user.NewHandler(gormDB, cfg.Auth, log).RegisterRoutes(r, authed)
	car.NewHandler(gormDB, rentalSvc.Repo(), log).RegisterRoutes(r, authed)
	rental.NewHandler(rentalSvc).RegisterRoutes(r, authed)
	cart.NewHandler(gormDB, log).RegisterRoutes(r, authed)
	v2g.NewHandler(gormDB, log).RegisterRoutes(r, authed)

	if err := server.RunHTTPServer(cfg, log, r, server.WithShutdownTimeout(15*time.Second)); err != nil {
		log.Fatalf("rental-api exited with error: %v", err)
	}
}

// loadConfig 优先走 Consul KV，取不到再退回本地文件（本地文件缺失时用默认值）。
func loadConfig() *config.Config {
	consulHost := os.Getenv("CONSUL_HOST")
	if consulHost != "" {
		consulPort := 8500
		if p, err := strconv.Atoi(os.Getenv("CONSUL_PORT")); err == nil && p > 0 {
			consulPort = p
		}
		key := os.Getenv("CONSUL_CONFIG_KEY")
		if key == "" {
			key = "config/rental-api"
		}
		if cfg, err := config.LoadConfigFromConsulKV(consulHost, consulPort, key); err == nil {
			return cfg
		}
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}
