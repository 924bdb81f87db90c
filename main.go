package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"realestate-backend/internal/config"
	"realestate-backend/internal/database"
	"realestate-backend/internal/handlers"
	"realestate-backend/internal/hub"
	"realestate-backend/internal/jwt"
	"realestate-backend/internal/keyValue"
	"realestate-backend/internal/metrics"
	"realestate-backend/internal/snowflake"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func setupLogger(cfg *config.ConfigFile) (*zap.SugaredLogger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.LogToFile {
		zapConfig.OutputPaths = []string{"app.log", "stdout"}
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapConfig.Level = level

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

func setupRedis(cfg *config.ConfigFile) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func main() {
	fmt.Println("Reading config file...")
	cfg, err := config.Load("config.json")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Println("Setting up logger...")
	sugar, err := setupLogger(&cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer sugar.Sync()

	fmt.Println("Connecting to database...")
	db, err := database.Setup(&cfg, sugar)
	if err != nil {
		sugar.Fatal(err)
	}
	defer db.Close()

	ids, err := snowflake.NewGenerator(cfg.SnowflakeWorkerID)
	if err != nil {
		sugar.Fatal(err)
	}

	var kv *keyValue.Store
	if cfg.SelfContained {
		kv = keyValue.NewLocal(sugar)
	} else {
		fmt.Println("Connecting to redis...")
		redisClient, err := setupRedis(&cfg)
		if err != nil {
			sugar.Fatal(err)
		}
		defer redisClient.Close()
		kv = keyValue.NewRedis(sugar, redisClient)
	}
	defer kv.Close()

	metrics.Init()

	store := database.NewStore(db, ids)
	tokens := jwt.NewIssuer(cfg.JwtSecret, time.Duration(cfg.TokenLifetime))
	relay := hub.NewRelay(sugar)

	h := handlers.New(&cfg, store, tokens, kv, relay, sugar)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Address, cfg.Port),
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		sugar.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			sugar.Error(err)
		}
	}()

	httpProtocol := "http"
	if cfg.IsHttps() {
		httpProtocol = "https"
	}
	sugar.Infof("Server is running on %s://%s", httpProtocol, server.Addr)

	if cfg.IsHttps() {
		err = server.ListenAndServeTLS(cfg.TlsCert, cfg.TlsKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatal(err)
	}
}
