package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retrohub/internal/backup"
	"retrohub/internal/collection"
	"retrohub/internal/events"
	"retrohub/internal/maintenance"
	"retrohub/internal/metaauth"
	"retrohub/internal/notify"
	"retrohub/pkg/config"
	"retrohub/pkg/logger"
	"retrohub/pkg/storage"
)

const reminderInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync() //nolint:errcheck

	kv := storage.MustOpen(storage.Config{Path: cfg.DBPath})
	defer kv.Close()

	secure, err := storage.OpenSecure(kv, cfg.KeyPath)
	if err != nil {
		log.Fatal("open secure store", zap.Error(err))
	}

	hub := events.NewHub()
	bus := events.NewBus()
	bus.AttachHub(hub)

	store := collection.NewStore(kv, bus, log)
	engine := backup.NewEngine(store, bus, log, cfg.BackupDir, cfg.ImagesDir)

	registry := notify.NewRegistry()
	scheduler := maintenance.NewScheduler(store, registry, log)
	reminderSrv := notify.NewServer(cfg.NotifyAddr, registry, log)

	tokenCache := metaauth.NewCache(kv, secure, cfg.AuthURL, metaauth.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}, log)

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/ws", events.WSHandler(hub, log))
	feedSrv := events.NewServer(cfg.EventFeedAddr, hub, log)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.DBPath})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := kv.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	collection.NewHandler(store).RegisterRoutes(router.Group("/"))
	backup.NewHandler(engine).RegisterRoutes(router.Group("/backup"))
	maintenance.NewHandler(scheduler).RegisterRoutes(router.Group("/maintenance"))
	metaauth.NewHandler(tokenCache).RegisterRoutes(router.Group("/settings"))

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := feedSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := reminderSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("HTTP API server listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// periodic reminder sync + due broadcast; also re-sync on every
	// data change so due dates follow edits promptly
	stopReminders := make(chan struct{})
	go func() {
		ticker := time.NewTicker(reminderInterval)
		defer ticker.Stop()

		evCh, cancel := bus.Subscribe()
		defer cancel()

		syncDue := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := scheduler.SyncReminders(ctx); err != nil {
				log.Warn("reminder sync failed", zap.Error(err))
				return
			}
			reminderSrv.BroadcastDue()
		}
		syncDue()

		for {
			select {
			case <-ticker.C:
				syncDue()
			case <-evCh:
				syncDue()
			case <-stopReminders:
				return
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.Stringer("signal", sig))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	log.Info("shutting down servers")
	close(stopReminders)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", zap.Error(err))
	}
	if err := feedSrv.Close(); err != nil {
		log.Warn("event feed shutdown error", zap.Error(err))
	}
	if err := reminderSrv.Close(); err != nil {
		log.Warn("reminder server shutdown error", zap.Error(err))
	}

	wg.Wait()
	log.Info("servers stopped")
}
