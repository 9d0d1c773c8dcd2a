package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tagarena/leaderboard"
	"tagarena/server"
)

// TagArena 入口：加载配置，启动 HTTP + WebSocket 服务与房间管理器
func main() {
	cfg := server.LoadConfig()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8080")
	flag.Parse()

	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	board := openBoard(cfg.DBPath)
	defer func() {
		if err := board.Close(); err != nil {
			server.Log.Warnw("close leaderboard", "err", err)
		}
	}()

	rm := server.NewRoomManager(server.RoomOptions{
		Rules:     cfg.Rules,
		Board:     board,
		BoardSize: cfg.LeaderboardSize,
	})

	router := server.NewRouter(server.RouterConfig{
		Manager:    rm,
		Board:      board,
		BoardSize:  cfg.LeaderboardSize,
		Limits:     server.ConnLimits{RPS: cfg.MoveRateLimit, Burst: cfg.MoveRateBurst},
		StaticDir:  "web",
		Production: cfg.Production,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		server.Log.Infof("TagArena listening on %s; open http://localhost%v/", cfg.Addr, cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		server.Log.Warnf("http shutdown: %v", err)
	}
	rm.Shutdown()
	server.Log.Info("Shutdown complete")
}

// openBoard DB_PATH 为空或打开失败时退回内存排行榜
func openBoard(dbPath string) leaderboard.Store {
	if dbPath == "" {
		server.Log.Info("DB_PATH empty, using in-memory leaderboard")
		return leaderboard.NewMemoryStore()
	}
	store, err := leaderboard.OpenSQLite(dbPath)
	if err != nil {
		server.Log.Errorw("open sqlite leaderboard failed, falling back to memory", "path", dbPath, "err", err)
		return leaderboard.NewMemoryStore()
	}
	server.Log.Infow("leaderboard opened", "path", dbPath)
	return store
}
