package server

import (
	"net/http"
	"os"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	"tagarena/leaderboard"
)

// RouterConfig 组装路由所需的依赖
type RouterConfig struct {
	Manager    *RoomManager
	Board      leaderboard.Store
	BoardSize  int
	Limits     ConnLimits
	StaticDir  string // 前端静态资源目录，不存在时不挂载
	Production bool
}

// NewRouter 构建 HTTP 路由：/ws、管理接口、监控接口与静态资源
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware())

	h := &Handlers{Manager: cfg.Manager, Board: cfg.Board, BoardSize: cfg.BoardSize}

	// WebSocket 不能经过 gzip 与缓存中间件
	router.GET("/ws", HandleWS(cfg.Manager, cfg.Limits))

	api := router.Group("/")
	api.Use(ginGzip.Gzip(ginGzip.DefaultCompression))
	api.Use(cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	}))
	api.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	api.GET("/leaderboard", h.Leaderboard)
	api.GET("/metrics", h.Metrics)
	api.GET("/admin/config", h.GetConfig)
	api.POST("/admin/config", h.PostConfig)
	api.GET("/admin/rooms", h.ListRooms)

	// 前后端分离：其余路径映射到 web 目录的静态资源
	if cfg.StaticDir != "" {
		if st, err := os.Stat(cfg.StaticDir); err == nil && st.IsDir() {
			files := http.FileServer(http.Dir(cfg.StaticDir))
			router.NoRoute(ginGzip.Gzip(ginGzip.DefaultCompression), func(c *gin.Context) {
				files.ServeHTTP(c.Writer, c.Request)
			})
		} else {
			Log.Warnw("static dir not found, serving API only", "dir", cfg.StaticDir)
		}
	}
	return router
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("requestID", reqID)
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

// accessLogMiddleware 使用 zap 记录请求日志
func accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		Log.Debugw("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
			"request_id", c.GetString("requestID"),
		)
	}
}
