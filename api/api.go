package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-in-grid/logger"
	"github.com/hoshinonyaruko/snake-in-grid/memimg"
	"github.com/hoshinonyaruko/snake-in-grid/snake"
	"github.com/hoshinonyaruko/snake-in-grid/structs"
)

// Game drives a session from a single ticker goroutine and serialises HTTP
// input against it.
type Game struct {
	mu      sync.Mutex
	session *snake.Session
	tick    time.Duration
}

func NewGame(session *snake.Session, tick time.Duration) *Game {
	return &Game{session: session, tick: tick}
}

// Run ticks the session until ctx is done.
func (g *Game) Run(ctx context.Context) {
	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Tick()
		}
	}
}

func (g *Game) Tick() {
	g.mu.Lock()
	g.session.Tick()
	g.mu.Unlock()
}

func (g *Game) Signal(sig structs.Signal) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.HandleSignal(sig)
}

// Restart confirms a finished round and returns the round that is current
// afterwards, both under one lock so no tick lands in between.
func (g *Game) Restart() (bool, structs.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	restarted, err := g.session.HandleSignal(structs.SignalConfirm)
	if err != nil {
		return false, structs.Snapshot{}, err
	}
	return restarted, g.session.Snapshot(), nil
}

func (g *Game) Snapshot() structs.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.Snapshot()
}

// Options 是 HTTP 层的参数
type Options struct {
	SelfPath  string // 对外地址，用于拼接图片链接
	StaticDir string // 渲染图片输出目录
}

// NewRouter wires every route onto a gin engine.
func NewRouter(g *Game, sprites *memimg.Sprites, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	// 处理玩家改变方向
	router.GET("/update-direction", UpdateDirection(g))
	// 回合结束后重新开始
	router.GET("/restart", RestartHandler(g))
	// 当前状态
	router.GET("/state", StateHandler(g))
	// 渲染函数 返回静态地址
	router.GET("/render-map", RenderMapHandler(g, sprites, opts))
	router.Static("/static", opts.StaticDir)
	return router
}

func UpdateDirection(g *Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		newDirection := c.Query("direction")

		// 验证是否提供了必要的查询参数
		if newDirection == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: direction"})
			return
		}

		sig, ok := signalFor(newDirection)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid direction '%s' provided", newDirection)})
			return
		}

		if _, err := g.Signal(sig); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update direction"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Direction updated successfully", "direction": newDirection})
	}
}

// signalFor 定义合法的方向集合
func signalFor(direction string) (structs.Signal, bool) {
	switch direction {
	case "up":
		return structs.SignalUp, true
	case "down":
		return structs.SignalDown, true
	case "left":
		return structs.SignalLeft, true
	case "right":
		return structs.SignalRight, true
	}
	return structs.SignalNone, false
}

func RestartHandler(g *Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		restarted, snap, err := g.Restart()
		if err != nil {
			logger.Log.WithError(err).Error("restart failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load level"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"restarted": restarted, "round_id": snap.RoundID, "state": snap.State})
	}
}

func StateHandler(g *Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, g.Snapshot())
	}
}

func RenderMapHandler(g *Game, sprites *memimg.Sprites, opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := g.Snapshot()

		fileName := filepath.Join(opts.StaticDir, "frame.png")
		if err := os.MkdirAll(opts.StaticDir, os.ModePerm); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to create static directory"})
			return
		}
		if err := savePNG(RenderFrame(snap, sprites), fileName); err != nil {
			logger.Log.WithError(err).Error("render failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to render map"})
			return
		}

		imageUrl := fmt.Sprintf("%s/static/frame.png", opts.SelfPath)
		c.JSON(http.StatusOK, gin.H{"image_url": imageUrl, "state": snap.State, "score": snap.Score})
	}
}

// savePNG 先写临时文件再改名，并发请求不会读到写了一半的图片
func savePNG(dc *gg.Context, fileName string) error {
	tmp, err := os.CreateTemp(filepath.Dir(fileName), ".frame-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := dc.EncodePNG(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fileName)
}
