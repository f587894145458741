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

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-in-grid/api"
	"github.com/hoshinonyaruko/snake-in-grid/config"
	"github.com/hoshinonyaruko/snake-in-grid/level"
	"github.com/hoshinonyaruko/snake-in-grid/logger"
	"github.com/hoshinonyaruko/snake-in-grid/memimg"
	"github.com/hoshinonyaruko/snake-in-grid/snake"
	"github.com/hoshinonyaruko/snake-in-grid/tui"
)

func main() {
	configPath := flag.String("config", "./config.json", "path to config.json")
	mode := flag.String("mode", "", "override config mode: tui or http")
	flag.Parse()

	// Initialize the configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("load config")
	}
	if *mode != "" {
		cfg.Mode = *mode
		if err := cfg.Validate(); err != nil {
			logger.Log.WithError(err).Fatal("invalid -mode")
		}
	}

	// 终端模式下日志写文件，避免弄花屏幕
	if cfg.Mode == "tui" {
		logFile, err := os.OpenFile("snake.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.Log.WithError(err).Fatal("open snake.log")
		}
		defer logFile.Close()
		logger.Init(logFile)
	} else {
		logger.Init(os.Stdout)
	}

	EnsureFoldersExist(cfg.SpritePath, "static")
	if err := EnsureLevelExists(cfg.LevelPath); err != nil {
		logger.Log.WithError(err).Fatal("create default level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := snake.NewSession(
		level.FileLoader{Path: cfg.LevelPath, CellSize: cfg.CellSize},
		snake.Options{CellSize: cfg.CellSize, Speed: cfg.MoveSpeed, TailLength: cfg.TailLength},
	)
	if err != nil {
		logger.Log.WithError(err).Fatal("start first round")
	}

	// 关卡文件被修改时提前检查，下一回合才会生效
	go func() {
		err := level.Watch(ctx, cfg.LevelPath, cfg.CellSize, func(_ *level.Level, err error) {
			if err != nil {
				logger.Log.WithError(err).Warn("edited level is malformed")
				return
			}
			logger.Log.WithField("path", cfg.LevelPath).Info("level changed, used from next round")
		})
		if err != nil {
			logger.Log.WithError(err).Warn("level watcher stopped")
		}
	}()

	tick := time.Duration(cfg.TickMs) * time.Millisecond
	switch cfg.Mode {
	case "http":
		runHTTP(ctx, cfg, session, tick)
	default:
		runTUI(session, tick)
	}
}

func runTUI(session *snake.Session, tick time.Duration) {
	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Log.WithError(err).Fatal("create screen")
	}
	if err := screen.Init(); err != nil {
		logger.Log.WithError(err).Fatal("init screen")
	}
	defer screen.Fini()

	if err := tui.New(screen, session, tick).Run(); err != nil {
		logger.Log.WithError(err).Error("tui stopped")
	}
}

func runHTTP(ctx context.Context, cfg *config.AppConfig, session *snake.Session, tick time.Duration) {
	// 载入贴图到内存
	sprites := memimg.NewSprites(cfg.SpritePath, cfg.CellSize)
	if err := sprites.Load(); err != nil {
		logger.Log.WithError(err).Warn("load sprites")
	}
	// 检测并热更新到内存
	go func() {
		if err := sprites.Watch(ctx); err != nil {
			logger.Log.WithError(err).Warn("sprite watcher stopped")
		}
	}()

	game := api.NewGame(session, tick)
	go game.Run(ctx)

	port := config.GetConfigValue("port").(string)
	selfPath := config.GetConfigValue("selfpath").(string)

	router := api.NewRouter(game, sprites, api.Options{SelfPath: selfPath, StaticDir: "static"})
	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Log.WithField("port", port).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.WithError(err).Fatal("http server")
	}
}

// EnsureFoldersExist 检查并创建必需的文件夹
func EnsureFoldersExist(folders ...string) {
	for _, folder := range folders {
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			if err := os.MkdirAll(folder, 0755); err != nil {
				logger.Log.Fatalf("Failed to create %s directory: %s", folder, err)
			}
			logger.Log.Debugf("Created %s directory", folder)
		}
	}
}

// EnsureLevelExists writes the built-in level when path is missing.
func EnsureLevelExists(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return err
	}
	logger.Log.WithField("path", path).Info("writing default level")
	return os.WriteFile(path, []byte(level.DefaultGrid), 0644)
}
