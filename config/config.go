package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// AppConfig holds the structure of the configuration
type AppConfig struct {
	SelfPath   string  `json:"selfpath"`
	Port       string  `json:"port"`
	Mode       string  `json:"mode"`
	CellSize   int     `json:"cellsize"`
	MoveSpeed  float64 `json:"movespeed"`
	TailLength int     `json:"taillength"`
	TickMs     int     `json:"tickms"`
	LevelPath  string  `json:"levelpath"`
	SpritePath string  `json:"spritepath"`
}

var (
	instance *AppConfig
	once     sync.Once
)

// Default returns the built-in settings
func Default() *AppConfig {
	return &AppConfig{
		SelfPath:   "http://127.0.0.1:38870",
		Port:       "38870",
		Mode:       "tui",
		CellSize:   32,
		MoveSpeed:  3,
		TailLength: 3,
		TickMs:     16,
		LevelPath:  "level.txt",
		SpritePath: "sprites",
	}
}

// LoadConfig initializes and returns the instance of AppConfig
func LoadConfig(filePath string) (*AppConfig, error) {
	var err error
	once.Do(func() {
		instance, err = Read(filePath)
	})
	return instance, err
}

// Read loads the settings from filePath, creating the file with defaults
// when it does not exist yet
func Read(filePath string) (*AppConfig, error) {
	cfg := Default()
	file, err := os.Open(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, saveConfig(filePath, cfg)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", filePath, err)
	}
	return cfg, nil
}

// Validate rejects values the game cannot run with
func (c *AppConfig) Validate() error {
	switch {
	case c.CellSize <= 0:
		return fmt.Errorf("cellsize must be positive, got %d", c.CellSize)
	case c.MoveSpeed <= 0:
		return fmt.Errorf("movespeed must be positive, got %v", c.MoveSpeed)
	case c.MoveSpeed > float64(c.CellSize):
		// 一个 tick 跨过整格会穿墙
		return fmt.Errorf("movespeed %v must not exceed cellsize %d", c.MoveSpeed, c.CellSize)
	case c.TickMs <= 0:
		return fmt.Errorf("tickms must be positive, got %d", c.TickMs)
	case c.TailLength < 0:
		return fmt.Errorf("taillength must not be negative, got %d", c.TailLength)
	case c.Mode != "tui" && c.Mode != "http":
		return fmt.Errorf("mode must be tui or http, got %q", c.Mode)
	}
	return nil
}

// saveConfig saves the current settings to the file
func saveConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

// GetConfigValue returns the value of the configuration by key
func GetConfigValue(key string) interface{} {
	if instance == nil {
		return ""
	}
	switch key {
	case "selfpath":
		return instance.SelfPath
	case "port":
		return instance.Port
	case "mode":
		return instance.Mode
	case "cellsize":
		return instance.CellSize
	case "movespeed":
		return instance.MoveSpeed
	case "taillength":
		return instance.TailLength
	case "tickms":
		return instance.TickMs
	case "levelpath":
		return instance.LevelPath
	case "spritepath":
		return instance.SpritePath
	default:
		return ""
	}
}
