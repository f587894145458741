package structs

import "fmt"

// Cell 描述一个格子的原点坐标，X/Y 都是格子尺寸的整数倍。
type Cell struct {
	X int `json:"x"` // X坐标（像素，向右递增）
	Y int `json:"y"` // Y坐标（像素，向上递增）
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Tag 标识格子上的实体类型，绘图时用它查找贴图。
type Tag int

const (
	Wall Tag = iota
	Item
	TailSegment
	Head
)

func (t Tag) String() string {
	switch t {
	case Wall:
		return "wall"
	case Item:
		return "item"
	case TailSegment:
		return "tail"
	case Head:
		return "head"
	default:
		return "unknown"
	}
}

// Entity 是放在某个格子上的墙、食物或蛇身。
type Entity struct {
	Tag  Tag  `json:"tag"`
	Cell Cell `json:"cell"`
}

// Direction 是四个轴向单位向量之一。
type Direction struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

var (
	Left  = Direction{DX: -1, DY: 0}
	Right = Direction{DX: 1, DY: 0}
	Up    = Direction{DX: 0, DY: 1}
	Down  = Direction{DX: 0, DY: -1}
)

// Valid reports whether d is one of Left, Right, Up or Down.
func (d Direction) Valid() bool {
	switch d {
	case Left, Right, Up, Down:
		return true
	}
	return false
}

// RoundState 当前回合状态
type RoundState int

const (
	Playing RoundState = iota
	GameOver
	Won
)

func (s RoundState) String() string {
	switch s {
	case Playing:
		return "playing"
	case GameOver:
		return "game_over"
	case Won:
		return "won"
	default:
		return "unknown"
	}
}

func (s RoundState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *RoundState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "playing":
		*s = Playing
	case "game_over":
		*s = GameOver
	case "won":
		*s = Won
	default:
		return fmt.Errorf("unknown round state %q", text)
	}
	return nil
}

// Signal 是外部输入：四个方向加一个确认（重新开始）。
type Signal int

const (
	SignalNone Signal = iota
	SignalUp
	SignalDown
	SignalLeft
	SignalRight
	SignalConfirm
)

// Direction returns the movement vector carried by a directional signal.
func (s Signal) Direction() (Direction, bool) {
	switch s {
	case SignalUp:
		return Up, true
	case SignalDown:
		return Down, true
	case SignalLeft:
		return Left, true
	case SignalRight:
		return Right, true
	}
	return Direction{}, false
}

// Snapshot 是每帧给渲染端的只读视图。
type Snapshot struct {
	RoundID    string     `json:"round_id"`    // 回合标识
	State      RoundState `json:"state"`       // playing / game_over / won
	Score      int        `json:"score"`       // 本回合得分
	Head       Cell       `json:"head"`        // 蛇头所在格子
	Direction  Direction  `json:"direction"`   // 当前方向
	Tail       []Cell     `json:"tail"`        // 蛇身，最新的在前
	TailTarget int        `json:"tail_target"` // 目标蛇身长度
	Walls      []Cell     `json:"walls"`       // 墙
	Items      []Cell     `json:"items"`       // 剩余食物
	CellSize   int        `json:"cell_size"`   // 格子尺寸
	Width      int        `json:"width"`       // 地图宽度（格子数）
	Height     int        `json:"height"`      // 地图高度（格子数）
}
