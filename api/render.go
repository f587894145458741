package api

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/hoshinonyaruko/snake-in-grid/memimg"
	"github.com/hoshinonyaruko/snake-in-grid/structs"
)

// RenderFrame draws one frame of snap. Cell Y grows upwards, image Y downwards.
func RenderFrame(snap structs.Snapshot, sprites *memimg.Sprites) *gg.Context {
	cs := snap.CellSize
	width := snap.Width * cs
	height := snap.Height * cs

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	renderGrid(dc, width, height, cs)

	for _, w := range snap.Walls {
		drawCell(dc, sprites, structs.Wall, w, cs, height)
	}
	for _, a := range snap.Items {
		drawCell(dc, sprites, structs.Item, a, cs, height)
	}
	for _, s := range snap.Tail {
		drawCell(dc, sprites, structs.TailSegment, s, cs, height)
	}
	drawCell(dc, sprites, structs.Head, snap.Head, cs, height)

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(fmt.Sprintf("Score: %d", snap.Score), float64(width)*0.75, float64(height)*0.1, 0.5, 0.5)
	switch snap.State {
	case structs.GameOver:
		dc.DrawStringAnchored("Game Over", float64(width)/2, float64(height)/2, 0.5, 0.5)
	case structs.Won:
		dc.DrawStringAnchored("You Win!", float64(width)/2, float64(height)/2, 0.5, 0.5)
	}
	return dc
}

func drawCell(dc *gg.Context, sprites *memimg.Sprites, tag structs.Tag, cell structs.Cell, cs, height int) {
	x := cell.X
	y := height - cell.Y - cs
	if sprites != nil {
		if img, found := sprites.Get(tag); found {
			dc.DrawImage(img, x, y)
			return
		}
	}
	// 如果图片未找到，使用纯色矩形表示
	var c = memimg.Fallback[tag]
	if sprites != nil {
		c = sprites.Color(tag)
	}
	dc.SetColor(c)
	dc.DrawRectangle(float64(x), float64(y), float64(cs), float64(cs))
	dc.Fill()
}

func renderGrid(dc *gg.Context, width, height, blockSize int) {
	dc.SetRGB(0.9, 0.9, 0.9)
	for x := 0; x <= width; x += blockSize {
		dc.DrawLine(float64(x), 0, float64(x), float64(height))
		dc.Stroke()
	}
	for y := 0; y <= height; y += blockSize {
		dc.DrawLine(0, float64(y), float64(width), float64(y))
		dc.Stroke()
	}
}
