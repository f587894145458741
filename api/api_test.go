package api

import (
	"encoding/json"
	"context"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-in-grid/level"
	"github.com/hoshinonyaruko/snake-in-grid/memimg"
	"github.com/hoshinonyaruko/snake-in-grid/snake"
	"github.com/hoshinonyaruko/snake-in-grid/structs"
)

const testLevel = `+---+
|   |
| a |
|   |
+---+
`

func setup(t *testing.T) (*Game, *gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	session, err := snake.NewSession(level.StringLoader{Grid: testLevel, CellSize: 32}, snake.DefaultOptions())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	game := NewGame(session, time.Millisecond)
	static := t.TempDir()
	router := NewRouter(game, memimg.NewSprites(t.TempDir(), 32), Options{SelfPath: "http://example.test", StaticDir: static})
	return game, router, static
}

func get(router *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestUpdateDirection(t *testing.T) {
	game, router, _ := setup(t)

	if w := get(router, "/update-direction"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing direction, got %d", w.Code)
	}
	if w := get(router, "/update-direction?direction=sideways"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid direction, got %d", w.Code)
	}

	w := get(router, "/update-direction?direction=up")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if d := game.Snapshot().Direction; d != structs.Up {
		t.Errorf("Expected direction up, got %v", d)
	}
}

func TestRestart(t *testing.T) {
	game, router, _ := setup(t)

	var body struct {
		Restarted bool   `json:"restarted"`
		RoundID   string `json:"round_id"`
	}
	w := get(router, "/restart")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Restarted {
		t.Error("Restart must be ignored while playing")
	}
	first := body.RoundID

	get(router, "/update-direction?direction=left")
	game.Tick()
	game.Tick()
	if s := game.Snapshot().State; s != structs.GameOver {
		t.Fatalf("Expected GameOver, got %v", s)
	}

	w = get(router, "/restart")
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Restarted || body.RoundID == first {
		t.Errorf("Expected a new round, got %+v", body)
	}
	if s := game.Snapshot(); s.State != structs.Playing || s.Score != 0 {
		t.Errorf("Expected fresh round, got %v score %d", s.State, s.Score)
	}
}

func TestState(t *testing.T) {
	game, router, _ := setup(t)
	for i := 0; i < 20 && game.Snapshot().State == structs.Playing; i++ {
		game.Tick()
	}

	w := get(router, "/state")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"state":"won"`) {
		t.Errorf("Expected won state in body: %s", w.Body.String())
	}

	var snap structs.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if snap.Score != 1 || len(snap.Items) != 0 || len(snap.Walls) != 16 {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
}

func TestRenderMap(t *testing.T) {
	_, router, static := setup(t)

	w := get(router, "/render-map")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.ImageURL != "http://example.test/static/frame.png" {
		t.Errorf("Unexpected image url %q", body.ImageURL)
	}
	if _, err := os.Stat(filepath.Join(static, "frame.png")); err != nil {
		t.Errorf("Expected frame written: %v", err)
	}

	if w := get(router, "/static/frame.png"); w.Code != http.StatusOK {
		t.Errorf("Expected frame served from /static, got %d", w.Code)
	}
}

func TestRenderFrameUsesFallbackColours(t *testing.T) {
	game, _, _ := setup(t)
	snap := game.Snapshot()

	img := RenderFrame(snap, memimg.NewSprites(t.TempDir(), 32)).Image()
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 160 {
		t.Fatalf("Expected 160x160 frame, got %v", b)
	}

	at := func(x, y int) color.RGBA {
		return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	}
	// top-left wall
	if c := at(16, 16); c != memimg.Fallback[structs.Wall] {
		t.Errorf("Expected wall colour at top-left, got %v", c)
	}
	// head starts at column 1, middle row
	if c := at(48, 80); c != memimg.Fallback[structs.Head] {
		t.Errorf("Expected head colour, got %v", c)
	}
	// item to the right of the head
	if c := at(70, 70); c != memimg.Fallback[structs.Item] {
		t.Errorf("Expected item colour, got %v", c)
	}
}

func TestRestartReportsRoundItStarted(t *testing.T) {
	game, _, _ := setup(t)
	start := game.Snapshot().Head

	game.Signal(structs.SignalLeft)
	game.Tick()
	game.Tick()
	if s := game.Snapshot().State; s != structs.GameOver {
		t.Fatalf("Expected GameOver, got %v", s)
	}
	first := game.Snapshot().RoundID

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go game.Run(ctx)

	restarted, snap, err := game.Restart()
	if err != nil || !restarted {
		t.Fatalf("Expected restart, got %v %v", restarted, err)
	}
	if snap.RoundID == first || snap.State != structs.Playing || snap.Score != 0 {
		t.Errorf("Unexpected round %+v", snap)
	}
	if snap.Head != start || len(snap.Tail) != 0 || snap.TailTarget != 3 {
		t.Errorf("Expected the untouched start of the new round, got head %v tail %v", snap.Head, snap.Tail)
	}
}

func TestRenderMapConcurrent(t *testing.T) {
	_, router, static := setup(t)

	var wg sync.WaitGroup
	codes := make(chan int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- get(router, "/render-map").Code
		}()
	}
	wg.Wait()
	close(codes)
	for code := range codes {
		if code != http.StatusOK {
			t.Errorf("Expected 200, got %d", code)
		}
	}

	f, err := os.Open(filepath.Join(static, "frame.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("Expected a complete PNG, got %v", err)
	}

	entries, err := os.ReadDir(static)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only frame.png left behind, got %d entries", len(entries))
	}
}
