//go:build gui

package gui

import (
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const badgeSize = 120

// State colors (ANSI 256 → RGB approximations, matching the TUI)
var (
	colorActive  = color.RGBA{0, 215, 135, 255}   // green (42)
	colorConfig  = color.RGBA{255, 175, 0, 255}   // orange (214)
	colorPerm    = color.RGBA{255, 0, 0, 255}     // red (196)
	colorIdle    = color.RGBA{88, 88, 88, 255}    // gray (240)
	colorFlash   = color.RGBA{255, 255, 255, 255} // switch feedback
	colorKeyface = color.RGBA{28, 28, 28, 255}
)

// BadgeWidget draws the caps lock keycap with a state ring around it.
// The ring breathes while the agent is active and flashes white for a
// beat after every completed switch.
type BadgeWidget struct {
	widget.BaseWidget
	mu     sync.Mutex
	state  string
	frame  int
	flash  int // frames of switch feedback left
	stopCh chan struct{}
}

func NewBadgeWidget() *BadgeWidget {
	b := &BadgeWidget{stopCh: make(chan struct{})}
	b.ExtendBaseWidget(b)
	go b.animate()
	return b
}

func (b *BadgeWidget) SetState(state string) {
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()
}

func (b *BadgeWidget) Flash() {
	b.mu.Lock()
	b.flash = 8
	b.mu.Unlock()
}

func (b *BadgeWidget) Stop() {
	select {
	case <-b.stopCh:
	default:
		close(b.stopCh)
	}
}

func (b *BadgeWidget) animate() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-b.stopCh:
			return
		case <-ticker.C:
			b.mu.Lock()
			b.frame++
			if b.flash > 0 {
				b.flash--
			}
			b.mu.Unlock()
			fyne.Do(func() {
				b.Refresh()
			})
		}
	}
}

func (b *BadgeWidget) MinSize() fyne.Size {
	return fyne.NewSize(badgeSize, badgeSize)
}

func (b *BadgeWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &badgeRenderer{badge: b}
	r.ring = canvas.NewCircle(color.Transparent)
	r.ring.StrokeColor = colorIdle
	r.ring.StrokeWidth = 4
	r.face = canvas.NewCircle(colorKeyface)
	r.glyph = canvas.NewText("⇪", color.White)
	r.glyph.TextSize = 42
	r.glyph.Alignment = fyne.TextAlignCenter
	return r
}

type badgeRenderer struct {
	badge *BadgeWidget
	ring  *canvas.Circle
	face  *canvas.Circle
	glyph *canvas.Text
}

func (r *badgeRenderer) Layout(size fyne.Size) {
	pad := float32(8)
	r.ring.Move(fyne.NewPos(pad, pad))
	r.ring.Resize(fyne.NewSize(size.Width-2*pad, size.Height-2*pad))

	inner := float32(20)
	r.face.Move(fyne.NewPos(inner, inner))
	r.face.Resize(fyne.NewSize(size.Width-2*inner, size.Height-2*inner))

	gs := r.glyph.MinSize()
	r.glyph.Move(fyne.NewPos((size.Width-gs.Width)/2, (size.Height-gs.Height)/2))
	r.glyph.Resize(gs)
}

func (r *badgeRenderer) MinSize() fyne.Size {
	return r.badge.MinSize()
}

func (r *badgeRenderer) Refresh() {
	r.badge.mu.Lock()
	state := r.badge.state
	frame := r.badge.frame
	flash := r.badge.flash
	r.badge.mu.Unlock()

	var ring color.RGBA
	switch state {
	case "active":
		ring = colorActive
	case "configuring":
		ring = colorConfig
	case "permissions-required":
		ring = colorPerm
	default:
		ring = colorIdle
	}

	if flash > 0 {
		ring = colorFlash
	} else if state == "active" {
		// Breathe: modulate the ring alpha on a slow sine
		a := 180 + 75*math.Sin(float64(frame)*0.12)
		ring.A = uint8(a)
	}

	r.ring.StrokeColor = ring
	r.ring.Refresh()
	r.glyph.Refresh()
}

func (r *badgeRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.ring, r.face, r.glyph}
}

func (r *badgeRenderer) Destroy() {
	r.badge.Stop()
}
