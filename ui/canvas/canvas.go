// Package canvas provides the paintable image canvas: pan, zoom, brush strokes and the
// suggestion overlay.
package canvas

import (
	"image"
	"sync"

	mlimage "mlpaint/internal/image"
	"mlpaint/internal/stroke"
	"mlpaint/pkg/colorutil"
	"mlpaint/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// ImageCanvas shows a composite and turns mouse drags into brush dabs in image coordinates.
// Callbacks run with the canvas lock held, so they never overlap a redraw.
type ImageCanvas struct {
	widget.BaseWidget

	mu        sync.Mutex
	raster    *fynecanvas.Raster
	composite *mlimage.Composite
	view      view
	fitted    bool
	statusFn  func() string

	// Brush
	brushRadius float64 // image pixels
	brush       stroke.Brush
	painting    bool
	cursor      fyne.Position
	hover       bool

	// Callbacks
	onDab        func(ev stroke.Event)
	onRelease    func()
	onZoomChange func(zoom float64)
}

// NewImageCanvas creates an empty canvas.
func NewImageCanvas() *ImageCanvas {
	ic := &ImageCanvas{
		view:        newView(),
		fitted:      true,
		brushRadius: 10,
	}
	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(fyne.NewSize(400, 300))
	ic.ExtendBaseWidget(ic)
	return ic
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ic.raster)
}

// View implements stroke.Viewport.
func (ic *ImageCanvas) View() geometry.AffineTransform {
	return ic.view.t
}

// SetComposite sets what the canvas draws and fits it to the window.
func (ic *ImageCanvas) SetComposite(c *mlimage.Composite) {
	ic.mu.Lock()
	ic.composite = c
	ic.mu.Unlock()
	ic.FitToWindow()
}

// Do runs fn under the canvas lock and redraws. Model changes made outside the canvas
// callbacks go through here.
func (ic *ImageCanvas) Do(fn func()) {
	ic.mu.Lock()
	fn()
	ic.mu.Unlock()
	ic.Refresh()
}

// SetStatusFunc sets the source of the one-line status drawn in the top-left corner. fn is
// called under the canvas lock on every redraw.
func (ic *ImageCanvas) SetStatusFunc(fn func() string) {
	ic.mu.Lock()
	ic.statusFn = fn
	ic.mu.Unlock()
	ic.Refresh()
}

// SetBrushRadius sets the brush radius in image pixels.
func (ic *ImageCanvas) SetBrushRadius(r float64) {
	ic.brushRadius = r
	ic.Refresh()
}

// BrushRadius returns the brush radius in image pixels.
func (ic *ImageCanvas) BrushRadius() float64 { return ic.brushRadius }

// OnDab sets the callback for each brush dab.
func (ic *ImageCanvas) OnDab(callback func(ev stroke.Event)) { ic.onDab = callback }

// OnRelease sets the callback for the end of a stroke.
func (ic *ImageCanvas) OnRelease(callback func()) { ic.onRelease = callback }

// OnZoomChange sets a callback for zoom changes.
func (ic *ImageCanvas) OnZoomChange(callback func(zoom float64)) { ic.onZoomChange = callback }

// Zoom returns the current zoom level.
func (ic *ImageCanvas) Zoom() float64 { return ic.view.zoom() }

// ZoomIn zooms in around the canvas center.
func (ic *ImageCanvas) ZoomIn() { ic.zoomAt(ic.center(), zoomStep) }

// ZoomOut zooms out around the canvas center.
func (ic *ImageCanvas) ZoomOut() { ic.zoomAt(ic.center(), 1/zoomStep) }

// Pan moves the image by (dx, dy) canvas units.
func (ic *ImageCanvas) Pan(dx, dy float64) {
	ic.fitted = false
	ic.view.pan(dx, dy)
	ic.Refresh()
}

// FitToWindow shows the whole image and keeps it fitted on resize until the user zooms.
func (ic *ImageCanvas) FitToWindow() {
	ic.fitted = true
	if ic.composite == nil || ic.composite.Base == nil {
		return
	}
	b := ic.composite.Base.Bounds()
	size := ic.Size()
	ic.view.fit(float64(b.Dx()), float64(b.Dy()), float64(size.Width), float64(size.Height))
	ic.notifyZoom()
	ic.Refresh()
}

// Resize refits the image when the canvas is in fit mode.
func (ic *ImageCanvas) Resize(size fyne.Size) {
	ic.BaseWidget.Resize(size)
	if ic.fitted {
		ic.FitToWindow()
	}
}

// Refresh refreshes the canvas display.
func (ic *ImageCanvas) Refresh() {
	ic.raster.Refresh()
}

func (ic *ImageCanvas) center() geometry.Point2D {
	s := ic.Size()
	return geometry.Point2D{X: float64(s.Width) / 2, Y: float64(s.Height) / 2}
}

func (ic *ImageCanvas) zoomAt(p geometry.Point2D, factor float64) {
	ic.fitted = false
	ic.view.zoomAt(p, factor)
	ic.notifyZoom()
	ic.Refresh()
}

func (ic *ImageCanvas) notifyZoom() {
	if ic.onZoomChange != nil {
		ic.onZoomChange(ic.view.zoom())
	}
}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// dab converts a canvas position into a world-space brush event and hands it on.
func (ic *ImageCanvas) dab(pos fyne.Position) {
	ev, ok := stroke.FromScreen(ic, toPoint(pos), ic.brushRadius*ic.view.zoom(), ic.brush)
	if !ok || ic.onDab == nil {
		return
	}
	ic.mu.Lock()
	ic.onDab(ev)
	ic.mu.Unlock()
	ic.Refresh()
}

func (ic *ImageCanvas) finish() {
	if !ic.painting {
		return
	}
	ic.painting = false
	if ic.onRelease != nil {
		ic.mu.Lock()
		ic.onRelease()
		ic.mu.Unlock()
	}
	ic.Refresh()
}

// brushFor picks the brush from the mouse button and modifiers: secondary button or shift
// paints negative, alt erases.
func brushFor(button desktop.MouseButton, mod fyne.KeyModifier) stroke.Brush {
	switch {
	case mod&fyne.KeyModifierAlt != 0:
		return stroke.BrushErase
	case button == desktop.MouseButtonSecondary || mod&fyne.KeyModifierShift != 0:
		return stroke.BrushNegative
	default:
		return stroke.BrushPositive
	}
}

// MouseDown starts a stroke.
func (ic *ImageCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button == desktop.MouseButtonTertiary {
		return
	}
	ic.brush = brushFor(ev.Button, ev.Modifier)
	ic.painting = true
	ic.cursor = ev.Position
	ic.dab(ev.Position)
}

// MouseUp ends a stroke that did not turn into a drag.
func (ic *ImageCanvas) MouseUp(*desktop.MouseEvent) {
	ic.finish()
}

// Dragged continues the stroke.
func (ic *ImageCanvas) Dragged(ev *fyne.DragEvent) {
	ic.cursor = ev.Position
	if !ic.painting {
		ic.painting = true
		ic.brush = stroke.BrushPositive
	}
	ic.dab(ev.Position)
}

// DragEnd ends the stroke.
func (ic *ImageCanvas) DragEnd() {
	ic.finish()
}

// Scrolled zooms around the pointer; horizontal scrolling pans.
func (ic *ImageCanvas) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DX != 0 {
		ic.Pan(float64(ev.Scrolled.DX), 0)
	}
	if ev.Scrolled.DY > 0 {
		ic.zoomAt(toPoint(ev.Position), zoomStep)
	} else if ev.Scrolled.DY < 0 {
		ic.zoomAt(toPoint(ev.Position), 1/zoomStep)
	}
}

func (ic *ImageCanvas) MouseIn(ev *desktop.MouseEvent) {
	ic.hover = true
	ic.cursor = ev.Position
	ic.Refresh()
}

func (ic *ImageCanvas) MouseMoved(ev *desktop.MouseEvent) {
	ic.cursor = ev.Position
	ic.Refresh()
}

func (ic *ImageCanvas) MouseOut() {
	ic.hover = false
	ic.Refresh()
}

// draw is the raster drawing function. w and h are in pixels, which may differ from canvas
// units on high-DPI displays.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	if ic.composite == nil {
		output := image.NewRGBA(image.Rect(0, 0, w, h))
		for i := 3; i < len(output.Pix); i += 4 {
			output.Pix[i] = 255
		}
		return output
	}

	px := 1.0
	if size := ic.Size(); size.Width > 0 {
		px = float64(w) / float64(size.Width)
	}
	t := geometry.Scale(px, px).Compose(ic.view.t)
	output := ic.composite.RenderView(w, h, t)

	if ic.hover {
		c := toPoint(ic.cursor)
		r := ic.brushRadius * ic.view.zoom() * px
		drawEllipse(output, c.X*px, c.Y*px, r, r, colorutil.White)
	}
	if ic.statusFn != nil {
		if status := ic.statusFn(); status != "" {
			drawText(output, status, 6, 6, colorutil.Yellow, max(int(px*2), 2))
		}
	}
	return output
}
