// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"mlpaint/internal/app"
	"mlpaint/internal/classifier"
	"mlpaint/internal/config"
	"mlpaint/internal/engine"
	"mlpaint/internal/growth"
	mlimage "mlpaint/internal/image"
	"mlpaint/internal/label"
	"mlpaint/internal/nodata"
	"mlpaint/internal/stroke"
	"mlpaint/internal/version"
	"mlpaint/ui/canvas"
	"mlpaint/ui/panels"
	"mlpaint/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/cyclopcam/logs"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	log   logs.Log
	cfg   config.Config
	prefs *prefs.Prefs

	canvas    *canvas.ImageCanvas
	panel     *panels.ControlPanel
	statusBar *widget.Label

	// Guarded by the canvas lock once a document is open.
	doc        *app.Document
	composite  *mlimage.Composite
	autosave   *app.Autosaver
	bands      []string
	brushDigit int
	showProb   bool
	probCancel context.CancelFunc
}

// New creates the main window. bands are auxiliary layers loaded with every image.
func New(fyneApp fyne.App, log logs.Log, cfg config.Config, p *prefs.Prefs, bands []string) *MainWindow {
	mw := &MainWindow{
		Window:     fyneApp.NewWindow("mlpaint"),
		app:        fyneApp,
		log:        log,
		cfg:        cfg,
		prefs:      p,
		bands:      bands,
		brushDigit: p.Int(prefs.KeyBrushDigit, cfg.Session.BrushDigit),
		showProb:   p.Bool(prefs.KeyShowProbMap, false),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupKeys()
	mw.SetCloseIntercept(mw.onClose)
	mw.Resize(fyne.NewSize(
		float32(p.Float(prefs.KeyWindowWidth, 1280)),
		float32(p.Float(prefs.KeyWindowHeight, 860)),
	))
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewImageCanvas()
	mw.canvas.SetBrushRadius(float64(engine.BrushRadius(mw.brushDigit)))
	mw.statusBar = widget.NewLabel("Open an image to start")

	mw.panel = panels.NewControlPanel(panels.Actions{
		Grow:            mw.onGrow,
		Shrink:          mw.onShrink,
		Commit:          mw.onCommit,
		Undo:            mw.onUndo,
		Clear:           mw.onClear,
		FillNoData:      mw.onFillNoData,
		SetLock:         mw.onSetLock,
		AdjustPower:     mw.onAdjustPower,
		SetBrushDigit:   mw.setBrushDigit,
		SetProbMap:      mw.setProbMap,
		SetLabelOpacity: mw.setLabelOpacity,
	})
	mw.panel.SetBrushDigit(mw.brushDigit)
	mw.panel.SetProbMap(mw.showProb)

	zoomOutBtn := widget.NewButton("-", mw.canvas.ZoomOut)
	zoomInBtn := widget.NewButton("+", mw.canvas.ZoomIn)
	fitBtn := widget.NewButton("Fit", mw.canvas.FitToWindow)
	zoomLabel := widget.NewLabel("")
	mw.canvas.OnZoomChange(func(zoom float64) {
		zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
	})
	toolbar := container.NewHBox(widget.NewLabel("Zoom:"), zoomOutBtn, zoomInBtn, fitBtn, zoomLabel)

	canvasArea := container.NewBorder(toolbar, nil, nil, nil, mw.canvas)
	split := container.NewHSplit(mw.panel.Container(), canvasArea)
	split.SetOffset(0.2)

	mw.SetContent(container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	))
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItem("Open Labels...", mw.onOpenLabels),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Labels", mw.onSave),
		fyne.NewMenuItem("Save Labels As...", mw.onSaveAs),
		fyne.NewMenuItem("Export Probability Map...", mw.onExportProbMap),
	)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Clear Suggestion", mw.onClear),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Commit Positive", func() { mw.onCommit(label.Positive) }),
		fyne.NewMenuItem("Commit Negative", func() { mw.onCommit(label.Negative) }),
		fyne.NewMenuItem("Fill NO_DATA", mw.onFillNoData),
	)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.canvas.FitToWindow),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Toggle Probability Map", func() { mw.setProbMap(!mw.showProb) }),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("Keys", mw.onKeys),
		fyne.NewMenuItem("About", mw.onAbout),
	)
	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupKeys binds the keyboard. Keys act on the canvas regardless of focus.
func (mw *MainWindow) setupKeys() {
	c := mw.Canvas()
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyRight:
			mw.onGrow()
		case fyne.KeyLeft:
			mw.onShrink()
		case fyne.KeyReturn, fyne.KeyEnter:
			mw.onCommit(label.Positive)
		case fyne.KeyBackspace:
			mw.onCommit(label.Negative)
		case fyne.KeyEscape:
			mw.onClear()
		}
	})
	c.SetOnTypedRune(func(r rune) {
		switch {
		case r >= '1' && r <= '9':
			mw.setBrushDigit(int(r - '0'))
			mw.panel.SetBrushDigit(mw.brushDigit)
		case r == '[':
			mw.onAdjustPower(-1)
		case r == ']':
			mw.onAdjustPower(1)
		case r == '-':
			mw.scaleBrush(1 / 1.25)
		case r == '=' || r == '+':
			mw.scaleBrush(1.25)
		case r == 'l' || r == 'L':
			if mw.doc != nil {
				mw.onSetLock(!mw.doc.Session.Lock())
			}
		case r == 'p' || r == 'P':
			mw.setProbMap(!mw.showProb)
			mw.panel.SetProbMap(mw.showProb)
		case r == 'n' || r == 'N':
			mw.onFillNoData()
		}
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.onUndo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.onSave() })
}

// OpenDocument loads an image with its labels and shows it. labelPath may be empty.
func (mw *MainWindow) OpenDocument(imagePath, labelPath string) error {
	doc, err := app.Open(mw.log, mw.cfg, app.OpenOptions{Image: imagePath, Labels: labelPath, Bands: mw.bands})
	if err != nil {
		return err
	}
	mw.closeDocument()

	comp := mlimage.NewComposite(doc.Session.Base())
	comp.Step = mw.cfg.Growth.BlockSize
	comp.LabelOpacity = mw.prefs.Float(prefs.KeyLabelOpacity, 1)

	mw.canvas.Do(func() {
		mw.doc = doc
		mw.composite = comp
		mw.syncComposite()
	})
	mw.canvas.SetComposite(comp)
	mw.canvas.SetStatusFunc(func() string { return mw.status().String() })
	mw.canvas.OnDab(func(ev stroke.Event) { doc.Session.Paint(ev) })
	mw.canvas.OnRelease(func() {
		if err := doc.Session.Release(); err != nil {
			mw.showError(err)
		}
	})

	s := doc.Session
	if p := mw.prefs.Float(prefs.KeyScorePower, 0); p > 0 {
		if err := s.SetScorePower(p); err != nil {
			mw.log.Warnf("Stored score power: %v", err)
		}
	}
	s.On(engine.EventSuggestionChanged, func(interface{}) { mw.sessionChanged() })
	s.On(engine.EventLabelsChanged, func(interface{}) { mw.sessionChanged() })
	s.On(engine.EventStrokesChanged, func(interface{}) { mw.syncComposite() })
	s.On(engine.EventClassifierTrained, func(interface{}) {
		if mw.showProb {
			mw.refreshProbMap()
		}
	})

	mw.autosave = app.NewAutosaver(mw.log, mw.cfg.Session.AutosaveInterval, func() (saved bool, err error) {
		mw.canvas.Do(func() { saved, err = doc.SaveIfModified() })
		return
	})
	if mw.autosave != nil {
		mw.autosave.Start()
	}

	mw.SetTitle("mlpaint - " + filepath.Base(imagePath))
	mw.prefs.Set(prefs.KeyLastImageDir, filepath.Dir(imagePath))
	mw.updateStatus(fmt.Sprintf("Opened %s (%dx%d), labels %s", filepath.Base(imagePath),
		s.Width(), s.Height(), filepath.Base(doc.LabelPath)))
	mw.sessionChanged()
	return nil
}

func (mw *MainWindow) closeDocument() {
	if mw.autosave != nil {
		mw.autosave.Stop()
		mw.autosave = nil
	}
	if mw.probCancel != nil {
		mw.probCancel()
		mw.probCancel = nil
	}
	if mw.doc != nil {
		if _, err := mw.doc.SaveIfModified(); err != nil {
			mw.log.Errorf("Saving labels on close: %v", err)
		}
		if err := mw.doc.Session.Wait(context.Background()); err != nil {
			mw.log.Warnf("Waiting for background training: %v", err)
		}
	}
}

// withDoc runs fn under the canvas lock if a document is open.
func (mw *MainWindow) withDoc(fn func(d *app.Document)) {
	if mw.doc == nil {
		return
	}
	mw.canvas.Do(func() { fn(mw.doc) })
}

// syncComposite points the compositor at the session's current layers. Runs under the
// canvas lock.
func (mw *MainWindow) syncComposite() {
	if mw.doc == nil || mw.composite == nil {
		return
	}
	s := mw.doc.Session
	mw.composite.Labels = s.Labels()
	mw.composite.Strokes = s.Mask()
	if s.HasSuggestion() {
		mw.composite.Suggested = s
	} else {
		mw.composite.Suggested = nil
	}
}

func (mw *MainWindow) status() panels.Status {
	if mw.doc == nil {
		return panels.Status{}
	}
	s := mw.doc.Session
	st := panels.Status{
		Trained: s.Trained(),
		Rings:   s.RingCount(),
		Power:   s.ScorePower(),
		Lock:    s.Lock(),
		UndoLen: s.UndoLen(),
	}
	if s.HasSuggestion() {
		st.Ring = s.RingIndex()
		st.Threshold = s.Threshold()
		st.Enclosed = s.EnclosedCount()
	}
	return st
}

// sessionChanged runs after session events, under the canvas lock.
func (mw *MainWindow) sessionChanged() {
	mw.syncComposite()
	mw.panel.Update(mw.status())
	if mw.doc != nil && mw.doc.Modified() {
		mw.SetTitle("mlpaint - " + filepath.Base(mw.doc.ImagePath) + " *")
	}
}

func (mw *MainWindow) onGrow() {
	mw.withDoc(func(d *app.Document) {
		ok, err := d.Session.Grow()
		switch {
		case errors.Is(err, growth.ErrNoSeed):
			mw.updateStatus("Paint a positive stroke first")
		case err != nil:
			mw.showError(err)
		case !ok:
			mw.updateStatus("Suggestion cannot grow further")
		}
	})
}

func (mw *MainWindow) onShrink() {
	mw.withDoc(func(d *app.Document) { d.Session.Shrink() })
}

func (mw *MainWindow) onCommit(code label.Code) {
	mw.withDoc(func(d *app.Document) {
		n, err := d.Session.Commit(code)
		if errors.Is(err, label.ErrNoSuggestion) {
			mw.updateStatus("Nothing to commit")
			return
		} else if err != nil {
			mw.showError(err)
			return
		}
		mw.updateStatus(fmt.Sprintf("Committed %d pixels as %v", n, code))
	})
}

func (mw *MainWindow) onUndo() {
	mw.withDoc(func(d *app.Document) {
		if !d.Session.Undo() {
			mw.updateStatus("Nothing to undo")
		}
	})
}

func (mw *MainWindow) onClear() {
	mw.withDoc(func(d *app.Document) { d.Session.ClearSuggestion() })
}

func (mw *MainWindow) onFillNoData() {
	mw.withDoc(func(d *app.Document) {
		n, err := d.Session.FillNoData(nodata.Filler{})
		if err != nil {
			mw.showError(err)
			return
		}
		mw.updateStatus(fmt.Sprintf("Marked %d pixels NO_DATA", n))
	})
}

func (mw *MainWindow) onSetLock(on bool) {
	mw.withDoc(func(d *app.Document) {
		if err := d.Session.SetLock(on); err != nil {
			mw.showError(err)
		}
		mw.panel.Update(mw.status())
	})
}

// onAdjustPower moves the score power one configured step in the direction of sign.
func (mw *MainWindow) onAdjustPower(sign float64) {
	mw.withDoc(func(d *app.Document) {
		if err := d.Session.AdjustScorePower(sign * mw.cfg.Cost.ScorePowerStep); err != nil {
			mw.updateStatus(err.Error())
			return
		}
		mw.prefs.Set(prefs.KeyScorePower, d.Session.ScorePower())
		mw.panel.Update(mw.status())
	})
}

func (mw *MainWindow) setBrushDigit(d int) {
	mw.brushDigit = d
	mw.prefs.Set(prefs.KeyBrushDigit, d)
	mw.canvas.SetBrushRadius(float64(engine.BrushRadius(d)))
}

func (mw *MainWindow) scaleBrush(factor float64) {
	r := engine.ScaleBrush(int(mw.canvas.BrushRadius()), factor, mw.cfg.Growth.BlockSize)
	mw.canvas.SetBrushRadius(float64(r))
	mw.updateStatus(fmt.Sprintf("Brush radius %d", r))
}

func (mw *MainWindow) setLabelOpacity(v float64) {
	mw.prefs.Set(prefs.KeyLabelOpacity, v)
	if mw.composite != nil {
		mw.canvas.Do(func() { mw.composite.LabelOpacity = v })
	}
}

func (mw *MainWindow) setProbMap(on bool) {
	mw.showProb = on
	mw.prefs.Set(prefs.KeyShowProbMap, on)
	if !on {
		if mw.probCancel != nil {
			mw.probCancel()
			mw.probCancel = nil
		}
		if mw.composite != nil {
			mw.canvas.Do(func() { mw.composite.ProbMap = nil })
		}
		return
	}
	mw.refreshProbMap()
}

// refreshProbMap recomputes the probability overlay in the background. A newer request
// cancels an older one.
func (mw *MainWindow) refreshProbMap() {
	if mw.doc == nil {
		return
	}
	if mw.probCancel != nil {
		mw.probCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	mw.probCancel = cancel
	doc := mw.doc
	go func() {
		var c classifier.Classifier
		current := false
		mw.canvas.Do(func() {
			if current = mw.doc == doc; current {
				c = doc.Session.Classifier()
			}
		})
		if !current {
			return
		}
		// Evaluated without the canvas lock.
		pm, err := doc.Session.ProbabilityMapWith(ctx, c)
		if err == nil {
			mw.canvas.Do(func() {
				if ctx.Err() == nil && mw.doc == doc {
					mw.composite.ProbMap = pm
				}
			})
		}
		switch {
		case errors.Is(err, engine.ErrNoClassifier):
			mw.updateStatus("Probability map needs a trained classifier")
		case err != nil && !errors.Is(err, context.Canceled):
			mw.log.Errorf("Probability map: %v", err)
		}
	}()
}

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		if err := mw.OpenDocument(reader.URI().Path(), ""); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(mlimage.SupportedFormats()))
	if loc := mw.lastDir(prefs.KeyLastImageDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenLabels() {
	if mw.doc == nil {
		mw.updateStatus("Open an image first")
		return
	}
	imagePath := mw.doc.ImagePath
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.prefs.Set(prefs.KeyLastLabelDir, filepath.Dir(path))
		if err := mw.OpenDocument(imagePath, path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	if loc := mw.lastDir(prefs.KeyLastLabelDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSave() {
	mw.withDoc(func(d *app.Document) {
		if err := d.Save(); err != nil {
			mw.showError(err)
			return
		}
		mw.SetTitle("mlpaint - " + filepath.Base(d.ImagePath))
		mw.updateStatus("Saved " + d.LabelPath)
	})
}

func (mw *MainWindow) onSaveAs() {
	if mw.doc == nil {
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".png" {
			path += ".png"
		}
		mw.prefs.Set(prefs.KeyLastLabelDir, filepath.Dir(path))
		mw.withDoc(func(d *app.Document) {
			if err := d.SaveAs(path); err != nil {
				mw.showError(err)
			}
		})
	}, mw.Window)
	fd.SetFileName(filepath.Base(mw.doc.LabelPath))
	if loc := mw.lastDir(prefs.KeyLastLabelDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportProbMap() {
	if mw.doc == nil {
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		mw.withDoc(func(d *app.Document) {
			pm, err := d.Session.ProbabilityMap(context.Background())
			if err == nil {
				err = mlimage.SaveGray(path, pm)
			}
			if err != nil {
				mw.showError(err)
				return
			}
			mw.updateStatus("Wrote " + path)
		})
	}, mw.Window)
	fd.SetFileName("probability.png")
	fd.Show()
}

func (mw *MainWindow) onClose() {
	mw.closeDocument()
	size := mw.Canvas().Size()
	mw.prefs.Set(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.Set(prefs.KeyWindowHeight, float64(size.Height))
	if err := mw.prefs.Save(); err != nil {
		mw.log.Warnf("Saving preferences: %v", err)
	}
	mw.Close()
}

func (mw *MainWindow) onKeys() {
	dialog.ShowInformation("Keys",
		"Left drag: positive stroke\n"+
			"Right drag or shift: negative stroke\n"+
			"Alt drag: erase\n"+
			"Right / Left: grow / shrink\n"+
			"Enter / Backspace: commit positive / negative\n"+
			"1-9: brush size, - / =: scale brush\n"+
			"[ / ]: score power\n"+
			"L: lock labels, P: probability map, N: fill NO_DATA\n"+
			"Escape: clear, Ctrl+Z: undo, Ctrl+S: save",
		mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About mlpaint",
		"mlpaint "+version.String()+"\n\n"+
			"Interactive raster labeling with a stroke-trained classifier.",
		mw.Window)
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) showError(err error) {
	mw.log.Errorf("%v", err)
	dialog.ShowError(err, mw.Window)
}

// lastDir returns the directory stored under key as a ListableURI, or nil.
func (mw *MainWindow) lastDir(key string) fyne.ListableURI {
	path := mw.prefs.String(key)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}
