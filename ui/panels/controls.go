// Package panels provides the side panel next to the canvas.
package panels

import (
	"fmt"

	"mlpaint/internal/label"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Actions are the operations the panel triggers. Nil actions are skipped.
type Actions struct {
	Grow            func()
	Shrink          func()
	Commit          func(code label.Code)
	Undo            func()
	Clear           func()
	FillNoData      func()
	SetLock         func(on bool)
	AdjustPower     func(delta float64)
	SetBrushDigit   func(d int)
	SetProbMap      func(on bool)
	SetLabelOpacity func(opacity float64)
}

// Status is what the panel displays about the session.
type Status struct {
	Trained   bool
	Ring      int
	Rings     int
	Threshold float32
	Enclosed  int
	Power     float64
	Lock      bool
	UndoLen   int
}

// String renders the status as one line, as used by the canvas corner.
func (s Status) String() string {
	lock := ""
	if s.Lock {
		lock = " lock"
	}
	if !s.Trained {
		return fmt.Sprintf("untrained p %.2f%s", s.Power, lock)
	}
	return fmt.Sprintf("ring %d/%d p %.2f%s", s.Ring, s.Rings, s.Power, lock)
}

// ControlPanel holds the brush, suggestion, label and display controls.
type ControlPanel struct {
	actions   Actions
	container fyne.CanvasObject

	ringLabel    *widget.Label
	pixelLabel   *widget.Label
	powerLabel   *widget.Label
	undoButton   *widget.Button
	lockCheck    *widget.Check
	brushSlider  *widget.Slider
	probCheck    *widget.Check
	classSelect  *widget.Select
	updatingLock bool
}

// commitClasses are the codes offered for "Commit as", beyond the Enter/Backspace shortcuts.
func commitClasses() []label.Code {
	codes := []label.Code{label.Positive, label.Negative}
	for c := label.Class3; c <= label.Class14; c++ {
		codes = append(codes, c)
	}
	return codes
}

// NewControlPanel creates the panel.
func NewControlPanel(actions Actions) *ControlPanel {
	cp := &ControlPanel{actions: actions}

	cp.ringLabel = widget.NewLabel("Paint to start")
	cp.pixelLabel = widget.NewLabel("")
	cp.powerLabel = widget.NewLabel("")

	cp.brushSlider = widget.NewSlider(1, 9)
	cp.brushSlider.Step = 1
	cp.brushSlider.OnChanged = func(v float64) {
		if cp.actions.SetBrushDigit != nil {
			cp.actions.SetBrushDigit(int(v))
		}
	}

	growBtn := widget.NewButton("Grow", func() { call(cp.actions.Grow) })
	shrinkBtn := widget.NewButton("Shrink", func() { call(cp.actions.Shrink) })
	clearBtn := widget.NewButton("Clear", func() { call(cp.actions.Clear) })
	powerDown := widget.NewButton("-", func() { cp.adjustPower(-1) })
	powerUp := widget.NewButton("+", func() { cp.adjustPower(1) })

	codes := commitClasses()
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = c.String()
	}
	cp.classSelect = widget.NewSelect(names, nil)
	cp.classSelect.SetSelectedIndex(0)
	commitBtn := widget.NewButton("Commit", func() {
		if i := cp.classSelect.SelectedIndex(); i >= 0 && cp.actions.Commit != nil {
			cp.actions.Commit(codes[i])
		}
	})

	cp.undoButton = widget.NewButton("Undo", func() { call(cp.actions.Undo) })
	noDataBtn := widget.NewButton("Fill NO_DATA", func() { call(cp.actions.FillNoData) })
	cp.lockCheck = widget.NewCheck("Lock existing labels", func(on bool) {
		if !cp.updatingLock && cp.actions.SetLock != nil {
			cp.actions.SetLock(on)
		}
	})

	cp.probCheck = widget.NewCheck("Probability map", func(on bool) {
		if cp.actions.SetProbMap != nil {
			cp.actions.SetProbMap(on)
		}
	})
	opacity := widget.NewSlider(0, 1)
	opacity.Step = 0.05
	opacity.Value = 1
	opacity.OnChanged = func(v float64) {
		if cp.actions.SetLabelOpacity != nil {
			cp.actions.SetLabelOpacity(v)
		}
	}

	cp.container = container.NewVScroll(container.NewVBox(
		widget.NewCard("Brush", "", container.NewVBox(
			widget.NewLabel("Size (1-9):"),
			cp.brushSlider,
			widget.NewLabel("Left: positive, right: negative, alt: erase"),
		)),
		widget.NewCard("Suggestion", "", container.NewVBox(
			cp.ringLabel,
			cp.pixelLabel,
			container.NewHBox(shrinkBtn, growBtn, clearBtn),
			container.NewHBox(widget.NewLabel("Score power:"), powerDown, cp.powerLabel, powerUp),
		)),
		widget.NewCard("Labels", "", container.NewVBox(
			container.NewBorder(nil, nil, nil, commitBtn, cp.classSelect),
			cp.lockCheck,
			container.NewHBox(cp.undoButton, noDataBtn),
		)),
		widget.NewCard("Display", "", container.NewVBox(
			cp.probCheck,
			widget.NewLabel("Label opacity:"),
			opacity,
		)),
	))
	return cp
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func (cp *ControlPanel) adjustPower(sign float64) {
	if cp.actions.AdjustPower != nil {
		cp.actions.AdjustPower(sign)
	}
}

// Container returns the panel container.
func (cp *ControlPanel) Container() fyne.CanvasObject {
	return cp.container
}

// SetBrushDigit moves the brush slider without triggering its action.
func (cp *ControlPanel) SetBrushDigit(d int) {
	fn := cp.brushSlider.OnChanged
	cp.brushSlider.OnChanged = nil
	cp.brushSlider.SetValue(float64(d))
	cp.brushSlider.OnChanged = fn
}

// SetProbMap updates the probability map check box without triggering its action.
func (cp *ControlPanel) SetProbMap(on bool) {
	fn := cp.probCheck.OnChanged
	cp.probCheck.OnChanged = nil
	cp.probCheck.SetChecked(on)
	cp.probCheck.OnChanged = fn
}

// Update shows the session status.
func (cp *ControlPanel) Update(s Status) {
	switch {
	case !s.Trained:
		cp.ringLabel.SetText("Paint to start")
		cp.pixelLabel.SetText("")
	case s.Rings == 0:
		cp.ringLabel.SetText("No suggestion")
		cp.pixelLabel.SetText("")
	default:
		cp.ringLabel.SetText(fmt.Sprintf("Ring %d of %d (cost < %.3g)", s.Ring, s.Rings, s.Threshold))
		cp.pixelLabel.SetText(fmt.Sprintf("%d pixels enclosed", s.Enclosed))
	}
	cp.powerLabel.SetText(fmt.Sprintf("%.2f", s.Power))
	if s.UndoLen > 0 {
		cp.undoButton.Enable()
	} else {
		cp.undoButton.Disable()
	}
	cp.updatingLock = true
	cp.lockCheck.SetChecked(s.Lock)
	cp.updatingLock = false
}
