package app

import (
	"time"

	"github.com/cyclopcam/logs"
)

// Autosaver periodically calls a save function from a background goroutine. The function
// must do its own synchronization with the UI.
type Autosaver struct {
	log      logs.Log
	interval time.Duration
	save     func() (bool, error)
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewAutosaver creates an autosaver. save reports whether it wrote anything. Returns nil if
// interval is not positive, which disables autosave.
func NewAutosaver(log logs.Log, interval time.Duration, save func() (bool, error)) *Autosaver {
	if interval <= 0 {
		return nil
	}
	return &Autosaver{
		log:      log,
		interval: interval,
		save:     save,
	}
}

// Start begins the save loop in a background goroutine.
func (a *Autosaver) Start() {
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.loop()
}

// Stop ends the loop and waits for an in-flight save to finish.
func (a *Autosaver) Stop() {
	close(a.stopCh)
	<-a.doneCh
}

func (a *Autosaver) loop() {
	defer close(a.doneCh)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			saved, err := a.save()
			if err != nil {
				a.log.Errorf("Autosave failed: %v", err)
			} else if saved {
				a.log.Debugf("Autosaved")
			}
		}
	}
}
