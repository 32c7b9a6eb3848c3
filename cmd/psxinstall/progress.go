package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"psxinstall/internal/session"
)

// progressScale maps session progress (0..1) onto bar steps.
const progressScale = 1000

// progressView renders session snapshots while a run is active.
type progressView interface {
	update(session.Snapshot)
	finish(session.Snapshot)
}

func newProgressView(w io.Writer) progressView {
	if isTerminal(w) {
		return newBarView(w)
	}
	return &lineView{out: w}
}

// followSession feeds updates into view until the channel closes.
func followSession(view progressView, updates <-chan session.Snapshot) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range updates {
			view.update(snap)
		}
	}()
	return done
}

type barView struct {
	out    io.Writer
	bar    *progressbar.ProgressBar
	status string
}

func newBarView(w io.Writer) *barView {
	bar := progressbar.NewOptions(progressScale,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
	return &barView{out: w, bar: bar}
}

func (v *barView) update(snap session.Snapshot) {
	if snap.Status != v.status {
		v.status = snap.Status
		v.bar.Describe(snap.Status)
	}
	_ = v.bar.Set(int(snap.Progress * progressScale))
}

func (v *barView) finish(snap session.Snapshot) {
	v.update(snap)
	if snap.Error == "" && !snap.Running {
		_ = v.bar.Finish()
		return
	}
	_ = v.bar.Exit()
	fmt.Fprintln(v.out)
}

// lineView prints one line per status change for pipes and log files.
type lineView struct {
	out    io.Writer
	status string
}

func (v *lineView) update(snap session.Snapshot) {
	if snap.Status == "" || snap.Status == v.status {
		return
	}
	v.status = snap.Status
	fmt.Fprintf(v.out, "[%3.0f%%] %s\n", snap.Progress*100, snap.Status)
}

func (v *lineView) finish(snap session.Snapshot) {
	v.update(snap)
}
