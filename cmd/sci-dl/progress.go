package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressBar shows one download on w. The underlying bar is created on
// the first update, once the response has announced its length; a total
// of -1 gives a spinner with the byte count and speed.
type progressBar struct {
	w    io.Writer
	name string
	bar  *progressbar.ProgressBar
}

func newProgressBar(w io.Writer, name string) *progressBar {
	return &progressBar{w: w, name: name}
}

// Update matches acquire.ProgressFunc. The bar ends its line when a
// known-length download completes.
func (p *progressBar) Update(transferred, total int64) {
	if p.bar == nil {
		p.bar = newBytesBar(p.w, p.name, total)
	}
	_ = p.bar.Set64(transferred)
}

// Finish ends the status line if one is open. Calling it again is a no-op.
func (p *progressBar) Finish() {
	if p.bar == nil || p.bar.IsFinished() {
		return
	}
	_ = p.bar.Finish()
}

// newBytesBar mirrors progressbar.DefaultBytes with the output sent to w.
func newBytesBar(w io.Writer, name string, total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowTotalBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
