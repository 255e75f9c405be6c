// Package progress renders CommandFacade's async upload/download/indexing
// events to the terminal: a byte-progress bar for transfers, plain status
// lines for indexing. s3xctl commands block on its Wait* channels until the
// matching terminal event arrives, since the facade itself returns as soon
// as the task is launched.
package progress

import (
	"fmt"
	"os"
	"sync"

	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"

	"github.com/AccessDevops/S3Explorer/pkg/events"
)

const barWidth = 40

// ConsoleEmitter implements events.Emitter for terminal commands: it drives
// one mpb progress bar per in-flight transfer and prints a status line per
// indexing event, then fans the terminal state of each task out to whoever
// is waiting on it via Wait*.
type ConsoleEmitter struct {
	progress *mpb.Progress

	mu        sync.Mutex
	bars      map[string]*transferBar
	uploadWaiters   map[string]chan events.UploadProgress
	downloadWaiters map[string]chan events.DownloadProgress
	indexWaiters    map[string]chan events.IndexProgress

	// Terminal events that arrived before anyone registered a waiter: a
	// tiny transfer can complete between Start* returning and the command
	// calling WaitFor*.
	uploadDone   map[string]events.UploadProgress
	downloadDone map[string]events.DownloadProgress
	indexDone    map[string]events.IndexProgress
}

type transferBar struct {
	bar  *mpb.Bar
	last int64
}

// NewConsoleEmitter constructs an emitter rendering to stderr via an mpb
// container (so stdout stays clean for table/JSON output).
func NewConsoleEmitter() *ConsoleEmitter {
	return &ConsoleEmitter{
		progress:        mpb.New(mpb.WithWidth(barWidth), mpb.WithOutput(os.Stderr)),
		bars:            make(map[string]*transferBar),
		uploadWaiters:   make(map[string]chan events.UploadProgress),
		downloadWaiters: make(map[string]chan events.DownloadProgress),
		indexWaiters:    make(map[string]chan events.IndexProgress),
		uploadDone:      make(map[string]events.UploadProgress),
		downloadDone:    make(map[string]events.DownloadProgress),
		indexDone:       make(map[string]events.IndexProgress),
	}
}

// WaitForUpload returns a channel delivering transferID's terminal event.
// If the transfer already finished, the buffered terminal event is
// delivered immediately.
func (e *ConsoleEmitter) WaitForUpload(transferID string) <-chan events.UploadProgress {
	ch := make(chan events.UploadProgress, 1)
	e.mu.Lock()
	if done, ok := e.uploadDone[transferID]; ok {
		delete(e.uploadDone, transferID)
		ch <- done
	} else {
		e.uploadWaiters[transferID] = ch
	}
	e.mu.Unlock()
	return ch
}

func (e *ConsoleEmitter) WaitForDownload(transferID string) <-chan events.DownloadProgress {
	ch := make(chan events.DownloadProgress, 1)
	e.mu.Lock()
	if done, ok := e.downloadDone[transferID]; ok {
		delete(e.downloadDone, transferID)
		ch <- done
	} else {
		e.downloadWaiters[transferID] = ch
	}
	e.mu.Unlock()
	return ch
}

func (e *ConsoleEmitter) WaitForIndex(profileID, bucket string) <-chan events.IndexProgress {
	key := profileID + "-" + bucket
	ch := make(chan events.IndexProgress, 1)
	e.mu.Lock()
	if done, ok := e.indexDone[key]; ok {
		delete(e.indexDone, key)
		ch <- done
	} else {
		e.indexWaiters[key] = ch
	}
	e.mu.Unlock()
	return ch
}

func isTerminalTransfer(s events.TransferStatus) bool {
	switch s {
	case events.StatusCompleted, events.StatusFailed, events.StatusCancelled:
		return true
	default:
		return false
	}
}

func isTerminalIndex(s events.IndexStatus) bool {
	switch s {
	case events.IndexCompleted, events.IndexPartial, events.IndexCancelled, events.IndexFailed:
		return true
	default:
		return false
	}
}

func (e *ConsoleEmitter) barFor(transferID, name string, total int64) *transferBar {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tb, ok := e.bars[transferID]; ok {
		return tb
	}
	bar := e.progress.AddBar(total,
		mpb.PrependDecorators(decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DSyncWidthR})),
		mpb.AppendDecorators(decor.Percentage(decor.WCSyncWidth)),
	)
	tb := &transferBar{bar: bar}
	e.bars[transferID] = tb
	return tb
}

func (e *ConsoleEmitter) EmitUploadProgress(p events.UploadProgress) {
	tb := e.barFor(p.TransferID, p.Key, p.TotalBytes)
	if delta := p.UploadedBytes - tb.last; delta > 0 {
		tb.bar.IncrBy(int(delta))
		tb.last = p.UploadedBytes
	}
	if isTerminalTransfer(p.Status) {
		if p.Status != events.StatusCompleted {
			tb.bar.Abort(false)
		}
		e.mu.Lock()
		if ch, ok := e.uploadWaiters[p.TransferID]; ok {
			ch <- p
			delete(e.uploadWaiters, p.TransferID)
		} else {
			e.uploadDone[p.TransferID] = p
		}
		e.mu.Unlock()
	}
}

func (e *ConsoleEmitter) EmitDownloadProgress(p events.DownloadProgress) {
	tb := e.barFor(p.TransferID, p.Key, p.TotalBytes)
	if delta := p.DownloadedBytes - tb.last; delta > 0 {
		tb.bar.IncrBy(int(delta))
		tb.last = p.DownloadedBytes
	}
	if isTerminalTransfer(p.Status) {
		if p.Status != events.StatusCompleted {
			tb.bar.Abort(false)
		}
		e.mu.Lock()
		if ch, ok := e.downloadWaiters[p.TransferID]; ok {
			ch <- p
			delete(e.downloadWaiters, p.TransferID)
		} else {
			e.downloadDone[p.TransferID] = p
		}
		e.mu.Unlock()
	}
}

func (e *ConsoleEmitter) EmitIndexProgress(p events.IndexProgress) {
	fmt.Printf("[%s] %s: %d objects indexed (%d requests)\n", p.Bucket, p.Status, p.ObjectsIndexed, p.RequestsMade)
	if isTerminalIndex(p.Status) {
		key := p.ProfileID + "-" + p.Bucket
		e.mu.Lock()
		if ch, ok := e.indexWaiters[key]; ok {
			ch <- p
			delete(e.indexWaiters, key)
		} else {
			e.indexDone[key] = p
		}
		e.mu.Unlock()
	}
}

// EmitMetric is a no-op: metrics go to the sqlite MetricsSink, not the
// terminal.
func (e *ConsoleEmitter) EmitMetric(events.S3RequestMetric) {}

// Wait blocks until every bar this emitter created has finished rendering.
func (e *ConsoleEmitter) Wait() { e.progress.Wait() }
