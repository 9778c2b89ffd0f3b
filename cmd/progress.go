package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
)

type progressPrinter struct {
	out      io.Writer
	name     string
	mu       sync.Mutex
	total    int
	done     int
	negative int
	last     string
	started  time.Time
	updates  chan struct{}
	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func newProgressPrinter(out io.Writer, name string) *progressPrinter {
	return &progressPrinter{
		out:     out,
		name:    name,
		total:   1,
		updates: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (p *progressPrinter) SetTotal(total int) {
	if total <= 0 {
		total = 1
	}
	p.mu.Lock()
	p.total = total
	p.mu.Unlock()
}

func (p *progressPrinter) Start() {
	p.mu.Lock()
	p.started = time.Now()
	p.mu.Unlock()
	go p.loop()
}

// Observe records one probe outcome; it is safe to call from any goroutine.
func (p *progressPrinter) Observe(out evaluation.Outcome) {
	p.mu.Lock()
	p.done++
	p.last = out.Probe
	for _, f := range out.Findings {
		if !f.IsPositive() {
			p.negative++
		}
	}
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

// Stop waits for the printing loop and leaves the final line in place.
func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
		p.mu.Lock()
		running := !p.started.IsZero()
		p.mu.Unlock()
		if running {
			<-p.stopped
		}
		fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", 80))
		p.print()
		fmt.Fprintln(p.out)
	})
}

func (p *progressPrinter) loop() {
	defer close(p.stopped)
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.stop:
			return
		}
	}
}

func (p *progressPrinter) print() {
	fmt.Fprint(p.out, p.line())
}

func (p *progressPrinter) line() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.total
	if p.done > total {
		total = p.done
	}
	percent := float64(p.done) / float64(total) * 100
	elapsed := 0.0
	if !p.started.IsZero() {
		elapsed = time.Since(p.started).Seconds()
	}
	last := p.last
	if last == "" {
		last = "-"
	}

	return fmt.Sprintf("\r[%s] Probes: %d/%d (%.1f%%) Last:%s Negative:%d Elapsed:%.1fs",
		p.name, p.done, total, percent, last, p.negative, elapsed)
}
