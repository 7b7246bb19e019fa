package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Spinner shows an indeterminate wait on a terminal line.
type Spinner struct {
	mu         sync.Mutex
	writer     io.Writer
	frames     []string
	frameIndex int
	message    string
	running    bool
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

// NewSpinner creates a spinner that draws to stderr, leaving stdout for
// command output.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		writer:  os.Stderr,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message: message,
	}
}

func (s *Spinner) SetWriter(w io.Writer) {
	s.writer = w
}

func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.animate()
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	fmt.Fprint(s.writer, "\r\033[K")
}

func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *Spinner) animate() {
	defer s.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			frame := s.frames[s.frameIndex%len(s.frames)]
			message := s.message
			s.frameIndex++
			s.mu.Unlock()

			fmt.Fprintf(s.writer, "\r%s %s", frame, message)
		}
	}
}

// Bar tracks a paste of a known number of items. It draws nothing unless
// its writer is a terminal.
type Bar struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	label   string
	total   int
	current int
	done    bool
}

// NewBar creates a bar on stderr.
func NewBar(total int, label string) *Bar {
	return newBar(os.Stderr, total, label, term.IsTerminal(int(os.Stderr.Fd())))
}

func newBar(w io.Writer, total int, label string, visible bool) *Bar {
	b := &Bar{label: label, total: total}
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
	return b
}

// Report moves the bar to done of total items, the last being name. It has
// the shape of an orchestrator progress callback.
func (b *Bar) Report(done, total int, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	if total != b.total {
		b.total = total
		b.bar.ChangeMax(total)
	}
	b.current = done
	b.bar.Describe(fmt.Sprintf("%s %s", b.label, filepath.Base(name)))
	_ = b.bar.Set(done)
	if total > 0 && done >= total {
		b.done = true
	}
}

// Finish leaves the bar where it is, as happens when a paste is canceled.
// It does nothing once the bar has completed.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.done = true
	_ = b.bar.Exit()
}

// Done reports how many items the bar has seen.
func (b *Bar) Done() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// SimpleSpinner runs fn while a spinner shows message. Without a terminal
// on stderr it just runs fn.
func SimpleSpinner(message string, fn func() error) error {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return fn()
	}
	spinner := NewSpinner(message)
	spinner.Start()
	err := fn()
	spinner.Stop()
	return err
}
