package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"loopscroll/internal/scroll"
)

// Format selects how input lines become entries
type Format string

const (
	FormatLines Format = "lines" // every non-blank line is an entry
	FormatJSONL Format = "jsonl" // every line is a JSON object
)

// ParseFormat converts a string into a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatLines, FormatJSONL:
		return f, nil
	}
	return FormatLines, fmt.Errorf("unknown feed format %q", s)
}

// Entry is one record of the feed
type Entry struct {
	ID     string         `json:"id"`
	Line   int            `json:"line"` // 1-based line number in the input
	Text   string         `json:"text"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Options configures a FileSource
type Options struct {
	Format    Format
	KeyField  string // jsonl field used as Entry.ID
	TextField string // jsonl field used as Entry.Text
	Follow    bool   // keep reading a file after EOF
	Logger    zerolog.Logger

	// PollInterval is how often a followed file is checked when no change
	// notification arrives
	PollInterval time.Duration
}

const defaultPollInterval = time.Second

// FileSource reads entries from a file or stream in the background and
// serves them to the scroll engine in batches.
type FileSource struct {
	opts   Options
	logger zerolog.Logger

	mu       sync.Mutex
	entries  []Entry
	lines    int
	done     bool
	err      error
	reported bool
	changed  chan struct{}

	closer    io.Closer
	watcher   *fsnotify.Watcher
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open reads path, or stdin when path is "-" or empty
func Open(path string, opts Options) (*FileSource, error) {
	if path == "" || path == "-" {
		opts.Follow = false
		return NewReader(os.Stdin, opts), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed: %w", err)
	}

	var watcher *fsnotify.Watcher
	if opts.Follow {
		watcher, err = fsnotify.NewWatcher()
		if err == nil {
			err = watcher.Add(path)
		}
		if err != nil {
			opts.Logger.Warn().Err(err).Str("path", path).Msg("file notifications unavailable, polling")
			if watcher != nil {
				watcher.Close()
			}
			watcher = nil
		}
	}

	s := newSource(opts, f, watcher)
	s.start(f)
	return s, nil
}

// NewReader reads entries from r until EOF. Follow only applies to files.
func NewReader(r io.Reader, opts Options) *FileSource {
	opts.Follow = false
	s := newSource(opts, nil, nil)
	s.start(r)
	return s
}

func newSource(opts Options, closer io.Closer, watcher *fsnotify.Watcher) *FileSource {
	if opts.Format == "" {
		opts.Format = FormatLines
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	return &FileSource{
		opts:    opts,
		logger:  opts.Logger.With().Str("component", "feed").Logger(),
		changed: make(chan struct{}),
		closer:  closer,
		watcher: watcher,
		quit:    make(chan struct{}),
	}
}

func (s *FileSource) start(r io.Reader) {
	s.wg.Add(1)
	go s.read(r)
}

// Fetch returns up to limit entries starting at offset. It waits while the
// reader hasn't produced the entry at offset yet.
func (s *FileSource) Fetch(ctx context.Context, offset, limit int) (scroll.Batch[Entry], error) {
	for {
		s.mu.Lock()
		n := len(s.entries)
		if offset < n {
			end := min(offset+limit, n)
			batch := scroll.Batch[Entry]{
				Items: append([]Entry(nil), s.entries[offset:end]...),
				Done:  s.done && end == n,
			}
			s.mu.Unlock()
			return batch, nil
		}
		if s.done {
			err := s.err
			if err != nil && !s.reported {
				s.reported = true
				s.mu.Unlock()
				return scroll.Batch[Entry]{}, fmt.Errorf("failed to read feed: %w", err)
			}
			s.mu.Unlock()
			return scroll.Batch[Entry]{Done: true}, nil
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return scroll.Batch[Entry]{}, ctx.Err()
		case <-changed:
		}
	}
}

// Len returns how many entries have been read so far
func (s *FileSource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops reading. A reader blocked on a pipe is abandoned.
func (s *FileSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.quit)
		if s.watcher != nil {
			s.watcher.Close()
		}
		if s.closer != nil {
			err = s.closer.Close()
			s.wg.Wait()
		}
	})
	return err
}

func (s *FileSource) read(r io.Reader) {
	defer s.wg.Done()

	br := bufio.NewReader(r)
	var partial strings.Builder
	for {
		chunk, err := br.ReadString('\n')
		partial.WriteString(chunk)
		if err == nil {
			s.add(partial.String())
			partial.Reset()
			continue
		}
		if errors.Is(err, io.EOF) && s.opts.Follow {
			if s.waitForGrowth() {
				continue
			}
			err = io.EOF
		}
		if partial.Len() > 0 {
			s.add(partial.String())
		}
		s.finish(err)
		return
	}
}

// waitForGrowth blocks until the followed file may have grown. It reports
// false once the source is closed.
func (s *FileSource) waitForGrowth() bool {
	var events <-chan fsnotify.Event
	var errs <-chan error
	if s.watcher != nil {
		events, errs = s.watcher.Events, s.watcher.Errors
	}

	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()

	select {
	case <-s.quit:
		return false
	case ev, ok := <-events:
		if !ok {
			return false
		}
		if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			s.logger.Info().Str("file", ev.Name).Msg("followed file went away")
			return false
		}
		return true
	case err, ok := <-errs:
		if ok {
			s.logger.Warn().Err(err).Msg("file watch error")
		}
		return true
	case <-timer.C:
		return true
	}
}

func (s *FileSource) add(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines++
	line := strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}

	entry := s.parse(line, s.lines)
	s.entries = append(s.entries, entry)
	s.broadcastLocked()
}

func (s *FileSource) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
		err = nil
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("feed read failed")
	}
	s.done = true
	s.err = err
	s.logger.Debug().Int("entries", len(s.entries)).Msg("feed finished")
	s.broadcastLocked()
}

func (s *FileSource) broadcastLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *FileSource) parse(line string, n int) Entry {
	entry := Entry{ID: "line-" + strconv.Itoa(n), Line: n, Text: line}
	if s.opts.Format != FormatJSONL {
		return entry
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		s.logger.Debug().Err(err).Int("line", n).Msg("not a JSON object, showing raw line")
		return entry
	}
	entry.Fields = fields
	if v, ok := fields[s.opts.KeyField]; ok && v != nil {
		if id, err := cast.ToStringE(v); err == nil && id != "" {
			entry.ID = id
		}
	}
	if v, ok := fields[s.opts.TextField]; ok && v != nil {
		if text, err := cast.ToStringE(v); err == nil {
			entry.Text = text
		}
	}
	return entry
}
