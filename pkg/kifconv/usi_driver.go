package kifconv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Engine manages a USI engine process.
type Engine struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// Start launches an external USI engine process in the engine's directory, so
// relative evaluation paths resolve against it.
func Start(ctx context.Context, path string, args ...string) (*Engine, error) {
	if path == "" {
		return nil, errors.New("engine path is required")
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = filepath.Dir(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &Engine{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}, nil
}

// Stderr returns the stderr stream for the engine process.
func (e *Engine) Stderr() io.Reader {
	return e.stderr
}

func (e *Engine) wait(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = e.cmd.Process.Kill()
		return errors.New("engine did not exit in time")
	}
}

// Reader reads and parses USI protocol lines.
type Reader struct {
	scanner *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// ParseLine converts a raw line into a protocol event.
func ParseLine(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, errors.New("empty line")
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "id":
		if len(fields) < 3 {
			return Event{}, fmt.Errorf("invalid id: %q", line)
		}
		return Event{Type: EventID, Key: fields[1], Value: strings.Join(fields[2:], " ")}, nil
	case "usiok":
		return Event{Type: EventUSIOK}, nil
	case "readyok":
		return Event{Type: EventReadyOK}, nil
	case "bestmove":
		if len(fields) < 2 {
			return Event{}, fmt.Errorf("invalid bestmove: %q", line)
		}
		e := Event{Type: EventBestMove, Move: fields[1], Raw: line}
		if len(fields) >= 4 && fields[2] == "ponder" {
			e.Ponder = fields[3]
		}
		return e, nil
	case "info":
		return Event{Type: EventInfo, Raw: line}, nil
	default:
		return Event{Type: EventUnknown, Raw: line}, nil
	}
}

// Next blocks until a non-empty line is available or EOF occurs.
func (r *Reader) Next() (Event, error) {
	for r.scanner.Scan() {
		if strings.TrimSpace(r.scanner.Text()) == "" {
			continue
		}
		return ParseLine(r.scanner.Text())
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// EventType represents a USI protocol event type.
type EventType int

const (
	EventUnknown EventType = iota
	EventID
	EventUSIOK
	EventReadyOK
	EventInfo
	EventBestMove
)

// Event is a parsed USI protocol line.
type Event struct {
	Type   EventType
	Key    string
	Value  string
	Move   string
	Ponder string
	Raw    string
}

// Score represents a USI evaluation score.
type Score struct {
	Kind  string
	Value int
}

// String returns a stable text representation for logging.
func (s Score) String() string {
	if s.Kind == "cp" {
		return fmt.Sprintf("cp %d", s.Value)
	}
	if s.Kind == "mate" {
		return fmt.Sprintf("mate %d", s.Value)
	}
	return "unknown"
}

// Option is a single "setoption" request.
type Option struct {
	Name  string
	Value string
}

func (o Option) command() string {
	return fmt.Sprintf("setoption name %s value %s", o.Name, o.Value)
}

// SearchResult is the engine's answer to one "go" request.
type SearchResult struct {
	BestMove string
	Ponder   string
	Score    Score
	HasScore bool
	Info     []string
}

// Found reports whether the engine returned a move rather than a
// resign/win/none answer.
func (r SearchResult) Found() bool {
	switch r.BestMove {
	case "", "resign", "win", "none":
		return false
	default:
		return true
	}
}

// Session drives the USI request/response exchange over a write stream and a
// read stream.
type Session struct {
	engine *Engine
	w      io.Writer
	events chan Event
	errCh  chan error

	mu     sync.Mutex
	closed bool
}

// NewSession starts reading events from r. Requests are written to w.
func NewSession(w io.Writer, r io.Reader) *Session {
	reader := NewReader(r)
	events := make(chan Event, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(events)
		for {
			event, err := reader.Next()
			if err != nil {
				select {
				case errCh <- err:
				default:
				}
				return
			}
			events <- event
		}
	}()
	return &Session{w: w, events: events, errCh: errCh}
}

// StartSession launches a USI engine and attaches a session to it.
func StartSession(ctx context.Context, path string, args ...string) (*Session, error) {
	engine, err := Start(ctx, path, args...)
	if err != nil {
		return nil, err
	}
	s := NewSession(engine.stdin, engine.stdout)
	s.engine = engine
	return s, nil
}

// Stderr returns the engine's stderr reader for diagnostics.
func (s *Session) Stderr() io.Reader {
	if s == nil || s.engine == nil {
		return nil
	}
	return s.engine.Stderr()
}

// Send writes a single command line and flushes it.
func (s *Session) Send(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("session is closed")
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := io.WriteString(s.w, line); err != nil {
		return err
	}
	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close sends "quit" and, for a spawned engine, waits for the process to exit.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	_ = s.Send("quit")
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	if s.engine == nil {
		return nil
	}
	return s.engine.wait(3 * time.Second)
}

// Handshake runs "usi", applies opts and waits until the engine is ready.
func (s *Session) Handshake(ctx context.Context, opts []Option) error {
	if err := s.Send("usi"); err != nil {
		return err
	}
	if _, err := s.waitForEvent(ctx, EventUSIOK); err != nil {
		return err
	}
	for _, opt := range opts {
		if err := s.Send(opt.command()); err != nil {
			return err
		}
	}
	if err := s.Send("isready"); err != nil {
		return err
	}
	_, err := s.waitForEvent(ctx, EventReadyOK)
	return err
}

// Search sends a position command and a go command, then reads until bestmove.
func (s *Session) Search(ctx context.Context, position, goCmd string) (SearchResult, error) {
	if err := s.Send(position); err != nil {
		return SearchResult{}, err
	}
	if goCmd == "" {
		goCmd = "go"
	}
	if err := s.Send(goCmd); err != nil {
		return SearchResult{}, err
	}
	var result SearchResult
	for {
		event, err := s.nextEvent(ctx)
		if err != nil {
			return result, err
		}
		switch event.Type {
		case EventInfo:
			result.Info = append(result.Info, event.Raw)
			if score, ok := parseInfoScore(event.Raw); ok {
				result.Score = score
				result.HasScore = true
			}
		case EventBestMove:
			result.BestMove = event.Move
			result.Ponder = event.Ponder
			return result, nil
		}
	}
}

// GoCommand builds the go request for a time budget; zero means plain "go".
func GoCommand(moveTimeMs int) string {
	if moveTimeMs <= 0 {
		return "go"
	}
	return fmt.Sprintf("go movetime %d", moveTimeMs)
}

func (s *Session) waitForEvent(ctx context.Context, want EventType) (Event, error) {
	for {
		event, err := s.nextEvent(ctx)
		if err != nil {
			return Event{}, err
		}
		if event.Type == want {
			return event, nil
		}
	}
}

func (s *Session) nextEvent(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case event, ok := <-s.events:
		if !ok {
			select {
			case err := <-s.errCh:
				if err != nil && !errors.Is(err, io.EOF) {
					return Event{}, err
				}
			default:
			}
			return Event{}, errors.New("engine stdout closed")
		}
		return event, nil
	}
}

func parseInfoScore(line string) (Score, bool) {
	fields := strings.Fields(line)
	for i := 0; i+2 < len(fields); i++ {
		if fields[i] != "score" {
			continue
		}
		kind := fields[i+1]
		value, err := strconv.Atoi(fields[i+2])
		if err != nil {
			return Score{}, false
		}
		if kind != "cp" && kind != "mate" {
			return Score{}, false
		}
		return Score{Kind: kind, Value: value}, true
	}
	return Score{}, false
}
