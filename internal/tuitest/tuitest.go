// Package tuitest drives a compiled TUI binary inside a pseudo terminal and
// captures what it draws. Tests script keystrokes, then assert against the
// plain-text frames.
package tuitest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

const (
	defaultWidth   = 120
	defaultHeight  = 32
	defaultTimeout = 10 * time.Second
)

// Keystroke is one scripted input. Delay is the pause before writing it.
type Keystroke struct {
	Delay time.Duration
	Input []byte
}

var (
	KeyEnter = []byte{'\r'}
	KeyCtrlC = []byte{3}
	KeyTab   = []byte{'\t'}
)

// Script configures one PTY session.
type Script struct {
	Command []string
	Dir     string
	Env     []string
	Width   int
	Height  int
	Keys    []Keystroke
	Timeout time.Duration

	// QuitByInterrupt accepts a SIGINT exit, for programs quit via ctrl+c.
	QuitByInterrupt bool
}

// Recording is the captured terminal stream plus the parsed frames.
type Recording struct {
	Raw    []byte
	Frames []string
}

// Final returns the last non-empty frame, or "" when nothing was drawn.
func (r *Recording) Final() string {
	if r == nil || len(r.Frames) == 0 {
		return ""
	}
	return r.Frames[len(r.Frames)-1]
}

// Contains reports whether any captured frame contains the substring.
func (r *Recording) Contains(sub string) bool {
	for _, frame := range r.Frames {
		if strings.Contains(frame, sub) {
			return true
		}
	}
	return false
}

// Run spawns the command in a PTY, replays the keystrokes, and waits for
// exit. A non-zero exit is an error unless QuitByInterrupt matches.
func Run(ctx context.Context, script Script) (*Recording, error) {
	if len(script.Command) == 0 {
		return nil, errors.New("tuitest: command is required")
	}
	width, height := script.Width, script.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	timeout := script.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, script.Command[0], script.Command[1:]...)
	cmd.Dir = script.Dir
	cmd.Env = sessionEnv(script.Env)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})
	if err != nil {
		return nil, fmt.Errorf("tuitest: start program: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	var output bytes.Buffer
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		answerTerminalQueries(ptmx, &output)
	}()

	for _, stroke := range script.Keys {
		if stroke.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("tuitest: script interrupted: %w", ctx.Err())
			case <-time.After(stroke.Delay):
			}
		}
		if len(stroke.Input) > 0 {
			if _, err := ptmx.Write(stroke.Input); err != nil {
				return nil, fmt.Errorf("tuitest: write input: %w", err)
			}
		}
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		if err != nil && !(script.QuitByInterrupt && strings.Contains(err.Error(), "signal: interrupt")) {
			return nil, fmt.Errorf("tuitest: program exited with error: %w", err)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("tuitest: timeout waiting for program exit: %w", ctx.Err())
	}

	_ = ptmx.Close()
	<-drained

	raw := output.Bytes()
	return &Recording{Raw: raw, Frames: parseFrames(raw)}, nil
}

// answerTerminalQueries copies PTY output into sink while replying to the
// cursor-position and color queries bubbletea sends on startup. Without the
// replies the program blocks waiting for a real terminal.
func answerTerminalQueries(ptmx *os.File, sink io.Writer) {
	queries := [][2][]byte{
		{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
		{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
		{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
		{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
		{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
	}

	var tail []byte
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			_, _ = sink.Write(chunk)

			tail = append(tail, chunk...)
			for _, q := range queries {
				for {
					idx := bytes.Index(tail, q[0])
					if idx < 0 {
						break
					}
					tail = tail[idx+len(q[0]):]
					_, _ = ptmx.Write(q[1])
				}
			}
			// Keep a short tail so queries split across reads still match.
			if len(tail) > 256 {
				tail = tail[len(tail)-64:]
			}
		}
		if err != nil {
			return
		}
	}
}

func sessionEnv(extra []string) []string {
	env := append(os.Environ(), extra...)
	for _, entry := range env {
		if strings.HasPrefix(entry, "TERM=") {
			return env
		}
	}
	return append(env, "TERM=xterm-256color")
}
