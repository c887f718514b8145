package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// readPassword is swapped out in tests so nothing touches the terminal
var readPassword = term.ReadPassword

// isTerminal reports whether stdin is interactive
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// prompter reads answers from the user. Passwords are read without echo
// when stdin is a terminal and as plain lines otherwise (pipes, tests).
type prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{reader: bufio.NewReader(in), out: out}
}

// Line prints prompt and reads one trimmed line. A final line without a
// newline is still returned.
func (p *prompter) Line(prompt string) (string, error) {
	return p.LineContext(context.Background(), prompt)
}

// LineContext is Line that gives up when ctx is cancelled. The pending read
// is abandoned, so only use it when the prompter is not read again after
// cancellation.
func (p *prompter) LineContext(ctx context.Context, prompt string) (string, error) {
	if prompt != "" {
		if _, err := fmt.Fprint(p.out, labelStyle.Render(prompt)+" "); err != nil {
			return "", err
		}
	}

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := p.readLine()
		ch <- result{strings.TrimSpace(line), err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

func (p *prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return line, nil
		}
		return "", err
	}
	return line, nil
}

// Password reads a secret without trimming inner spaces
func (p *prompter) Password(prompt string) (string, error) {
	if !isTerminal() {
		if _, err := fmt.Fprint(p.out, labelStyle.Render(prompt)+" "); err != nil {
			return "", err
		}
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	if _, err := fmt.Fprint(p.out, labelStyle.Render(prompt)+" "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Acknowledge shows message and waits for Enter
func (p *prompter) Acknowledge(ctx context.Context, message string) {
	fmt.Fprintln(p.out, successStyle.Render(message))
	_, _ = p.LineContext(ctx, "Press Enter to continue")
}

// expandPath resolves a leading ~ to the home directory
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
