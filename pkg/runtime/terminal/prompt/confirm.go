package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

const DefaultToken = "YES"

// Confirmer asks the operator for permission to start mutating resources.
type Confirmer interface {
	// ConfirmProceed returns true only when the operator typed the exact token.
	ConfirmProceed(ctx context.Context) (bool, error)
}

// New picks the huh form when in is a terminal and a plain line reader otherwise.
func New(in *os.File, out io.Writer, token string) Confirmer {
	if in == nil {
		return NewLine(strings.NewReader(""), out, token)
	}
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		return NewInteractive(token)
	}
	return NewLine(in, out, token)
}

func question(token string) string {
	return fmt.Sprintf("Type %s to stop the listed resources", token)
}

// Line reads a single line from a reader.
type Line struct {
	in    *bufio.Reader
	out   io.Writer
	token string
}

func NewLine(in io.Reader, out io.Writer, token string) *Line {
	if token == "" {
		token = DefaultToken
	}
	if out == nil {
		out = io.Discard
	}
	return &Line{in: bufio.NewReader(in), out: out, token: token}
}

func (l *Line) ConfirmProceed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(l.out, "%s: ", question(l.token))

	answer, err := l.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return strings.TrimSpace(answer) == l.token, nil
}

// Interactive shows a huh input form.
type Interactive struct {
	token string
}

func NewInteractive(token string) *Interactive {
	if token == "" {
		token = DefaultToken
	}
	return &Interactive{token: token}
}

func (i *Interactive) ConfirmProceed(ctx context.Context) (bool, error) {
	var answer string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(question(i.token)).
			Description("Anything else aborts without touching any resource.").
			Value(&answer),
	)).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return strings.TrimSpace(answer) == i.token, nil
}
