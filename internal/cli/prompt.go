package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

// ErrPromptCancelled is returned when the operator interrupts a prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

// Prompter asks the operator for one line of input.
type Prompter interface {
	Prompt(label string) (string, error)
}

type readlinePrompter struct {
	in  io.ReadCloser
	out io.Writer
}

func newReadlinePrompter() *readlinePrompter {
	return &readlinePrompter{in: os.Stdin, out: os.Stderr}
}

func (p *readlinePrompter) Prompt(label string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          label,
		Stdin:           p.in,
		Stdout:          p.out,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return "", fmt.Errorf("open prompt: %w", err)
	}
	defer func() { _ = rl.Close() }()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", ErrPromptCancelled
	}
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	return strings.TrimSpace(line), nil
}
