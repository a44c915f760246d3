// Package clipboard provides clipboard operations via platform-specific commands.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fwojciec/autoeval"
)

// Ensure Command implements the Clipboard interface.
var _ autoeval.Clipboard = (*Command)(nil)

// ErrUnavailable is returned when no clipboard command is installed.
var ErrUnavailable = errors.New("clipboard: no clipboard command found")

// candidates lists supported clipboard commands in order of preference.
var candidates = [][]string{
	{"pbcopy"},
	{"wl-copy"},
	{"xclip", "-selection", "clipboard"},
	{"xsel", "--clipboard", "--input"},
}

// Command implements Clipboard by piping content into an external command.
type Command struct {
	name string
	args []string
}

// NewCommand returns a clipboard that runs name with args.
func NewCommand(name string, args ...string) *Command {
	return &Command{name: name, args: args}
}

// NewPBCopy returns a clipboard backed by the macOS pbcopy command.
func NewPBCopy() *Command {
	return NewCommand("pbcopy")
}

// System returns the first clipboard command available on PATH.
func System() (*Command, error) {
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			return NewCommand(c[0], c[1:]...), nil
		}
	}
	return nil, ErrUnavailable
}

// Name returns the command the clipboard runs.
func (c *Command) Name() string {
	return c.name
}

// Copy writes content to the system clipboard.
func (c *Command) Copy(content string) error {
	cmd := exec.Command(c.name, c.args...)
	cmd.Stdin = strings.NewReader(content)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("clipboard: %s: %w: %s", c.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
