// Package console is the line-mode client: a readline REPL whose commands
// map onto the same intents the terminal UI raises.
package console

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/park285/lanchess/internal/msgcat"
)

// ErrQuit is returned by Execute when the user asked to exit.
var ErrQuit = errors.New("quit")

type Command struct {
	Name      string
	ShortName string
	Usage     string
	Handler   func(args []string) error
}

type Registry struct {
	backend  Backend
	out      io.Writer
	cat      *msgcat.Catalog
	color    bool
	commands map[string]*Command
	names    []string
}

func NewRegistry(backend Backend, out io.Writer, cat *msgcat.Catalog, color bool) *Registry {
	r := &Registry{backend: backend, out: out, cat: cat, color: color, commands: map[string]*Command{}}
	r.registerGameCommands()
	r.Register(&Command{Name: "help", ShortName: "?", Usage: "help", Handler: r.help})
	r.Register(&Command{Name: "quit", ShortName: "x", Usage: "quit", Handler: func([]string) error { return ErrQuit }})
	return r
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	r.names = append(r.names, cmd.Name)
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
}

// Names lists the long command names, for completion.
func (r *Registry) Names() []string {
	out := append([]string(nil), r.names...)
	sort.Strings(out)
	return out
}

// Execute runs one input line. Command errors are printed; only ErrQuit
// is returned.
func (r *Registry) Execute(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	name := strings.ToLower(parts[0])
	cmd, ok := r.commands[name]
	if !ok {
		r.printf("%s\n", r.cat.Text("console.unknown", map[string]any{"Cmd": name}))
		return nil
	}
	err := cmd.Handler(parts[1:])
	if errors.Is(err, ErrQuit) {
		return ErrQuit
	}
	if err != nil {
		r.printf("%s\n", paint(r.color, red, "error: "+err.Error()))
	}
	return nil
}

func (r *Registry) help([]string) error {
	r.printf("%s", r.cat.Text("console.help", nil))
	return nil
}

func (r *Registry) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}
