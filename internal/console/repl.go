package console

import (
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
)

// PromptSource supplies the prompt before each line.
type PromptSource func() string

// Run reads commands until quit, EOF or an interrupt on an empty line.
func Run(rl *readline.Instance, reg *Registry, prompt PromptSource, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for {
		if prompt != nil {
			rl.SetPrompt(prompt())
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if strings.TrimSpace(line) == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		logger.Debug("console_command", zap.String("line", line))
		if err := reg.Execute(line); errors.Is(err, ErrQuit) {
			return nil
		}
	}
}

// Completer offers the registry's command names.
func Completer(reg *Registry) readline.AutoCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(reg.Names()))
	for _, name := range reg.Names() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}
