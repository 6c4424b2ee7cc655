package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/classforge/internal/transform"
	"git.home.luguber.info/inful/classforge/internal/transformers"
)

// ListCmd implements the 'list' command.
type ListCmd struct{}

// Run executes the list command.
func (cmd *ListCmd) Run(_ *Global, _ *CLI) error {
	reg, err := transformers.NewRegistry(nil)
	if err != nil {
		return err
	}
	return writeTransformerList(os.Stdout, reg)
}

func writeTransformerList(w io.Writer, reg *transform.Registry) error {
	for _, name := range reg.Names() {
		t, _ := reg.Get(name)
		line := name
		if deps := t.Dependencies(); len(deps) > 0 {
			line += " (after " + strings.Join(deps, ", ") + ")"
		}
		if transform.IsPrunable(t) {
			line += " [prunable]"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
