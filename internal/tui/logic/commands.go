package logic

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/hy4ri/slack-tui/internal/tui/state"
)

// CommandDef defines a command.
type CommandDef struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
}

// Candidate returns the suggestion shown for the command.
func (d CommandDef) Candidate() state.Command {
	return state.Command{Name: d.Name, Aliases: d.Aliases, Description: d.Description}
}

// Commands is an ordered command registry. Suggestions come back in
// registration order.
type Commands struct {
	defs  []CommandDef
	index map[string]int
}

// NewCommands builds a registry. Later definitions do not override earlier
// names or aliases.
func NewCommands(defs ...CommandDef) *Commands {
	c := &Commands{index: make(map[string]int)}
	for _, d := range defs {
		c.defs = append(c.defs, d)
		i := len(c.defs) - 1
		for _, name := range append([]string{d.Name}, d.Aliases...) {
			key := strings.ToLower(name)
			if _, taken := c.index[key]; !taken {
				c.index[key] = i
			}
		}
	}
	return c
}

// All returns the definitions in registration order.
func (c *Commands) All() []CommandDef {
	return c.defs
}

// Lookup resolves a name or alias, ignoring case.
func (c *Commands) Lookup(name string) (CommandDef, bool) {
	i, ok := c.index[strings.ToLower(name)]
	if !ok {
		return CommandDef{}, false
	}
	return c.defs[i], true
}

// Match returns every command whose name or alias contains query, ignoring
// case. An empty query matches everything.
func (c *Commands) Match(query string) []state.Candidate {
	fold := cases.Fold()
	q := fold.String(query)

	var out []state.Candidate
	for _, d := range c.defs {
		if matches(fold, d, q) {
			out = append(out, d.Candidate())
		}
	}
	return out
}

func matches(fold cases.Caser, d CommandDef, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(fold.String(d.Name), q) {
		return true
	}
	for _, a := range d.Aliases {
		if strings.Contains(fold.String(a), q) {
			return true
		}
	}
	return false
}

// ParseCommand splits "/name arg..." into its parts. ok is false when input
// is not a command.
func ParseCommand(input string) (name string, args []string, ok bool) {
	if !strings.HasPrefix(input, "/") {
		return "", nil, false
	}
	parts := strings.Fields(input[1:])
	if len(parts) == 0 {
		return "", nil, false
	}
	return strings.ToLower(parts[0]), parts[1:], true
}
