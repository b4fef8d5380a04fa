// Package shellcmd builds the command line typed into a fresh agent shell.
package shellcmd

import (
	"strings"

	"github.com/TechnicallyShaun/camelot-sub000/internal/agent"
)

// Build renders def's command, default args and, when prompt is not blank,
// the prompt in the agent's shape. Only the prompt is quoted.
func Build(def *agent.Definition, prompt string, p Platform) string {
	return BuildWithShape(def, ShapeFor(def), prompt, p)
}

// BuildWithShape is Build with an already resolved shape.
func BuildWithShape(def *agent.Definition, shape PromptShape, prompt string, p Platform) string {
	args := make([]string, 0, len(def.DefaultArgs)+3)
	args = append(args, def.Command)
	args = append(args, def.DefaultArgs...)
	if strings.TrimSpace(prompt) != "" {
		args = shape.appendPrompt(args, p.Quote(prompt))
	}
	return strings.Join(args, " ")
}
