package shellcmd

import (
	"path/filepath"
	"strings"

	"github.com/TechnicallyShaun/camelot-sub000/internal/agent"
)

// PromptShape is how an agent CLI accepts its initial prompt.
// The set of variants is closed: Flagged, Positional and Generic.
type PromptShape interface {
	appendPrompt(args []string, quoted string) []string
}

// Flagged passes the prompt as the value of Flag, e.g. `copilot -i "..."`.
type Flagged struct {
	Flag string
}

// Positional passes the prompt as a trailing argument, e.g. `claude "..."`.
type Positional struct{}

// Generic is used for unrecognized executables and renders positionally.
type Generic struct{}

func (s Flagged) appendPrompt(args []string, quoted string) []string {
	return append(args, s.Flag, quoted)
}

func (Positional) appendPrompt(args []string, quoted string) []string {
	return append(args, quoted)
}

func (Generic) appendPrompt(args []string, quoted string) []string {
	return append(args, quoted)
}

// knownShapes is keyed by executable base name.
var knownShapes = map[string]PromptShape{
	"copilot": Flagged{Flag: "-i"},
	"claude":  Positional{},
	"codex":   Positional{},
	"gemini":  Positional{},
	"aider":   Positional{},
}

// ShapeFor resolves the prompt shape from the definition's executable.
func ShapeFor(def *agent.Definition) PromptShape {
	if shape, ok := knownShapes[executableName(def.Command)]; ok {
		return shape
	}
	return Generic{}
}

// executableName reduces "/usr/local/bin/Claude.exe" to "claude".
func executableName(command string) string {
	command = strings.ReplaceAll(command, `\`, "/")
	name := strings.ToLower(filepath.Base(command))
	for _, ext := range []string{".exe", ".cmd", ".bat", ".ps1"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
