package terminal

import (
	"time"
	"unicode/utf8"

	"k8s.io/utils/clock"

	"github.com/TechnicallyShaun/camelot-sub000/internal/terminal/pty"
)

// session is one PTY-backed terminal. All fields are guarded by Registry.mu.
type session struct {
	id          string
	agentID     string
	agentName   string
	projectPath string

	process   pty.Process
	transport Transport

	created      time.Time
	lastActivity time.Time
	scrollback   *Scrollback

	exited   bool
	exitCode *int
	// registered is set once the session is in the registry map.
	registered bool
	// removed is set once the session leaves the registry map.
	removed bool

	startTimer clock.Timer
	// utf8Tail holds a partial rune split across output chunks.
	utf8Tail []byte
}

func (s *session) info() SessionInfo {
	return SessionInfo{
		ID:           s.id,
		AgentID:      s.agentID,
		AgentName:    s.agentName,
		ProjectPath:  s.projectPath,
		Created:      s.created,
		LastActivity: s.lastActivity,
		Exited:       s.exited,
		ExitCode:     copyInt(s.exitCode),
		Attached:     s.transport != nil && s.transport.IsOpen(),
		Pid:          s.process.Pid(),
	}
}

func (s *session) reconnectInfo() ReconnectInfo {
	return ReconnectInfo{
		ID:         s.id,
		AgentID:    s.agentID,
		Scrollback: string(s.scrollback.Snapshot()),
		Exited:     s.exited,
		ExitCode:   copyInt(s.exitCode),
	}
}

// decode converts an output chunk to text, carrying an incomplete trailing
// rune over to the next chunk.
func (s *session) decode(chunk []byte) string {
	data := chunk
	if len(s.utf8Tail) > 0 {
		data = append(s.utf8Tail, chunk...)
		s.utf8Tail = nil
	}
	cut := incompleteSuffix(data)
	if cut > 0 {
		s.utf8Tail = append([]byte(nil), data[len(data)-cut:]...)
		data = data[:len(data)-cut]
	}
	return string(data)
}

// incompleteSuffix returns the length of a truncated UTF-8 sequence at the end of b.
func incompleteSuffix(b []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < utf8.RuneSelf {
			return 0
		}
		if utf8.RuneStart(c) {
			if utf8.FullRune(b[len(b)-i:]) {
				return 0
			}
			return i
		}
	}
	return 0
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
