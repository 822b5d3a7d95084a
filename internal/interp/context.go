package interp

import (
	"attendscript/internal/policy"
	"attendscript/internal/resolve"
	"attendscript/internal/roster"
)

// Settings is the mutable session state scripts adjust with SET and
// ENABLE/DISABLE commands.
type Settings struct {
	EarlyBird     policy.TimeOfDay
	Regular       policy.TimeOfDay
	ZoomCut       float64 // minutes
	GeminiEnabled bool
	GeminiAPIKey  string
	GeminiModel   string
}

// DefaultSettings returns the documented class-schedule defaults.
func DefaultSettings() Settings {
	return Settings{
		EarlyBird:   policy.DefaultEarlyBird,
		Regular:     policy.DefaultRegular,
		ZoomCut:     policy.DefaultZoomCutMinutes,
		GeminiModel: resolve.DefaultGeminiModel,
	}
}

// OutputEntry is one line of the run's output log: which command produced it
// and what it said.
type OutputEntry struct {
	Line    int
	Command string
	Text    string
}

// Context carries everything that survives across commands of one session:
// the loaded roster, the path it came from, session settings, and the output
// log. RUN shares the caller's Context, so nested scripts see and mutate the
// same state.
type Context struct {
	Roster     *roster.Roster
	RosterPath string
	Settings   Settings
	Output     []OutputEntry

	runStack   []string // absolute paths of scripts currently executing
	matcher    resolve.Matcher
	matcherKey string
}

// NewContext returns a Context with the given settings and no roster.
func NewContext(s Settings) *Context {
	return &Context{Settings: s}
}

func (c *Context) emit(line int, command, text string) {
	c.Output = append(c.Output, OutputEntry{Line: line, Command: command, Text: text})
}
