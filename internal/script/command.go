package script

// Command is one parsed script line. Concrete variants carry their validated
// arguments; the interpreter dispatches on the concrete type.
type Command interface {
	// Pos is the 1-based line number the command came from.
	Pos() int
	// Text is the trimmed source line, for error reports and the audit log.
	Text() string
}

// pos is embedded by every command variant.
type pos struct {
	line int
	text string
}

func (p pos) Pos() int     { return p.line }
func (p pos) Text() string { return p.text }

// LoadRoster loads a roster spreadsheet and makes it current.
type LoadRoster struct {
	pos
	Path string
}

// SaveRoster writes the current roster; an empty Path means the path the
// roster was loaded from.
type SaveRoster struct {
	pos
	Path string
}

// DownloadRoster is SAVE ROSTER under the name the web UI used.
type DownloadRoster struct {
	pos
	Path string
}

// ProcessCheckin applies an in-person check-in file to the roster. Date,
// EarlyBird and Regular are optional raw strings ("" when absent).
type ProcessCheckin struct {
	pos
	Path      string
	Date      string
	EarlyBird string
	Regular   string
}

// SetCheckinTimes updates the session cutoffs.
type SetCheckinTimes struct {
	pos
	EarlyBird string
	Regular   string
}

// ProcessZoom applies a Zoom participation file to the roster.
type ProcessZoom struct {
	pos
	Path string
	Date string
}

// ViewRoster reports roster dimensions.
type ViewRoster struct{ pos }

// DeleteDate removes one date column.
type DeleteDate struct {
	pos
	Date string
}

// ShowLate lists students with late points at a date.
type ShowLate struct {
	pos
	Date string
}

// ShowEarly lists students with full points at a date.
type ShowEarly struct {
	pos
	Date string
}

// ShowTotal reports one student's derived point total. Parsed from both
// SHOW STUDENT TOTAL and its FIND STUDENT alias.
type ShowTotal struct {
	pos
	Name string
}

// EnableGemini turns the AI-assisted name matching tier on.
type EnableGemini struct{ pos }

// DisableGemini turns the AI-assisted name matching tier off.
type DisableGemini struct{ pos }

// SetGeminiKey stores the AI matching credential.
type SetGeminiKey struct {
	pos
	APIKey string
}

// GenerateQR renders a QR code for a URL, optionally to a file.
type GenerateQR struct {
	pos
	URL    string
	Output string
}

// Echo appends its message to the output log.
type Echo struct {
	pos
	Message string
}

// Wait blocks for the given number of seconds.
type Wait struct {
	pos
	Seconds float64
}

// RunScript executes a nested script in the same context.
type RunScript struct {
	pos
	Path string
}

// BeginBatch opens a non-nesting command group.
type BeginBatch struct{ pos }

// EndBatch closes the open command group and runs it.
type EndBatch struct{ pos }
