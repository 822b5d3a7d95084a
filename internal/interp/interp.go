// Package interp executes parsed attendance scripts against a session
// Context. Commands run strictly in order; the first failing command halts
// the script and everything before it keeps its effect.
package interp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"attendscript/internal/policy"
	"attendscript/internal/qr"
	"attendscript/internal/resolve"
	"attendscript/internal/roster"
	"attendscript/internal/script"
	"attendscript/internal/tabfile"
)

// ErrNoRoster reports a command that needs a roster before one was loaded.
var ErrNoRoster = errors.New("no roster loaded")

// CommandError reports the command a run halted on.
type CommandError struct {
	Line int
	Text string
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("line %d: %v (%q)", e.Line, e.Err, e.Text)
}

func (e *CommandError) Unwrap() error { return e.Err }

// StructuralError reports a malformed batch structure.
type StructuralError struct {
	Line int
	Msg  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// MatcherFactory builds the AI name-matching tier from the current session
// settings. It is consulted only while Gemini matching is enabled.
type MatcherFactory func(ctx context.Context, s Settings) (resolve.Matcher, error)

// Interpreter executes scripts. It holds no session state of its own; all of
// that lives in the Context.
type Interpreter struct {
	log     *zap.Logger
	factory MatcherFactory
	sleep   func(time.Duration)
}

// New builds an Interpreter. Either argument may be nil; a nil factory
// leaves the AI matching tier off even when a script enables it.
func New(log *zap.Logger, factory MatcherFactory) *Interpreter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Interpreter{log: log, factory: factory, sleep: time.Sleep}
}

// RunFile executes the script at path in the given context. Nested RUN
// commands share the context; a script that is already on the run stack is a
// cycle and fails.
func (in *Interpreter) RunFile(ctx context.Context, ec *Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, p := range ec.runStack {
		if p == abs {
			return fmt.Errorf("script cycle: %s is already running", path)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	ec.runStack = append(ec.runStack, abs)
	defer func() { ec.runStack = ec.runStack[:len(ec.runStack)-1] }()
	return in.Execute(ctx, ec, string(data), path)
}

// Execute runs script source line by line. Lines parse lazily, so a parse
// error on line N leaves the effects of lines before N in place. Batch state
// is local to this call: a RUN inside a batch gets a fresh batch scope.
func (in *Interpreter) Execute(ctx context.Context, ec *Context, src, name string) error {
	var batch []script.Command
	inBatch := false

	sc := bufio.NewScanner(strings.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	num := 0
	for sc.Scan() {
		num++
		cmd, err := script.ParseLine(sc.Text(), num)
		if err != nil {
			return err
		}
		if cmd == nil {
			continue
		}

		switch cmd.(type) {
		case *script.BeginBatch:
			if inBatch {
				return &StructuralError{Line: num, Msg: "BEGIN BATCH inside an open batch"}
			}
			inBatch = true
			batch = batch[:0]
			continue
		case *script.EndBatch:
			if !inBatch {
				return &StructuralError{Line: num, Msg: "END BATCH without BEGIN BATCH"}
			}
			inBatch = false
			for _, bc := range batch {
				if err := in.run(ctx, ec, bc); err != nil {
					return err
				}
			}
			ec.emit(cmd.Pos(), cmd.Text(), fmt.Sprintf("Batch completed: %d commands", len(batch)))
			continue
		}

		if inBatch {
			batch = append(batch, cmd)
			continue
		}
		if err := in.run(ctx, ec, cmd); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if inBatch {
		return &StructuralError{Line: num, Msg: "batch not closed before end of script"}
	}
	return nil
}

func (in *Interpreter) run(ctx context.Context, ec *Context, cmd script.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := in.exec(ctx, ec, cmd)
	if err != nil {
		var ce *CommandError
		if errors.As(err, &ce) {
			return err
		}
		return &CommandError{Line: cmd.Pos(), Text: cmd.Text(), Err: err}
	}
	if out != "" {
		ec.emit(cmd.Pos(), cmd.Text(), out)
	}
	in.log.Debug("command executed",
		zap.Int("line", cmd.Pos()), zap.String("command", cmd.Text()))
	return nil
}

func (in *Interpreter) exec(ctx context.Context, ec *Context, cmd script.Command) (string, error) {
	switch c := cmd.(type) {
	case *script.LoadRoster:
		r, err := tabfile.LoadRoster(c.Path)
		if err != nil {
			return "", err
		}
		ec.Roster = r
		ec.RosterPath = c.Path
		return fmt.Sprintf("Roster loaded: %d students, %d date columns", r.Len(), len(r.Columns())), nil

	case *script.SaveRoster:
		return in.saveRoster(ec, c.Path)
	case *script.DownloadRoster:
		return in.saveRoster(ec, c.Path)

	case *script.ProcessCheckin:
		return in.processCheckin(ctx, ec, c)

	case *script.SetCheckinTimes:
		return in.setCheckinTimes(ec, c)

	case *script.ProcessZoom:
		return in.processZoom(ctx, ec, c)

	case *script.ViewRoster:
		if ec.Roster == nil {
			return "", ErrNoRoster
		}
		return fmt.Sprintf("Roster: %d students, %d date columns", ec.Roster.Len(), len(ec.Roster.Columns())), nil

	case *script.DeleteDate:
		if ec.Roster == nil {
			return "", ErrNoRoster
		}
		label, err := ec.Roster.ResolveDateArg(c.Date)
		if err != nil {
			return "", err
		}
		if err := ec.Roster.DeleteDate(label); err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted date column %s", label), nil

	case *script.ShowLate:
		return in.showStudents(ec, c.Date, roster.PointLate, "Late")
	case *script.ShowEarly:
		return in.showStudents(ec, c.Date, roster.PointFull, "Early bird")

	case *script.ShowTotal:
		return in.showTotal(ctx, ec, c.Name)

	case *script.EnableGemini:
		ec.Settings.GeminiEnabled = true
		if ec.Settings.GeminiAPIKey == "" {
			return "Gemini matching enabled (no API key configured)", nil
		}
		return "Gemini matching enabled", nil

	case *script.DisableGemini:
		ec.Settings.GeminiEnabled = false
		return "Gemini matching disabled", nil

	case *script.SetGeminiKey:
		ec.Settings.GeminiAPIKey = c.APIKey
		ec.matcher = nil
		return "Gemini API key updated", nil

	case *script.GenerateQR:
		if c.Output != "" {
			if err := qr.WriteFile(c.URL, c.Output); err != nil {
				return "", err
			}
			return fmt.Sprintf("QR code written to %s", c.Output), nil
		}
		png, err := qr.Encode(c.URL)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("QR code generated for %s (%d bytes)", c.URL, len(png)), nil

	case *script.Echo:
		return "ECHO: " + c.Message, nil

	case *script.Wait:
		in.sleep(time.Duration(c.Seconds * float64(time.Second)))
		return fmt.Sprintf("Waited %g seconds", c.Seconds), nil

	case *script.RunScript:
		if err := in.RunFile(ctx, ec, c.Path); err != nil {
			return "", err
		}
		return fmt.Sprintf("Finished script %s", c.Path), nil
	}
	return "", fmt.Errorf("unhandled command %T", cmd)
}

func (in *Interpreter) saveRoster(ec *Context, path string) (string, error) {
	if ec.Roster == nil {
		return "", ErrNoRoster
	}
	if path == "" {
		path = ec.RosterPath
	}
	if path == "" {
		return "", fmt.Errorf("no save path and roster has no source file")
	}
	if err := tabfile.SaveRoster(ec.Roster, path); err != nil {
		return "", err
	}
	return fmt.Sprintf("Roster saved to %s", path), nil
}

func (in *Interpreter) setCheckinTimes(ec *Context, c *script.SetCheckinTimes) (string, error) {
	early, regular := ec.Settings.EarlyBird, ec.Settings.Regular
	if c.EarlyBird != "" {
		t, err := policy.ParseTimeOfDay(c.EarlyBird)
		if err != nil {
			return "", err
		}
		early = t
	}
	if c.Regular != "" {
		t, err := policy.ParseTimeOfDay(c.Regular)
		if err != nil {
			return "", err
		}
		regular = t
	}
	if early >= regular {
		return "", fmt.Errorf("early bird cutoff %s must be before regular cutoff %s", early, regular)
	}
	ec.Settings.EarlyBird = early
	ec.Settings.Regular = regular
	return fmt.Sprintf("Check-in times set: early bird %s, regular %s", early, regular), nil
}

func (in *Interpreter) processCheckin(ctx context.Context, ec *Context, c *script.ProcessCheckin) (string, error) {
	if ec.Roster == nil {
		return "", ErrNoRoster
	}
	early, regular := ec.Settings.EarlyBird, ec.Settings.Regular
	if c.EarlyBird != "" {
		t, err := policy.ParseTimeOfDay(c.EarlyBird)
		if err != nil {
			return "", err
		}
		early = t
	}
	if c.Regular != "" {
		t, err := policy.ParseTimeOfDay(c.Regular)
		if err != nil {
			return "", err
		}
		regular = t
	}

	// With DATE every row lands in that column; without it each row files
	// under its own timestamp's date.
	var label string
	fallback := time.Now()
	if c.Date != "" {
		var err error
		label, err = ec.Roster.ResolveDateArg(c.Date)
		if err != nil {
			return "", err
		}
		if t, err := roster.ParseDate(c.Date); err == nil {
			fallback = t
		}
		ec.Roster.EnsureColumn(label)
	}

	rows, err := tabfile.ReadCheckins(c.Path)
	if err != nil {
		return "", err
	}
	res := in.resolver(ctx, ec)

	var full, late, absent, unmatched, skipped int
	for _, row := range rows {
		at, err := policy.ParseTimestamp(row.When, fallback)
		if err != nil {
			in.log.Warn("skipping check-in row",
				zap.String("name", row.Name), zap.String("timestamp", row.When), zap.Error(err))
			skipped++
			continue
		}
		entry, err := res.Resolve(ctx, row.Name, ec.Roster)
		if err != nil {
			in.log.Warn("check-in name did not match roster", zap.String("name", row.Name))
			unmatched++
			continue
		}
		points := policy.CheckinPoints(at, early, regular)
		switch points {
		case roster.PointFull:
			full++
		case roster.PointLate:
			late++
		default:
			absent++
			continue // after the regular cutoff no cell is written
		}
		col := label
		if col == "" {
			if l, ok := ec.Roster.MatchColumn(at); ok {
				col = l
			} else {
				col = roster.FormatKey(at)
			}
		}
		if err := ec.Roster.Upsert(entry.Key, col, points); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Processed check-ins from %s: %d early bird, %d late, %d absent, %d unmatched, %d skipped",
		c.Path, full, late, absent, unmatched, skipped), nil
}

func (in *Interpreter) processZoom(ctx context.Context, ec *Context, c *script.ProcessZoom) (string, error) {
	if ec.Roster == nil {
		return "", ErrNoRoster
	}

	var label string
	if c.Date != "" {
		var err error
		label, err = ec.Roster.ResolveDateArg(c.Date)
		if err != nil {
			return "", err
		}
	} else {
		now := time.Now()
		if l, ok := ec.Roster.MatchColumn(now); ok {
			label = l
		} else {
			label = roster.FormatKey(now)
		}
	}
	ec.Roster.EnsureColumn(label)

	rows, skipped, err := tabfile.ReadZoom(c.Path)
	if err != nil {
		return "", err
	}
	res := in.resolver(ctx, ec)

	var full, late, absent, unmatched int
	for _, row := range rows {
		minutes, err := policy.ParseDuration(row.Duration)
		if err != nil {
			in.log.Warn("skipping zoom row",
				zap.String("name", row.Name), zap.String("duration", row.Duration), zap.Error(err))
			skipped++
			continue
		}
		entry, err := res.Resolve(ctx, row.Name, ec.Roster)
		if err != nil {
			in.log.Warn("zoom name did not match roster", zap.String("name", row.Name))
			unmatched++
			continue
		}
		points := policy.ZoomPoints(minutes, ec.Settings.ZoomCut)
		switch points {
		case roster.PointFull:
			full++
		case roster.PointLate:
			late++
		default:
			absent++
			continue
		}
		if err := ec.Roster.Upsert(entry.Key, label, points); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Processed zoom attendance from %s into %s: %d full, %d partial, %d absent, %d unmatched, %d skipped",
		c.Path, label, full, late, absent, unmatched, skipped), nil
}

func (in *Interpreter) showStudents(ec *Context, date string, points float64, kind string) (string, error) {
	if ec.Roster == nil {
		return "", ErrNoRoster
	}
	label, err := ec.Roster.ResolveDateArg(date)
	if err != nil {
		return "", err
	}
	entries, err := ec.Roster.ByPoint(label, points)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return fmt.Sprintf("No %s students for %s", strings.ToLower(kind), label), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s students for %s (%d students):", kind, label, len(entries))
	for i, e := range entries {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, e.DisplayName)
	}
	return b.String(), nil
}

func (in *Interpreter) showTotal(ctx context.Context, ec *Context, name string) (string, error) {
	if ec.Roster == nil {
		return "", ErrNoRoster
	}
	entry, err := in.resolver(ctx, ec).Resolve(ctx, name, ec.Roster)
	if errors.Is(err, resolve.ErrNotFound) {
		// Not finding a student is an answer, not a failure.
		return fmt.Sprintf("Student not found: %s", name), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Student: %s\nTotal Points: %.1f", entry.DisplayName, entry.Total()), nil
}

// resolver builds the name resolver for the current settings. The AI matcher
// is created lazily and rebuilt when the API key changes.
func (in *Interpreter) resolver(ctx context.Context, ec *Context) *resolve.Resolver {
	var m resolve.Matcher
	if ec.Settings.GeminiEnabled && in.factory != nil && ec.Settings.GeminiAPIKey != "" {
		if ec.matcher == nil || ec.matcherKey != ec.Settings.GeminiAPIKey {
			built, err := in.factory(ctx, ec.Settings)
			if err != nil {
				in.log.Warn("ai matcher unavailable", zap.Error(err))
				ec.matcher = nil
			} else {
				ec.matcher = built
				ec.matcherKey = ec.Settings.GeminiAPIKey
			}
		}
		m = ec.matcher
	}
	return resolve.New(m, in.log)
}
