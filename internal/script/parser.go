package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel causes for ParseError, matched with errors.Is.
var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrInvalidArguments = errors.New("invalid arguments")
)

// ParseError reports a malformed or unrecognized script line.
type ParseError struct {
	Line int
	Text string
	Err  error
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %s (%q)", e.Line, e.Err, e.Msg, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// verbs lists every command phrase, longest first so "SET CHECKIN TIMES"
// wins over any shorter prefix. Matching is case-insensitive.
var verbs = []string{
	"SET CHECKIN TIMES",
	"SHOW LATE STUDENTS",
	"SHOW EARLY STUDENTS",
	"SHOW STUDENT TOTAL",
	"SET GEMINI KEY",
	"LOAD ROSTER",
	"SAVE ROSTER",
	"DOWNLOAD ROSTER",
	"PROCESS CHECKIN",
	"PROCESS ZOOM",
	"VIEW ROSTER",
	"DELETE DATE",
	"FIND STUDENT",
	"ENABLE GEMINI",
	"DISABLE GEMINI",
	"GENERATE QR",
	"BEGIN BATCH",
	"END BATCH",
	"ECHO",
	"WAIT",
	"RUN",
}

// ParseLine parses one script line into a Command. Blank and comment lines
// yield (nil, nil).
func ParseLine(line string, num int) (Command, error) {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return nil, nil
	}
	text := strings.TrimSpace(line)
	p := pos{line: num, text: text}

	verb, args := matchVerb(tokens)
	if verb == "" {
		return nil, &ParseError{Line: num, Text: text, Err: ErrUnknownCommand, Msg: tokens[0]}
	}

	fail := func(msg string) (Command, error) {
		return nil, &ParseError{Line: num, Text: text, Err: ErrInvalidArguments, Msg: verb + ": " + msg}
	}

	switch verb {
	case "LOAD ROSTER":
		if len(args) != 1 {
			return fail("requires a file path")
		}
		return &LoadRoster{pos: p, Path: args[0]}, nil

	case "SAVE ROSTER":
		return &SaveRoster{pos: p, Path: first(args)}, nil

	case "DOWNLOAD ROSTER":
		return &DownloadRoster{pos: p, Path: first(args)}, nil

	case "PROCESS CHECKIN":
		kw, rest, err := keywordArgs(args, "DATE", "EARLY_BIRD", "REGULAR")
		if err != nil {
			return fail(err.Error())
		}
		if len(rest) != 1 {
			return fail("requires a file path")
		}
		return &ProcessCheckin{
			pos: p, Path: rest[0],
			Date: kw["DATE"], EarlyBird: kw["EARLY_BIRD"], Regular: kw["REGULAR"],
		}, nil

	case "SET CHECKIN TIMES":
		kw, rest, err := keywordArgs(args, "EARLY_BIRD", "REGULAR")
		if err != nil {
			return fail(err.Error())
		}
		if len(rest) != 0 || (kw["EARLY_BIRD"] == "" && kw["REGULAR"] == "") {
			return fail("requires EARLY_BIRD and/or REGULAR times")
		}
		return &SetCheckinTimes{pos: p, EarlyBird: kw["EARLY_BIRD"], Regular: kw["REGULAR"]}, nil

	case "PROCESS ZOOM":
		kw, rest, err := keywordArgs(args, "DATE")
		if err != nil {
			return fail(err.Error())
		}
		if len(rest) != 1 {
			return fail("requires a file path")
		}
		return &ProcessZoom{pos: p, Path: rest[0], Date: kw["DATE"]}, nil

	case "VIEW ROSTER":
		return &ViewRoster{pos: p}, nil

	case "DELETE DATE":
		if len(args) != 1 {
			return fail("requires a date column")
		}
		return &DeleteDate{pos: p, Date: args[0]}, nil

	case "SHOW LATE STUDENTS", "SHOW EARLY STUDENTS":
		kw, rest, err := keywordArgs(args, "DATE")
		if err != nil {
			return fail(err.Error())
		}
		if kw["DATE"] == "" || len(rest) != 0 {
			return fail("requires DATE <date>")
		}
		if verb == "SHOW LATE STUDENTS" {
			return &ShowLate{pos: p, Date: kw["DATE"]}, nil
		}
		return &ShowEarly{pos: p, Date: kw["DATE"]}, nil

	case "SHOW STUDENT TOTAL", "FIND STUDENT":
		if len(args) == 0 {
			return fail("requires a student name")
		}
		return &ShowTotal{pos: p, Name: strings.Join(args, " ")}, nil

	case "ENABLE GEMINI":
		return &EnableGemini{pos: p}, nil

	case "DISABLE GEMINI":
		return &DisableGemini{pos: p}, nil

	case "SET GEMINI KEY":
		if len(args) != 1 {
			return fail("requires an API key")
		}
		return &SetGeminiKey{pos: p, APIKey: args[0]}, nil

	case "GENERATE QR":
		kw, rest, err := keywordArgs(args, "OUTPUT")
		if err != nil {
			return fail(err.Error())
		}
		if len(rest) != 1 {
			return fail("requires a URL")
		}
		return &GenerateQR{pos: p, URL: rest[0], Output: kw["OUTPUT"]}, nil

	case "ECHO":
		return &Echo{pos: p, Message: strings.Join(args, " ")}, nil

	case "WAIT":
		if len(args) != 1 {
			return fail("requires a number of seconds")
		}
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil || secs < 0 {
			return fail(fmt.Sprintf("invalid wait time %q", args[0]))
		}
		return &Wait{pos: p, Seconds: secs}, nil

	case "RUN":
		if len(args) != 1 {
			return fail("requires a script path")
		}
		return &RunScript{pos: p, Path: args[0]}, nil

	case "BEGIN BATCH":
		if len(args) != 0 {
			return fail("takes no arguments")
		}
		return &BeginBatch{pos: p}, nil

	case "END BATCH":
		if len(args) != 0 {
			return fail("takes no arguments")
		}
		return &EndBatch{pos: p}, nil
	}
	return nil, &ParseError{Line: num, Text: text, Err: ErrUnknownCommand, Msg: verb}
}

func matchVerb(tokens []string) (string, []string) {
	for _, v := range verbs {
		words := strings.Fields(v)
		if len(tokens) < len(words) {
			continue
		}
		if strings.EqualFold(strings.Join(tokens[:len(words)], " "), v) {
			return v, tokens[len(words):]
		}
	}
	return "", nil
}

// keywordArgs pulls keyword-prefixed values (DATE <v>, OUTPUT <v>, ...) out
// of an argument list, returning the remaining positional arguments.
func keywordArgs(args []string, keys ...string) (map[string]string, []string, error) {
	kw := make(map[string]string, len(keys))
	var rest []string
	for i := 0; i < len(args); i++ {
		matched := false
		for _, k := range keys {
			if strings.EqualFold(args[i], k) {
				if i+1 >= len(args) {
					return nil, nil, fmt.Errorf("%s requires a value", k)
				}
				if kw[k] != "" {
					return nil, nil, fmt.Errorf("%s given twice", k)
				}
				kw[k] = args[i+1]
				i++
				matched = true
				break
			}
		}
		if !matched {
			rest = append(rest, args[i])
		}
	}
	return kw, rest, nil
}

func first(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
