package parser

import (
	"strconv"
	"strings"
)

// The tokenizer turns raw command text into a flat stream of typed line
// events. It does one pass and no backtracking; the parser state machine
// consumes the events. Entry separators are newlines and semicolons.

type lineKind int

const (
	lineBlank lineKind = iota
	lineComment
	lineBatchHeader
	lineMeta  // only global parameters, no entry text
	lineEntry // entry text, possibly with leading global parameters
)

type paramKV struct {
	key   string
	value string
}

type lineEvent struct {
	kind   lineKind
	number int       // batch header number
	params []paramKV // leading global parameters
	text   string    // entry remainder
	raw    string
}

// globalKeys are the only keys recognized as batch/entry parameters.
var globalKeys = map[string]bool{
	"project": true,
	"driver":  true,
	"from":    true,
	"to":      true,
}

// parseBatchHeader matches "-batch <N>-" headers.
func parseBatchHeader(line string) (int, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "-") || !strings.HasSuffix(trimmed, "-") || len(trimmed) < 3 {
		return 0, false
	}
	inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	fields := strings.Fields(inner)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "batch") {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// splitParam matches a "key: value" segment against the global keys.
func splitParam(segment string) (paramKV, bool) {
	colon := strings.Index(segment, ":")
	if colon < 0 {
		return paramKV{}, false
	}
	key := strings.ToLower(strings.TrimSpace(segment[:colon]))
	if !globalKeys[key] {
		return paramKV{}, false
	}
	return paramKV{key: key, value: strings.TrimSpace(segment[colon+1:])}, true
}

// lexLine splits one physical sub-line into leading global parameters and the
// entry remainder. Parameters are comma-separated "key: value" segments; the
// first segment that is not a parameter starts the entry text.
func lexLine(line string) ([]paramKV, string) {
	segments := strings.Split(line, ",")
	var params []paramKV
	for i, seg := range segments {
		kv, ok := splitParam(seg)
		if !ok {
			rest := strings.TrimSpace(strings.Join(segments[i:], ","))
			return params, rest
		}
		params = append(params, kv)
	}
	return params, ""
}

// tokenize emits one event per logical line. Semicolons split a physical line
// into several logical lines.
func tokenize(body string) []lineEvent {
	var events []lineEvent

	for _, physical := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(physical)

		if trimmed == "" {
			events = append(events, lineEvent{kind: lineBlank, raw: physical})
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			events = append(events, lineEvent{kind: lineComment, raw: physical})
			continue
		}
		if n, ok := parseBatchHeader(trimmed); ok {
			events = append(events, lineEvent{kind: lineBatchHeader, number: n, raw: physical})
			continue
		}

		for _, logical := range strings.Split(trimmed, ";") {
			logical = strings.TrimSpace(logical)
			if logical == "" {
				continue
			}
			params, rest := lexLine(logical)
			kind := lineEntry
			if rest == "" {
				kind = lineMeta
			}
			events = append(events, lineEvent{kind: kind, params: params, text: rest, raw: logical})
		}
	}

	return events
}
