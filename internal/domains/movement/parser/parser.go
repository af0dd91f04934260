package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/shared/apperrors"
	"sitestock-backend/internal/shared/similarity"
)

// rawEntry is one item line after lexing, before validation.
type rawEntry struct {
	name        string
	quantity    float64
	hasQuantity bool
	unit        string
	entryType   model.MovementType
	hasType     bool
	overrides   map[string]string
	note        string
	segment     int
	raw         string
}

// quantityFromSegment parses a comma-delimited segment as a quantity:
// an optional sign, a standalone number, and an optional unit word from the
// vocabulary ("10 bags", "100 m", "-5", "15"). A glued single token ("10bags")
// is tolerated. Returns ok=false when the segment is not a quantity.
func quantityFromSegment(segment string) (qty float64, unit string, ok bool) {
	tokens := strings.Fields(segment)
	if len(tokens) == 0 {
		return 0, "", false
	}

	first := tokens[0]
	if v, err := strconv.ParseFloat(first, 64); err == nil {
		unit = similarity.DefaultUnit
		if len(tokens) > 1 {
			if u, known := similarity.CanonicalUnit(tokens[1]); known {
				unit = u
			}
		}
		return v, unit, true
	}

	// Glued "10bags" form, only when the segment is that single token.
	if len(tokens) == 1 {
		i := 0
		for i < len(first) && (first[i] >= '0' && first[i] <= '9' || first[i] == '.' || (i == 0 && (first[i] == '-' || first[i] == '+'))) {
			i++
		}
		if i > 0 && i < len(first) {
			if u, known := similarity.CanonicalUnit(first[i:]); known && !similarity.IsThicknessUnit(u) {
				if v, err := strconv.ParseFloat(first[:i], 64); err == nil {
					return v, u, true
				}
			}
		}
	}

	return 0, "", false
}

// movementVerb strips a leading in/out/adjust verb from an entry name.
func movementVerb(name string) (model.MovementType, string, bool) {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return "", name, false
	}
	if t, ok := model.ParseMovementType(strings.ToLower(fields[0])); ok {
		return t, strings.Join(fields[1:], " "), true
	}
	return "", name, false
}

// lexEntry splits an item line into name, quantity and trailing fields.
// Grammar: <item_name>, <quantity>[ <unit>] [, <field>]...
func lexEntry(text string, params []paramKV, segment int) rawEntry {
	entry := rawEntry{
		overrides: make(map[string]string),
		segment:   segment,
		raw:       text,
		unit:      similarity.DefaultUnit,
	}
	for _, p := range params {
		entry.overrides[p.key] = p.value
	}

	segments := strings.Split(text, ",")
	qtyIdx := -1
	for i, seg := range segments {
		if qty, unit, ok := quantityFromSegment(seg); ok {
			entry.quantity, entry.unit, entry.hasQuantity = qty, unit, true
			qtyIdx = i
			break
		}
	}

	nameEnd := len(segments)
	if qtyIdx >= 0 {
		nameEnd = qtyIdx
	}
	name := strings.TrimSpace(strings.Join(segments[:nameEnd], ","))
	if t, stripped, ok := movementVerb(name); ok {
		entry.entryType, entry.hasType = t, true
		name = stripped
	}
	entry.name = name

	if qtyIdx >= 0 {
		for _, seg := range segments[qtyIdx+1:] {
			seg = strings.TrimSpace(seg)
			if seg == "" {
				continue
			}
			if kv, ok := splitParam(seg); ok {
				entry.overrides[kv.key] = kv.value
				continue
			}
			if colon := strings.Index(seg, ":"); colon > 0 {
				key := strings.ToLower(strings.TrimSpace(seg[:colon]))
				if key == "note" {
					entry.note = joinNote(entry.note, strings.TrimSpace(seg[colon+1:]))
					continue
				}
			}
			entry.note = joinNote(entry.note, seg)
		}
	}

	return entry
}

func joinNote(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "; " + extra
}

// ParseMovement parses the body of an in/out/adjust command into a typed
// batch. All per-entry errors are collected; a batch with any error is
// reported invalid as a whole.
func ParseMovement(cmdType model.MovementType, body string) *model.ParsedBatch {
	events := tokenize(body)

	batch := &model.ParsedBatch{Type: cmdType, Format: model.FormatFree}

	type segmentState struct {
		number  int
		globals map[string]string
	}

	batchGlobals := make(map[string]string)
	current := segmentState{number: 0, globals: batchGlobals}
	segmented := false
	segmentCount := 0
	entrySeen := false
	lineCount := 0

	var entries []rawEntry

	for _, ev := range events {
		switch ev.kind {
		case lineBlank, lineComment:
			continue

		case lineBatchHeader:
			segmented = true
			segmentCount++
			globals := make(map[string]string, len(batchGlobals))
			for k, v := range batchGlobals {
				globals[k] = v
			}
			current = segmentState{number: ev.number, globals: globals}
			entrySeen = false

		case lineMeta:
			if entrySeen {
				batch.Errors = append(batch.Errors, parseError(len(entries)-1, ev.raw,
					"global parameters must appear before the first item line"))
				continue
			}
			applyParams(current.globals, ev.params)
			if !segmented {
				applyParams(batchGlobals, ev.params)
			}

		case lineEntry:
			lineCount++
			var headParams []paramKV
			entryParams := ev.params
			if !entrySeen {
				// Parameters prefixing the first item line belong to the head:
				// "in project: Bridge, cement 50kg, 10 bags".
				headParams = ev.params
				entryParams = nil
				applyParams(current.globals, headParams)
				if !segmented {
					applyParams(batchGlobals, headParams)
				}
			}
			entrySeen = true
			entries = append(entries, lexEntry(ev.text, entryParams, current.number))
		}
	}

	if segmented {
		batch.Format = model.FormatSegmented
		batch.Segments = segmentCount
	} else if len(entries) == 1 && lineCount == 1 {
		batch.Format = model.FormatSingle
		batch.Segments = 1
	} else {
		batch.Segments = 1
	}
	batch.Globals = globalsFromMap(batchGlobals)

	if len(entries) == 0 {
		batch.Errors = append(batch.Errors, parseError(-1, body, model.ErrEmptyCommand.Error()))
		return batch
	}
	if len(entries) > model.MaxMovementEntries {
		batch.Errors = append(batch.Errors, apperrors.New(
			apperrors.CategoryValidation, apperrors.SeverityError,
			model.NewBatchTooLargeError(len(entries), model.MaxMovementEntries).Error()))
		return batch
	}

	// The first entry fixes the batch movement type; entries carrying their
	// own verb must agree with it.
	batchType := cmdType
	if entries[0].hasType {
		batchType = entries[0].entryType
	}
	batch.Type = batchType

	segGlobals := segmentGlobals(events, batchGlobals)

	seenNames := make(map[string]bool)
	for i, e := range entries {
		if e.hasType && e.entryType != batchType {
			batch.Errors = append(batch.Errors, apperrors.New(
				apperrors.CategoryValidation, apperrors.SeverityError,
				fmt.Sprintf("Movement type %s differs from first entry type %s", e.entryType, batchType),
			).WithEntry(i, e.raw))
			continue
		}

		mv, entryErrs, warns := buildMovement(batchType, e, segGlobals[e.segment])
		for _, err := range entryErrs {
			batch.Errors = append(batch.Errors, err.WithEntry(i, e.raw))
		}
		batch.Warnings = append(batch.Warnings, warns...)
		if len(entryErrs) > 0 {
			continue
		}

		key := similarity.Normalize(mv.ItemName)
		if seenNames[key] {
			batch.Warnings = append(batch.Warnings,
				fmt.Sprintf("entry %d: %q appears more than once in this batch", i+1, mv.ItemName))
		}
		seenNames[key] = true

		batch.Movements = append(batch.Movements, mv)
	}

	return batch
}

// segmentGlobals re-walks the event stream to collect per-segment globals.
// Segment 0 is the flat batch head.
func segmentGlobals(events []lineEvent, batchGlobals map[string]string) map[int]model.GlobalParams {
	out := map[int]model.GlobalParams{0: globalsFromMap(batchGlobals)}

	currentNum := 0
	globals := batchGlobals
	entrySeen := false
	for _, ev := range events {
		switch ev.kind {
		case lineBatchHeader:
			currentNum = ev.number
			merged := make(map[string]string, len(batchGlobals))
			for k, v := range batchGlobals {
				merged[k] = v
			}
			globals = merged
			entrySeen = false
			out[currentNum] = globalsFromMap(globals)
		case lineMeta:
			if !entrySeen {
				applyParams(globals, ev.params)
				out[currentNum] = globalsFromMap(globals)
			}
		case lineEntry:
			if !entrySeen {
				applyParams(globals, ev.params)
				out[currentNum] = globalsFromMap(globals)
			}
			entrySeen = true
		}
	}
	return out
}

// buildMovement validates a raw entry and materializes the movement with
// inherited globals and per-entry overrides applied.
func buildMovement(t model.MovementType, e rawEntry, globals model.GlobalParams) (model.StockMovement, []*apperrors.BatchError, []string) {
	var errs []*apperrors.BatchError
	var warns []string

	if e.name == "" {
		errs = append(errs, parseError(-1, e.raw, "missing item name"))
	}
	if !e.hasQuantity {
		errs = append(errs, parseError(-1, e.raw, "missing quantity"))
	} else {
		switch {
		case t == model.MovementAdjust && e.quantity == 0:
			errs = append(errs, apperrors.New(apperrors.CategoryValidation, apperrors.SeverityError,
				"adjustment quantity cannot be zero"))
		case t != model.MovementAdjust && e.quantity <= 0:
			errs = append(errs, apperrors.New(apperrors.CategoryValidation, apperrors.SeverityError,
				fmt.Sprintf("quantity must be positive for %s entries", strings.ToLower(string(t)))))
		}
	}

	params := globals
	if v, ok := e.overrides["project"]; ok {
		params.Project = orNotDescribed(v)
	}
	if v, ok := e.overrides["driver"]; ok {
		params.Driver = orNotDescribed(v)
	}
	if v, ok := e.overrides["from"]; ok {
		params.From = orNotDescribed(v)
	}
	if v, ok := e.overrides["to"]; ok {
		params.To = orNotDescribed(v)
	}
	params = params.WithDefaults(t)

	if params.Project == "" {
		errs = append(errs, apperrors.New(apperrors.CategoryValidation, apperrors.SeverityError,
			"project is required for movements"))
	}

	if e.hasQuantity && absFloat(e.quantity) > model.LargeQtySoftLimit {
		warns = append(warns, fmt.Sprintf("%q: quantity %.4g is unusually large, please double-check",
			e.name, e.quantity))
	}

	mv := model.StockMovement{
		ItemName:           e.name,
		Type:               t,
		Quantity:           e.quantity,
		Unit:               e.unit,
		SignedBaseQuantity: model.Sign(t, e.quantity),
		Status:             model.StatusRequested,
		Timestamp:          time.Now(),
		Driver:             params.Driver,
		FromLocation:       params.From,
		ToLocation:         params.To,
		Project:            params.Project,
		Note:               e.note,
		Reason:             t.Reason(),
		BatchNumber:        e.segment,
	}
	return mv, errs, warns
}

func applyParams(dst map[string]string, params []paramKV) {
	for _, p := range params {
		dst[p.key] = orNotDescribed(p.value)
	}
}

// orNotDescribed keeps a key that was given without a value meaningful.
func orNotDescribed(v string) string {
	if strings.TrimSpace(v) == "" {
		return model.NotDescribed
	}
	return strings.TrimSpace(v)
}

func globalsFromMap(m map[string]string) model.GlobalParams {
	return model.GlobalParams{
		Project: m["project"],
		Driver:  m["driver"],
		From:    m["from"],
		To:      m["to"],
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// parseError builds a PARSING error with a corrected-template suggestion.
func parseError(index int, raw, msg string) *apperrors.BatchError {
	err := apperrors.New(apperrors.CategoryParsing, apperrors.SeverityError, msg)
	err.Suggestion = "Use: <item name>, <quantity> <unit>. One entry per line or separated by ';'. " +
		"For multiple deliveries use '-batch 1-' headers."
	if index >= 0 {
		err.WithEntry(index, raw)
	} else {
		err.EntryDetails = raw
	}
	return err
}
