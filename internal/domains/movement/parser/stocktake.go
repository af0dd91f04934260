package parser

import (
	"fmt"
	"strconv"
	"strings"

	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/shared/apperrors"
	"sitestock-backend/internal/shared/similarity"
)

const loggedByPrefix = "logged by"

// ParseStocktake parses the body of an "inventory" command. The first
// meaningful line must be a "logged by:" header; it may carry optional
// "date:" and "category:" fields. Every following line is one counted item:
// <item name>, <quantity>[ <unit phrase>].
func ParseStocktake(body string) *model.ParsedStocktake {
	out := &model.ParsedStocktake{Date: TodayISO()}

	headerSeen := false
	lineNo := 0
	seen := make(map[string]int)

	for _, physical := range strings.Split(body, "\n") {
		lineNo++
		trimmed := strings.TrimSpace(physical)

		if trimmed == "" {
			out.BlankLines++
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			out.CommentLines++
			continue
		}

		if !headerSeen {
			if !strings.HasPrefix(strings.ToLower(trimmed), loggedByPrefix) {
				out.Errors = append(out.Errors, stocktakeError(lineNo, trimmed,
					`stocktake must start with a "logged by:" line`))
				return out
			}
			headerSeen = true
			parseStocktakeHeader(trimmed, out)
			continue
		}

		entry, err := parseStocktakeLine(trimmed, lineNo)
		if err != nil {
			out.Errors = append(out.Errors, stocktakeError(lineNo, trimmed, err.Error()))
			continue
		}

		key := similarity.Normalize(entry.ItemName)
		if prev, dup := seen[key]; dup {
			out.Warnings = append(out.Warnings, fmt.Sprintf(
				"line %d: %q already counted on line %d, counts are cumulative",
				lineNo, entry.ItemName, prev))
		} else {
			seen[key] = lineNo
		}

		out.Entries = append(out.Entries, entry)
	}

	if !headerSeen {
		out.Errors = append(out.Errors, stocktakeError(-1, body,
			`stocktake must start with a "logged by:" line`))
		return out
	}
	if len(out.Entries) == 0 && len(out.Errors) == 0 {
		out.Errors = append(out.Errors, stocktakeError(-1, body, "no counted items found"))
	}
	if len(out.Entries) > model.MaxStocktakeEntries {
		out.Errors = append(out.Errors, apperrors.New(
			apperrors.CategoryValidation, apperrors.SeverityError,
			model.NewBatchTooLargeError(len(out.Entries), model.MaxStocktakeEntries).Error()))
	}

	return out
}

// parseStocktakeHeader fills names, date and category from the header line.
// Names are comma-separated; "date:" and "category:" segments are fields.
func parseStocktakeHeader(line string, out *model.ParsedStocktake) {
	rest := strings.TrimSpace(line[len(loggedByPrefix):])
	rest = strings.TrimPrefix(rest, ":")

	for _, seg := range strings.Split(rest, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		lower := strings.ToLower(seg)
		switch {
		case strings.HasPrefix(lower, "date:"):
			raw := strings.TrimSpace(seg[len("date:"):])
			iso, err := ParseDate(raw)
			if err != nil {
				out.Errors = append(out.Errors, stocktakeError(1, seg, err.Error()))
				continue
			}
			out.Date = iso
		case strings.HasPrefix(lower, "category:"):
			out.Category = strings.TrimSpace(seg[len("category:"):])
		default:
			out.LoggedBy = append(out.LoggedBy, seg)
		}
	}

	if len(out.LoggedBy) == 0 {
		out.Errors = append(out.Errors, stocktakeError(1, line, "logged by: needs at least one name"))
	}
}

// parseStocktakeLine parses "<item name>, <qty>[ <unit phrase>]".
func parseStocktakeLine(line string, lineNo int) (model.StocktakeEntry, error) {
	segments := strings.Split(line, ",")
	if len(segments) < 2 {
		return model.StocktakeEntry{}, fmt.Errorf("expected: <item name>, <counted quantity>")
	}

	// The last segment must be the count; everything before it is the name.
	last := strings.TrimSpace(segments[len(segments)-1])
	fields := strings.Fields(last)
	if len(fields) == 0 {
		return model.StocktakeEntry{}, fmt.Errorf("missing counted quantity")
	}
	qty, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return model.StocktakeEntry{}, fmt.Errorf("counted quantity %q is not a number", fields[0])
	}

	name := strings.TrimSpace(strings.Join(segments[:len(segments)-1], ","))
	if name == "" {
		return model.StocktakeEntry{}, fmt.Errorf("missing item name")
	}

	return model.StocktakeEntry{
		ItemName:   name,
		CountedQty: qty,
		UnitPhrase: strings.TrimSpace(strings.Join(fields[1:], " ")),
		LineNumber: lineNo,
	}, nil
}

func stocktakeError(line int, raw, msg string) *apperrors.BatchError {
	err := apperrors.New(apperrors.CategoryParsing, apperrors.SeverityError, msg)
	err.Suggestion = `Start with "logged by: <names>" then one "<item name>, <quantity>" per line.`
	if line >= 0 {
		err.WithEntry(line, raw)
	} else {
		err.EntryDetails = raw
	}
	return err
}
