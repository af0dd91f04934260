package bot

import (
	"fmt"
	"strings"

	"sitestock-backend/internal/domains/approval"
	catalogmodel "sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/domains/duplicate"
	"sitestock-backend/internal/domains/movement/model"
	movementservice "sitestock-backend/internal/domains/movement/service"
	"sitestock-backend/internal/infrastructure/telegram"
	"sitestock-backend/internal/shared/apperrors"
)

// maxListedEntries caps how many successes/failures a summary spells out.
const maxListedEntries = 5

// shortID keeps batch ids readable in chat.
func shortID(batchID string) string {
	if len(batchID) > 8 {
		return batchID[:8]
	}
	return batchID
}

// parseErrorReply lists every collected parse error with its suggestion.
func parseErrorReply(batch *model.ParsedBatch) telegram.Reply {
	var sb strings.Builder
	sb.WriteString("Could not process the command:\n")
	writeErrors(&sb, batch.Errors)
	return telegram.Reply{Text: sb.String()}
}

func writeErrors(sb *strings.Builder, errs []*apperrors.BatchError) {
	shown := errs
	if len(shown) > maxListedEntries {
		shown = shown[:maxListedEntries]
	}
	for _, e := range shown {
		if e.EntryIndex >= 0 {
			fmt.Fprintf(sb, "\nEntry %d: %s", e.EntryIndex+1, e.Message)
		} else {
			fmt.Fprintf(sb, "\n%s", e.Message)
		}
		if e.EntryDetails != "" {
			fmt.Fprintf(sb, "\n  > %s", e.EntryDetails)
		}
		if e.Suggestion != "" {
			fmt.Fprintf(sb, "\n  %s", e.Suggestion)
		}
	}
	if len(errs) > maxListedEntries {
		fmt.Fprintf(sb, "\n...and %d more errors.", len(errs)-maxListedEntries)
	}
}

// stagedReply prompts admins to approve or reject a staged batch.
func stagedReply(batchID string, movements []model.StockMovement, before map[string]float64, warnings []string) telegram.Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch %s staged: %d %s entr%s awaiting approval.\n",
		shortID(batchID), len(movements), strings.ToLower(string(movements[0].Type)),
		plural(len(movements), "y", "ies"))

	shown := movements
	if len(shown) > maxListedEntries {
		shown = shown[:maxListedEntries]
	}
	for _, mv := range shown {
		fmt.Fprintf(&sb, "\n- %s: %.4g %s (now %.4g)", mv.ItemName, mv.Quantity, mv.Unit, before[mv.ItemName])
	}
	if len(movements) > maxListedEntries {
		fmt.Fprintf(&sb, "\n...and %d more.", len(movements)-maxListedEntries)
	}

	writeWarnings(&sb, warnings)

	return telegram.Reply{
		Text: sb.String(),
		Buttons: [][]telegram.InlineKeyboardButton{
			telegram.Row(
				telegram.Btn("Approve", "approvebatch:"+batchID),
				telegram.Btn("Reject", "rejectbatch:"+batchID),
			),
		},
	}
}

func writeWarnings(sb *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	sb.WriteString("\n\nWarnings:")
	shown := warnings
	if len(shown) > maxListedEntries {
		shown = shown[:maxListedEntries]
	}
	for _, w := range shown {
		fmt.Fprintf(sb, "\n- %s", w)
	}
	if len(warnings) > maxListedEntries {
		fmt.Fprintf(sb, "\n...and %d more.", len(warnings)-maxListedEntries)
	}
}

// resultReply is the user-facing batch outcome: totals, success rate,
// before/after levels and rollback state.
func resultReply(r *model.BatchResult) telegram.Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch %s: %d total, %d posted, %d failed (%.0f%%).\n",
		shortID(r.BatchID), r.Total, len(r.Successful), len(r.Failed), r.SuccessRate())

	shown := r.Successful
	if len(shown) > maxListedEntries {
		shown = shown[:maxListedEntries]
	}
	for _, mv := range shown {
		fmt.Fprintf(&sb, "\n- %s: %.4g -> %.4g",
			mv.ItemName, r.BeforeLevels[mv.ItemName], r.AfterLevels[mv.ItemName])
	}
	if len(r.Successful) > maxListedEntries {
		fmt.Fprintf(&sb, "\n...and %d more.", len(r.Successful)-maxListedEntries)
	}

	if len(r.Failed) > 0 {
		sb.WriteString("\n\nFailures:")
		writeErrors(&sb, r.Failed)
	}
	if r.RolledBack {
		if r.RollbackFailed {
			sb.WriteString("\n\nRollback INCOMPLETE. Check stock levels manually before re-submitting.")
		} else {
			sb.WriteString("\n\nThe batch was rolled back after a critical failure. Stock is unchanged.")
		}
	}
	if len(r.LowStock) > 0 {
		fmt.Fprintf(&sb, "\n\nLow stock: %s", strings.Join(r.LowStock, ", "))
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "\n\n%s", strings.Join(r.Warnings, "\n"))
	}

	return telegram.Reply{Text: sb.String()}
}

// duplicatePrompt asks the user to resolve possible duplicates one by one.
func duplicatePrompt(matches []duplicate.Match) telegram.Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d entr%s look%s like existing stock:\n",
		len(matches), plural(len(matches), "y", "ies"), plural(len(matches), "s", ""))

	var rows [][]telegram.InlineKeyboardButton
	for i, m := range matches {
		fmt.Fprintf(&sb, "\n%d. %q vs existing %q (%.0f%% match, %.4g %s on hand)",
			i+1, m.Candidate.ItemName, m.Existing.Name, m.Score*100,
			m.Existing.OnHand, m.Existing.UnitType)
		if m.Shortfall > 0 {
			fmt.Fprintf(&sb, " SHORT %.4g", m.Shortfall)
		}
		rows = append(rows, telegram.Row(
			telegram.Btn(fmt.Sprintf("Merge %d", i+1), fmt.Sprintf("confirm_individual_%d", i)),
			telegram.Btn(fmt.Sprintf("Skip %d", i+1), fmt.Sprintf("cancel_individual_%d", i)),
		))
	}
	sb.WriteString("\n\nMerge adds the quantity onto the existing item; skip drops the entry.")

	rows = append(rows, telegram.Row(
		telegram.Btn("Merge all", "confirm_all_duplicates"),
		telegram.Btn("Skip all", "cancel_all_duplicates"),
	))
	rows = append(rows, telegram.Row(telegram.Btn("Show details", "show_all_duplicates")))

	return telegram.Reply{Text: sb.String(), Buttons: rows}
}

// duplicateListReply shows the full pending dialogue state.
func duplicateListReply(pending *approval.PendingDuplicates) telegram.Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pending duplicates for this chat (%d):\n", len(pending.Duplicates))
	for i, m := range pending.Duplicates {
		state := "undecided"
		if action, ok := pending.Confirmed[i]; ok {
			state = string(action)
		} else if pending.Cancelled[i] {
			state = "cancelled"
		}
		fmt.Fprintf(&sb, "\n%d. %q vs %q (%s, score %.2f) [%s]",
			i+1, m.Candidate.ItemName, m.Existing.Name, m.Kind, m.Score, state)
	}
	return telegram.Reply{Text: sb.String()}
}

// previewReply reports the duplicate analysis without staging.
func previewReply(batch *model.ParsedBatch, analysis *duplicate.Analysis) telegram.Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Preview: %d %s entr%s parsed.\n",
		len(batch.Movements), strings.ToLower(string(batch.Type)),
		plural(len(batch.Movements), "y", "ies"))

	if len(analysis.Matches) == 0 {
		sb.WriteString("\nNo matches against the catalogue, all entries would create new items.")
	}
	for _, m := range analysis.Matches {
		fmt.Fprintf(&sb, "\n- %q -> %q: %s (%.0f%%)",
			m.Candidate.ItemName, m.Existing.Name, m.Kind, m.Score*100)
		if m.Shortfall > 0 {
			fmt.Fprintf(&sb, ", short %.4g", m.Shortfall)
		}
	}
	if len(analysis.NewItems) > 0 {
		fmt.Fprintf(&sb, "\n%d entr%s would create new items.",
			len(analysis.NewItems), plural(len(analysis.NewItems), "y", "ies"))
	}
	writeWarnings(&sb, append(append([]string{}, batch.Warnings...), analysis.Warnings...))
	sb.WriteString("\n\nNothing was staged or written.")
	return telegram.Reply{Text: sb.String()}
}

// stocktakeReply reports an applied stocktake.
func stocktakeReply(parsed *model.ParsedStocktake, result *movementservice.StocktakeResult) telegram.Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Stocktake %s applied: %s.\n", shortID(result.BatchID), result.Summary)

	shown := result.Applied
	if len(shown) > maxListedEntries {
		shown = shown[:maxListedEntries]
	}
	for _, st := range shown {
		fmt.Fprintf(&sb, "\n- %s: %.4g + %.4g counted = %.4g",
			st.ItemName, st.PreviousOnHand, st.CountedQty, st.NewOnHand)
	}
	if len(result.Applied) > maxListedEntries {
		fmt.Fprintf(&sb, "\n...and %d more.", len(result.Applied)-maxListedEntries)
	}

	if len(result.Failed) > 0 {
		sb.WriteString("\n\nFailures:")
		writeErrors(&sb, result.Failed)
	}
	writeWarnings(&sb, parsed.Warnings)
	return telegram.Reply{Text: sb.String()}
}

// stocktakeErrorReply lists stocktake parse errors.
func stocktakeErrorReply(parsed *model.ParsedStocktake) telegram.Reply {
	var sb strings.Builder
	sb.WriteString("Could not process the stocktake:\n")
	writeErrors(&sb, parsed.Errors)
	return telegram.Reply{Text: sb.String()}
}

// stocktakeValidateText summarizes a dry-run parse.
func stocktakeValidateText(parsed *model.ParsedStocktake) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Stocktake parses cleanly: %d item%s, logged by %s, date %s.",
		len(parsed.Entries), plural(len(parsed.Entries), "", "s"),
		strings.Join(parsed.LoggedBy, ", "), parsed.Date)
	if parsed.Category != "" {
		fmt.Fprintf(&sb, " Category: %s.", parsed.Category)
	}
	if parsed.CommentLines > 0 || parsed.BlankLines > 0 {
		fmt.Fprintf(&sb, " (%d comment, %d blank lines ignored.)",
			parsed.CommentLines, parsed.BlankLines)
	}
	sb.WriteString(" Nothing was written.")
	return sb.String()
}

// itemDetailReply is the detail card for one catalogue item.
func itemDetailReply(item *catalogmodel.Item) telegram.Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", item.Name)
	fmt.Fprintf(&sb, "\nOn hand: %.4g %s", item.OnHand, item.UnitType)
	fmt.Fprintf(&sb, "\nUnit: %.4g %s", item.UnitSize, item.UnitType)
	fmt.Fprintf(&sb, "\nCategory: %s", item.Category)
	if item.Location != "" {
		fmt.Fprintf(&sb, "\nLocation: %s", item.Location)
	}
	if item.Project != "" {
		fmt.Fprintf(&sb, "\nProjects: %s", item.Project)
	}
	if item.NeedsReorder() {
		fmt.Fprintf(&sb, "\n\nLOW STOCK: at or under the reorder threshold of %.4g.", item.ReorderThreshold)
	}
	if item.LastStocktakeDate != nil {
		fmt.Fprintf(&sb, "\nLast counted %s by %s.",
			item.LastStocktakeDate.Format("2006-01-02"), item.LastStocktakeBy)
	}
	return telegram.Reply{Text: sb.String()}
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
