package bot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	catalogservice "sitestock-backend/internal/domains/catalog/service"
	"sitestock-backend/internal/infrastructure/telegram"
)

const stockPageSize = 5

// handleStock runs a fuzzy catalogue search and replies with one page of
// results plus pagination buttons.
func (b *Bot) handleStock(ctx context.Context, chatID int64, query string, page int) {
	query = strings.TrimSpace(query)
	if query == "" {
		b.reply(ctx, chatID, telegram.Reply{Text: "Usage: stock <item name>"})
		return
	}

	results, err := b.catalog.Search(ctx, query)
	if err != nil {
		b.reply(ctx, chatID, telegram.Reply{
			Text: "The stock database did not respond. Wait a moment and try again.",
		})
		return
	}
	if len(results) == 0 {
		b.reply(ctx, chatID, telegram.Reply{Text: fmt.Sprintf("No items matching %q.", query)})
		return
	}

	qhash := queryHash(query)
	b.mu.Lock()
	b.searches[qhash] = query
	b.mu.Unlock()

	b.reply(ctx, chatID, stockPageReply(query, qhash, results, page))
}

// lookupSearch resolves a pagination hash back to its query.
func (b *Bot) lookupSearch(qhash string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.searches[qhash]
	return q, ok
}

func queryHash(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:])[:8]
}

// stockPageReply renders one result page with item buttons and prev/next.
func stockPageReply(query, qhash string, results []catalogservice.SearchResult, page int) telegram.Reply {
	totalPages := (len(results) + stockPageSize - 1) / stockPageSize
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	start := page * stockPageSize
	end := start + stockPageSize
	if end > len(results) {
		end = len(results)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Stock matching %q (%d found, page %d/%d):\n",
		query, len(results), page+1, totalPages)

	var rows [][]telegram.InlineKeyboardButton
	for i := start; i < end; i++ {
		r := results[i]
		fmt.Fprintf(&sb, "\n%d. %s: %.4g %s on hand", i+1, r.Item.Name, r.Item.OnHand, r.Item.UnitType)
		if r.Item.Location != "" {
			fmt.Fprintf(&sb, " at %s", r.Item.Location)
		}
		rows = append(rows, telegram.Row(telegram.Btn(
			r.Item.Name,
			fmt.Sprintf("stock_item_%d_%s", i, slugify(r.Item.Name)),
		)))
	}

	var nav []telegram.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, telegram.Btn("Prev", fmt.Sprintf("stock_page_prev_%s_%d", qhash, page)))
	}
	if page < totalPages-1 {
		nav = append(nav, telegram.Btn("Next", fmt.Sprintf("stock_page_next_%s_%d", qhash, page)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	return telegram.Reply{Text: sb.String(), Buttons: rows}
}

// slugify keeps callback tokens short and data-safe.
func slugify(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteByte('-')
		}
		if sb.Len() >= 24 {
			break
		}
	}
	return strings.Trim(sb.String(), "-")
}
