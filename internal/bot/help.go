package bot

import (
	"strings"

	"sitestock-backend/internal/infrastructure/telegram"
)

// helpTopics holds the per-command help text keyed by topic.
var helpTopics = map[string]string{
	"in": `Record deliveries:
in project: Bridge A, cement 50kg, 10 bags

Several entries, one per line or separated by ';'. New items are created automatically. The batch waits for admin approval.`,

	"out": `Record outgoing stock:
out project: Tower B
sand, 5 bags
steel bar 12mm, 20 pieces

Outflows need admin approval and enough stock on hand. Destination defaults to "external", override with "to: <place>".`,

	"adjust": `Admin-only corrections with signed quantities:
adjust project: Depot, cement 50kg, -5

Positive adds, negative removes.`,

	"batch": `Split one submission into deliveries:
in
-batch 1-
project: mzuzu, driver: Dani
Cement 50kg, 10 bags
-batch 2-
project: lilongwe, driver: John
Cable 2.5sqmm, 100 m

Each segment carries its own project/driver/from/to.`,

	"inventory": `Cumulative stock count:
inventory logged by: An, Binh, date: 15/03/25
cement 50kg, 15
paint 20ltrs, 4

Counted quantities are ADDED to on-hand. Use "inventory validate ..." to dry-run without writing. Lines starting with # are ignored.`,

	"stock": `Search the catalogue:
stock cement

Fuzzy matching finds items despite typos and word order.`,

	"preview": `Check duplicates without writing:
preview in project: X, cement 50kg, 10 bags`,

	"approve": `Admin: approve or reject a staged batch by id, or use the buttons on the staging message:
approve 1a2b3c4d
reject 1a2b3c4d`,

	"export": `Admin: build the stock workbook (items plus last month of movements) and get a download link.`,
}

// helpReply returns topic help, or the overview when the topic is unknown.
func helpReply(topic string) telegram.Reply {
	if text, ok := helpTopics[strings.ToLower(topic)]; ok {
		return telegram.Reply{Text: text}
	}

	return telegram.Reply{Text: `Commands:
in / out / adjust - record stock movements (staged for approval)
inventory - cumulative stock count
inventory validate - dry-run a count
stock <query> - search the catalogue
preview in|out - duplicate analysis only
approve / reject <batch_id> - admin actions
export - stock workbook (admin)

Send "help <command>" for details and examples, e.g. "help in" or "help batch".`}
}
