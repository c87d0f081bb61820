package syncer

import "github.com/Edura-Academy/edura-sub002/internal/models"

// View is a client's local, merged picture of one conversation: the ordered
// message list and the cursor of the last batch merged into it.
type View struct {
	Messages []models.Message
	Cursor   int64
}

// Merge folds a since-cursor batch into the local view and returns the new
// view. It never mutates its inputs.
//
// Messages whose id is already present locally are skipped, so replaying a
// batch (an at-least-once retry, a poll result arriving after cancellation)
// changes nothing. Remaining messages are appended in the order received;
// the server guarantees batches are oldest-first in append order and no
// client-side reordering is ever applied.
//
// The cursor advances to the last message of the fetched batch, not the
// last message of the merged list. A message appended between fetch and
// merge of a concurrent writer has a seq past the batch, and anchoring the
// cursor to the batch guarantees the next poll picks it up.
func Merge(local View, batch []models.Message) View {
	if len(batch) == 0 {
		return local
	}

	seen := make(map[string]struct{}, len(local.Messages))
	for _, m := range local.Messages {
		seen[m.ID] = struct{}{}
	}

	merged := make([]models.Message, len(local.Messages), len(local.Messages)+len(batch))
	copy(merged, local.Messages)
	for _, m := range batch {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}

	cursor := batch[len(batch)-1].Seq
	if cursor < local.Cursor {
		cursor = local.Cursor
	}
	return View{Messages: merged, Cursor: cursor}
}
