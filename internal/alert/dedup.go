// Dedup key construction (SPEC_FULL.md §4.10), adapted from
// alert-service/internal/dedup.Deduplicator.generateDedupKey's
// sha256-of-sorted-fields technique. Here it produces a deterministic
// details_json fingerprint logged alongside each SentAlert row rather than
// a Redis key — the cooldown ledger itself is the sent_alerts table
// (spec.md §3), not Redis.
package alert

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/avery-hale/sharpline/pkg/models"
)

// Fingerprint returns a short deterministic hash identifying a signal's
// alert identity. It is stored in the details_json of both ledger rows; no
// command reads it back.
func Fingerprint(sig models.Signal) string {
	books := valueBooksOf(sig)
	sort.Strings(books)

	parts := strings.Join([]string{
		sig.EventID, string(sig.Type), sig.MarketKey, sig.OutcomeName,
		strings.Join(books, ","),
	}, "|")

	hash := sha256.Sum256([]byte(parts))
	return fmt.Sprintf("%x", hash[:8])
}

func valueBooksOf(sig models.Signal) []string {
	switch {
	case sig.SteamMove != nil:
		return append([]string{}, sig.SteamMove.ValueBooks...)
	case sig.RapidChange != nil:
		return append([]string{}, sig.RapidChange.ValueBooks...)
	case sig.ExchangeShift != nil:
		return append([]string{}, sig.ExchangeShift.ValueBooks...)
	default:
		return nil
	}
}
