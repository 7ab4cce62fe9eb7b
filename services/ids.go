package services

import (
	"github.com/google/uuid"
)

// Namespaces for deterministic ids. Replayed or concurrent invocations derive
// the same id from the same inputs, which is what lets the store's
// create-if-absent writes resolve every race.
var (
	matchIDNamespace = uuid.MustParse("7f1a2c7e-9b44-4c83-8a41-5b0d9f3f6a01")
	jobIDNamespace   = uuid.MustParse("c2e0d9a8-31f5-47b2-9d67-4ae8b1c5d902")
)

// SortPair orders two user ids so both sides of a pair compute the same key.
func SortPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// MatchIDFor returns the match id for an unordered user pair. At most one
// Match can ever exist per pair because this id is its storage key.
func MatchIDFor(a, b string) string {
	lo, hi := SortPair(a, b)
	return uuid.NewSHA1(matchIDNamespace, []byte(lo+"|"+hi)).String()
}

// JobIDFor returns the notification job id for a triggering event and one
// recipient, so a redelivered trigger converges on the already-written job.
func JobIDFor(eventID, recipient string) string {
	return uuid.NewSHA1(jobIDNamespace, []byte(eventID+"|"+recipient)).String()
}
