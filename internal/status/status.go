package status

import "strings"

// Key is a canonical status. Raw status text is free-form display copy and is
// never branched on directly; everything funnels through Normalize.
type Key string

const (
	Open        Key = "open" // fallback for unrecognized text
	Pending     Key = "pending"
	Queued      Key = "queued"
	UnderReview Key = "under_review"
	InProgress  Key = "in_progress"
	Testing     Key = "testing"
	Done        Key = "done"
	Rejected    Key = "rejected"
	Cancelled   Key = "cancelled"
)

// All lists canonical keys in lifecycle order, fallback excluded.
var All = []Key{Pending, Queued, UnderReview, InProgress, Testing, Done, Rejected, Cancelled}

// builtinAliases maps folded display strings to canonical keys. Covers the
// English keys themselves plus the Turkish display labels the tracker ships
// with; deployments add more via config (see NormalizeWith).
var builtinAliases = map[string]Key{
	"open":          Open,
	"acik":          Open,
	"pending":       Pending,
	"beklemede":     Pending,
	"bekliyor":      Pending,
	"queued":        Queued,
	"sirada":        Queued,
	"kuyrukta":      Queued,
	"under_review":  UnderReview,
	"under review":  UnderReview,
	"incelemede":    UnderReview,
	"inceleniyor":   UnderReview,
	"in_progress":   InProgress,
	"in progress":   InProgress,
	"devam ediyor":  InProgress,
	"islemde":       InProgress,
	"testing":       Testing,
	"testte":        Testing,
	"test ediliyor": Testing,
	"done":          Done,
	"completed":     Done,
	"tamamlandi":    Done,
	"bitti":         Done,
	"rejected":      Rejected,
	"reddedildi":    Rejected,
	"cancelled":     Cancelled,
	"canceled":      Cancelled,
	"iptal":         Cancelled,
	"iptal edildi":  Cancelled,
}

var diacritics = strings.NewReplacer(
	"ı", "i", "İ", "i", "I", "i",
	"ş", "s", "Ş", "s",
	"ğ", "g", "Ğ", "g",
	"ü", "u", "Ü", "u",
	"ö", "o", "Ö", "o",
	"ç", "c", "Ç", "c",
)

// Fold lowercases and strips Turkish diacritics so lookups tolerate the
// display strings the store actually contains.
func Fold(raw string) string {
	return strings.ToLower(strings.TrimSpace(diacritics.Replace(raw)))
}

// Normalize maps arbitrary status text to a canonical key. Unrecognized text
// maps to Open, never to an error.
func Normalize(raw string) Key {
	if k, ok := builtinAliases[Fold(raw)]; ok {
		return k
	}
	return Open
}

// NormalizeWith consults deployment aliases before the built-in table.
func NormalizeWith(raw string, aliases map[string]Key) Key {
	folded := Fold(raw)
	if k, ok := aliases[folded]; ok {
		return k
	}
	if k, ok := builtinAliases[folded]; ok {
		return k
	}
	return Open
}

// IsTerminal reports whether a key never counts toward overdue.
func (k Key) IsTerminal() bool {
	return k == Done || k == Cancelled
}

// IsCompletionAdjacent reports whether entering the state stamps closed_at.
func (k Key) IsCompletionAdjacent() bool {
	return k == Testing || k == Done
}

const (
	unknownStatusWeight   = 99
	unknownPriorityWeight = 9
)

// statusWeights follow the lifecycle, terminal states after active ones.
// Open is the unknown fallback and sorts last.
var statusWeights = map[Key]int{
	Pending:     1,
	Queued:      2,
	UnderReview: 3,
	InProgress:  4,
	Testing:     5,
	Done:        6,
	Rejected:    7,
	Cancelled:   8,
}

var priorityWeights = map[string]int{
	"critical": 1,
	"high":     2,
	"normal":   3,
	"low":      4,
	"routine":  5,
}

// Weight returns the sort weight of a raw status (smaller sorts earlier).
func Weight(raw string) int {
	if w, ok := statusWeights[Normalize(raw)]; ok {
		return w
	}
	return unknownStatusWeight
}

// PriorityWeight returns the sort weight of a priority value.
func PriorityWeight(priority string) int {
	if w, ok := priorityWeights[strings.ToLower(strings.TrimSpace(priority))]; ok {
		return w
	}
	return unknownPriorityWeight
}

// ValidPriority reports whether the value is in the closed priority set.
func ValidPriority(priority string) bool {
	_, ok := priorityWeights[priority]
	return ok
}
