package status_test

import (
	"testing"

	"workboard/internal/status"
)

func TestNormalizeBuiltins(t *testing.T) {
	cases := map[string]status.Key{
		"pending":       status.Pending,
		"Beklemede":     status.Pending,
		"  bekliyor  ":  status.Pending,
		"sırada":        status.Queued,
		"İncelemede":    status.UnderReview,
		"in_progress":   status.InProgress,
		"Devam Ediyor":  status.InProgress,
		"işlemde":       status.InProgress,
		"testte":        status.Testing,
		"TAMAMLANDI":    status.Done,
		"completed":     status.Done,
		"reddedildi":    status.Rejected,
		"İptal Edildi":  status.Cancelled,
		"canceled":      status.Cancelled,
		"":              status.Open,
		"garbage label": status.Open,
		"açık":          status.Open,
	}
	for raw, want := range cases {
		if got := status.Normalize(raw); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeWithAliasesWinOverBuiltins(t *testing.T) {
	aliases := map[string]status.Key{
		"beklemede": status.Queued,
		"blocked":   status.Pending,
	}
	if got := status.NormalizeWith("Beklemede", aliases); got != status.Queued {
		t.Errorf("alias should shadow builtin, got %q", got)
	}
	if got := status.NormalizeWith("blocked", aliases); got != status.Pending {
		t.Errorf("custom alias: got %q", got)
	}
	if got := status.NormalizeWith("testte", aliases); got != status.Testing {
		t.Errorf("builtin fallback: got %q", got)
	}
	if got := status.NormalizeWith("nonsense", aliases); got != status.Open {
		t.Errorf("unknown fallback: got %q", got)
	}
}

func TestTerminalAndCompletionAdjacent(t *testing.T) {
	if !status.Done.IsTerminal() || !status.Cancelled.IsTerminal() {
		t.Error("done and cancelled are terminal")
	}
	if status.Rejected.IsTerminal() || status.Testing.IsTerminal() {
		t.Error("rejected and testing are not terminal")
	}
	if !status.Testing.IsCompletionAdjacent() || !status.Done.IsCompletionAdjacent() {
		t.Error("testing and done stamp closed_at")
	}
	if status.Cancelled.IsCompletionAdjacent() {
		t.Error("cancelled does not stamp closed_at")
	}
}

func TestWeights(t *testing.T) {
	if status.Weight("beklemede") >= status.Weight("tamamlandı") {
		t.Error("pending sorts before done")
	}
	if status.Weight("no such status") != 99 {
		t.Errorf("unknown status weight = %d, want 99", status.Weight("no such status"))
	}
	if status.PriorityWeight("critical") >= status.PriorityWeight("routine") {
		t.Error("critical sorts before routine")
	}
	if status.PriorityWeight("") != 9 {
		t.Errorf("unknown priority weight = %d, want 9", status.PriorityWeight(""))
	}
}
