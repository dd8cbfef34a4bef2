package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"workboard/internal/config"
	"workboard/internal/db"
	"workboard/internal/engine"
	"workboard/internal/migrate"
	"workboard/internal/status"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default())
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func createOpts() engine.CreateOptions {
	return engine.CreateOptions{
		Kind:        "request",
		Title:       "Printer is down",
		Unit:        "it-support",
		CreatorID:   "u-1",
		CreatorName: "Tester",
		DueAt:       "2024-01-15",
		AssigneeIDs: []string{"a-1", "a-2"},
		ActorID:     "u-1",
	}
}

func TestCreateWorkItem(t *testing.T) {
	env := newTestEnv(t)
	it, err := env.Engine.CreateWorkItem(env.Ctx, createOpts())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if it.ID == "" {
		t.Fatal("expected generated id")
	}
	if it.Status != "pending" {
		t.Errorf("status = %q, want pending", it.Status)
	}
	if it.Priority != "normal" {
		t.Errorf("priority = %q, want request default normal", it.Priority)
	}
	got, err := env.Engine.Repo.GetWorkItem(env.Ctx, it.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Assignees) != 2 {
		t.Errorf("assignees = %v, want 2", got.Assignees)
	}
	if got.CreatedAt != "2024-01-01T10:00:00Z" {
		t.Errorf("created_at = %q", got.CreatedAt)
	}
}

func TestCreateTaskDefaultsAndArity(t *testing.T) {
	env := newTestEnv(t)
	opts := createOpts()
	opts.Kind = "task"
	opts.AssigneeIDs = []string{"a-1"}
	it, err := env.Engine.CreateWorkItem(env.Ctx, opts)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if it.Priority != "routine" {
		t.Errorf("priority = %q, want task default routine", it.Priority)
	}
	opts.AssigneeIDs = []string{"a-1", "a-2"}
	_, err = env.Engine.CreateWorkItem(env.Ctx, opts)
	var ve engine.ValidationError
	if !errors.As(err, &ve) || ve.Field != "assignee_ids" {
		t.Fatalf("expected assignee arity error, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		field  string
		mutate func(*engine.CreateOptions)
	}{
		{"title", func(o *engine.CreateOptions) { o.Title = "abc" }},
		{"unit", func(o *engine.CreateOptions) { o.Unit = " " }},
		{"kind", func(o *engine.CreateOptions) { o.Kind = "epic" }},
		{"priority", func(o *engine.CreateOptions) { o.Priority = "urgent" }},
		{"creator_id", func(o *engine.CreateOptions) { o.CreatorID = "" }},
		{"due_at", func(o *engine.CreateOptions) { o.DueAt = "" }},
		{"due_at", func(o *engine.CreateOptions) { o.DueAt = "15.01.2024" }},
		{"due_at", func(o *engine.CreateOptions) { o.StartAt = "2024-01-20"; o.DueAt = "2024-01-10" }},
		{"assignee_ids", func(o *engine.CreateOptions) { o.AssigneeIDs = nil }},
		{"assignee_ids", func(o *engine.CreateOptions) { o.AssigneeIDs = []string{"a-1", " "} }},
	}
	for _, tc := range cases {
		opts := createOpts()
		tc.mutate(&opts)
		_, err := env.Engine.CreateWorkItem(env.Ctx, opts)
		var ve engine.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected validation error, got %v", tc.field, err)
		}
		if ve.Field != tc.field {
			t.Errorf("field = %q, want %q", ve.Field, tc.field)
		}
	}
}

func TestCreateCompensatesOnAssigneeFailure(t *testing.T) {
	env := newTestEnv(t)
	opts := createOpts()
	// second insert violates the assignment primary key
	opts.AssigneeIDs = []string{"a-1", "a-1"}
	_, err := env.Engine.CreateWorkItem(env.Ctx, opts)
	var pf engine.PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if !pf.Compensated {
		t.Fatalf("expected compensation to succeed: %v", pf.CompensateErr)
	}
	var items, links int
	if err := env.Engine.DB.QueryRow(`SELECT count(*) FROM work_items`).Scan(&items); err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DB.QueryRow(`SELECT count(*) FROM work_item_assignees`).Scan(&links); err != nil {
		t.Fatal(err)
	}
	if items != 0 || links != 0 {
		t.Fatalf("orphan rows survived: items=%d links=%d", items, links)
	}
}

func TestApplyStatusStamps(t *testing.T) {
	env := newTestEnv(t)
	it, err := env.Engine.CreateWorkItem(env.Ctx, createOpts())
	if err != nil {
		t.Fatal(err)
	}

	env.Engine.Now = func() time.Time { return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC) }
	it, err = env.Engine.ApplyStatus(env.Ctx, it.ID, "Devam Ediyor", "u-1")
	if err != nil {
		t.Fatalf("to in_progress: %v", err)
	}
	if it.Status != string(status.InProgress) {
		t.Errorf("status = %q", it.Status)
	}
	if it.StartedAt == nil || *it.StartedAt != "2024-01-02T09:00:00Z" {
		t.Fatalf("started_at = %v", it.StartedAt)
	}

	// leaving and re-entering in_progress must not move the first stamp
	env.Engine.Now = func() time.Time { return time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC) }
	if _, err := env.Engine.ApplyStatus(env.Ctx, it.ID, "beklemede", "u-1"); err != nil {
		t.Fatal(err)
	}
	it, err = env.Engine.ApplyStatus(env.Ctx, it.ID, "in_progress", "u-1")
	if err != nil {
		t.Fatal(err)
	}
	if *it.StartedAt != "2024-01-02T09:00:00Z" {
		t.Errorf("started_at moved to %q", *it.StartedAt)
	}

	// every entry into testing or done re-stamps closed_at
	it, err = env.Engine.ApplyStatus(env.Ctx, it.ID, "testte", "u-1")
	if err != nil {
		t.Fatal(err)
	}
	if it.ClosedAt == nil || *it.ClosedAt != "2024-01-03T09:00:00Z" {
		t.Fatalf("closed_at = %v", it.ClosedAt)
	}
	env.Engine.Now = func() time.Time { return time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC) }
	it, err = env.Engine.ApplyStatus(env.Ctx, it.ID, "tamamlandı", "u-1")
	if err != nil {
		t.Fatal(err)
	}
	if *it.ClosedAt != "2024-01-04T09:00:00Z" {
		t.Errorf("closed_at = %q, want re-stamp", *it.ClosedAt)
	}
}

func TestApplyStatusUnknownFallsBackToOpen(t *testing.T) {
	env := newTestEnv(t)
	it, err := env.Engine.CreateWorkItem(env.Ctx, createOpts())
	if err != nil {
		t.Fatal(err)
	}
	it, err = env.Engine.ApplyStatus(env.Ctx, it.ID, "some legacy label", "u-1")
	if err != nil {
		t.Fatalf("unknown label must not error: %v", err)
	}
	if it.Status != string(status.Open) {
		t.Errorf("status = %q, want open", it.Status)
	}
	if it.StartedAt != nil || it.ClosedAt != nil {
		t.Error("fallback must not stamp lifecycle dates")
	}
}

func TestApplyStatusConfigAlias(t *testing.T) {
	env := newTestEnv(t)
	cfg, err := config.FromYAML([]byte("statuses:\n  aliases:\n    onay bekliyor: under_review\n"))
	if err != nil {
		t.Fatal(err)
	}
	env.Engine.Config = cfg
	it, err := env.Engine.CreateWorkItem(env.Ctx, createOpts())
	if err != nil {
		t.Fatal(err)
	}
	it, err = env.Engine.ApplyStatus(env.Ctx, it.ID, "Onay Bekliyor", "u-1")
	if err != nil {
		t.Fatal(err)
	}
	if it.Status != string(status.UnderReview) {
		t.Errorf("status = %q, want under_review", it.Status)
	}
}

func TestEventsAppendedOnWrites(t *testing.T) {
	env := newTestEnv(t)
	it, err := env.Engine.CreateWorkItem(env.Ctx, createOpts())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ApplyStatus(env.Ctx, it.ID, "done", "u-2"); err != nil {
		t.Fatal(err)
	}
	events, err := env.Engine.Repo.EventsAfter(env.Ctx, 10, 0, it.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want item.created + item.status", len(events))
	}
	if events[0].Type != "item.created" || events[1].Type != "item.status" {
		t.Errorf("types = %q, %q", events[0].Type, events[1].Type)
	}
}
