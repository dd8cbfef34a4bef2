package engine

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"workboard/internal/config"
	"workboard/internal/dates"
	"workboard/internal/domain"
	"workboard/internal/events"
	"workboard/internal/repo"
	"workboard/internal/status"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// CreateOptions are parameters for creating a work item.
type CreateOptions struct {
	Kind        string
	Title       string
	Description string
	Priority    string
	Unit        string
	CreatorID   string
	CreatorName string
	StartAt     string
	DueAt       string
	AssigneeIDs []string
	Tags        []string
	Visibility  bool
	ActorID     string
}

const titleMinLen = 4

func (e Engine) validateCreate(opts *CreateOptions) error {
	if opts.Kind == "" {
		opts.Kind = "request"
	}
	if opts.Kind != "request" && opts.Kind != "task" {
		return ValidationError{Field: "kind", Msg: "must be request or task"}
	}
	if len(strings.TrimSpace(opts.Title)) < titleMinLen {
		return ValidationError{Field: "title", Msg: "must be at least 4 characters"}
	}
	if strings.TrimSpace(opts.Unit) == "" {
		return ValidationError{Field: "unit", Msg: "is required"}
	}
	if opts.Priority == "" {
		opts.Priority = e.Config.DefaultPriority(opts.Kind)
	}
	if !status.ValidPriority(opts.Priority) {
		return ValidationError{Field: "priority", Msg: "unknown priority " + opts.Priority}
	}
	if strings.TrimSpace(opts.CreatorID) == "" {
		return ValidationError{Field: "creator_id", Msg: "is required"}
	}
	if opts.DueAt == "" {
		return ValidationError{Field: "due_at", Msg: "is required"}
	}
	if !dates.Valid(opts.DueAt) {
		return ValidationError{Field: "due_at", Msg: "must be YYYY-MM-DD"}
	}
	if opts.StartAt != "" {
		if !dates.Valid(opts.StartAt) {
			return ValidationError{Field: "start_at", Msg: "must be YYYY-MM-DD"}
		}
		if opts.DueAt < opts.StartAt {
			return ValidationError{Field: "due_at", Msg: "must not be before start_at"}
		}
	}
	if len(opts.AssigneeIDs) == 0 {
		return ValidationError{Field: "assignee_ids", Msg: "at least one assignee is required"}
	}
	if opts.Kind == "task" && len(opts.AssigneeIDs) != 1 {
		return ValidationError{Field: "assignee_ids", Msg: "task takes exactly one target"}
	}
	for _, id := range opts.AssigneeIDs {
		if strings.TrimSpace(id) == "" {
			return ValidationError{Field: "assignee_ids", Msg: "contains an empty id"}
		}
	}
	return nil
}

// CreateWorkItem validates, inserts the item row, then inserts one assignee
// link per id. The two steps are a compensating sequence, not a transaction:
// on an assignee insert failure the item row is deleted best-effort and the
// original failure surfaces. A crash between the failed insert and the
// compensating delete can leave an orphan row; that window is accepted.
func (e Engine) CreateWorkItem(ctx context.Context, opts CreateOptions) (domain.WorkItem, error) {
	if err := e.validateCreate(&opts); err != nil {
		return domain.WorkItem{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	it := domain.WorkItem{
		ID:          uuid.New().String(),
		Kind:        opts.Kind,
		Title:       strings.TrimSpace(opts.Title),
		Description: opts.Description,
		Priority:    opts.Priority,
		Status:      string(status.Pending),
		Unit:        opts.Unit,
		CreatorID:   opts.CreatorID,
		CreatorName: opts.CreatorName,
		CreatedAt:   now,
		DueAt:       opts.DueAt,
		Tags:        opts.Tags,
		Visibility:  opts.Visibility,
	}
	if opts.StartAt != "" {
		it.StartAt = &opts.StartAt
	}
	if err := e.Repo.InsertWorkItem(ctx, it); err != nil {
		return domain.WorkItem{}, err
	}
	for _, userID := range opts.AssigneeIDs {
		if err := e.Repo.InsertAssignee(ctx, domain.AssignmentLink{WorkItemID: it.ID, UserID: userID}); err != nil {
			return domain.WorkItem{}, e.compensate(ctx, it.ID, err)
		}
	}
	it.Assignees = opts.AssigneeIDs
	actor := opts.ActorID
	if actor == "" {
		actor = opts.CreatorID
	}
	_ = e.Events.Append(ctx, "item.created", it.ID, actor, events.EventPayload{
		"kind": it.Kind, "unit": it.Unit, "status": it.Status,
	})
	return it, nil
}

func (e Engine) compensate(ctx context.Context, itemID string, cause error) error {
	pf := PartialFailureError{Err: cause}
	if err := e.Repo.DeleteAssignees(ctx, itemID); err != nil {
		pf.CompensateErr = err
		return pf
	}
	if err := e.Repo.DeleteWorkItem(ctx, itemID); err != nil {
		pf.CompensateErr = err
		return pf
	}
	pf.Compensated = true
	return pf
}

// ApplyStatus normalizes the requested status and applies the lifecycle
// stamps: started_at is first-write-wins on entering in_progress, closed_at
// is overwritten on every entry into testing or done. No transition matrix;
// any state may follow any state.
func (e Engine) ApplyStatus(ctx context.Context, itemID, rawStatus, actorID string) (domain.WorkItem, error) {
	if strings.TrimSpace(rawStatus) == "" {
		return domain.WorkItem{}, ValidationError{Field: "status", Msg: "is required"}
	}
	it, err := e.Repo.GetWorkItem(ctx, itemID)
	if err != nil {
		return it, err
	}
	key := status.NormalizeWith(rawStatus, e.Config.StatusAliases())
	prev := it.Status
	it.Status = string(key)
	now := e.now().UTC().Format(time.RFC3339)
	if key == status.InProgress && it.StartedAt == nil {
		it.StartedAt = &now
	}
	if key.IsCompletionAdjacent() {
		it.ClosedAt = &now
	}
	if err := e.Repo.UpdateWorkItemStatus(ctx, it); err != nil {
		return it, err
	}
	_ = e.Events.Append(ctx, "item.status", it.ID, actorID, events.EventPayload{
		"from": prev, "to": it.Status,
	})
	return it, nil
}
