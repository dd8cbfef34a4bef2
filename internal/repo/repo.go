package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"workboard/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const itemColumns = `id,kind,title,description,priority,status,unit,creator_id,creator_name,created_at,started_at,closed_at,start_at,due_at,visibility,tags_json`

func (r Repo) InsertWorkItem(ctx context.Context, it domain.WorkItem) error {
	tags, err := marshalTags(it.Tags)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO work_items(`+itemColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		it.ID, it.Kind, it.Title, nullable(it.Description), it.Priority, it.Status, it.Unit,
		it.CreatorID, nullable(it.CreatorName), it.CreatedAt, nullableStringPtr(it.StartedAt), nullableStringPtr(it.ClosedAt),
		nullableStringPtr(it.StartAt), it.DueAt, boolInt(it.Visibility), tags)
	return err
}

// DeleteWorkItem removes an item row. Used only as creation compensation;
// the core never deletes settled items.
func (r Repo) DeleteWorkItem(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM work_items WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertAssignee(ctx context.Context, link domain.AssignmentLink) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO work_item_assignees(work_item_id,user_id) VALUES (?,?)`,
		link.WorkItemID, link.UserID)
	return err
}

func (r Repo) DeleteAssignees(ctx context.Context, itemID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM work_item_assignees WHERE work_item_id=?`, itemID)
	return err
}

func (r Repo) ListAssignees(ctx context.Context, itemID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT user_id FROM work_item_assignees WHERE work_item_id=? ORDER BY user_id`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r Repo) GetWorkItem(ctx context.Context, id string) (domain.WorkItem, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM work_items WHERE id=?`, id)
	it, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return it, ErrNotFound
	}
	if err != nil {
		return it, err
	}
	it.Assignees, err = r.ListAssignees(ctx, it.ID)
	return it, err
}

// UpdateWorkItemStatus persists the lifecycle fields touched by a status
// transition, nothing else.
func (r Repo) UpdateWorkItemStatus(ctx context.Context, it domain.WorkItem) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE work_items SET status=?, started_at=?, closed_at=? WHERE id=?`,
		it.Status, nullableStringPtr(it.StartedAt), nullableStringPtr(it.ClosedAt), it.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type ItemFilters struct {
	Unit    string
	OwnerID string // restrict to items the owner is assigned to
	Status  string
	Kind    string
}

// ListWorkItems returns items ordered by due date ascending, creation date
// descending as tie-break.
func (r Repo) ListWorkItems(ctx context.Context, f ItemFilters) ([]domain.WorkItem, error) {
	var clauses []string
	var args []any
	if f.Unit != "" {
		clauses = append(clauses, "unit=?")
		args = append(args, f.Unit)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Kind != "" {
		clauses = append(clauses, "kind=?")
		args = append(args, f.Kind)
	}
	if f.OwnerID != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM work_item_assignees a WHERE a.work_item_id=work_items.id AND a.user_id=?)")
		args = append(args, f.OwnerID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + itemColumns + ` FROM work_items ` + where + ` ORDER BY due_at ASC, created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkItem
	for rows.Next() {
		it, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		res[i].Assignees, err = r.ListAssignees(ctx, res[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r Repo) CountItemsByStatus(ctx context.Context, unit string) (map[string]int, error) {
	query := `SELECT status, count(*) FROM work_items GROUP BY status`
	var args []any
	if unit != "" {
		query = `SELECT status, count(*) FROM work_items WHERE unit=? GROUP BY status`
		args = append(args, unit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var st string
		var count int
		if err := rows.Scan(&st, &count); err != nil {
			return nil, err
		}
		res[st] = count
	}
	return res, rows.Err()
}

func scanItem(scan func(dest ...any) error) (domain.WorkItem, error) {
	var it domain.WorkItem
	var description, creatorName, startedAt, closedAt, startAt, tagsJSON sql.NullString
	var visibility int
	err := scan(&it.ID, &it.Kind, &it.Title, &description, &it.Priority, &it.Status, &it.Unit,
		&it.CreatorID, &creatorName, &it.CreatedAt, &startedAt, &closedAt, &startAt, &it.DueAt, &visibility, &tagsJSON)
	if err != nil {
		return it, err
	}
	if description.Valid {
		it.Description = description.String
	}
	if creatorName.Valid {
		it.CreatorName = creatorName.String
	}
	if startedAt.Valid {
		it.StartedAt = &startedAt.String
	}
	if closedAt.Valid {
		it.ClosedAt = &closedAt.String
	}
	if startAt.Valid {
		it.StartAt = &startAt.String
	}
	it.Visibility = visibility != 0
	if tagsJSON.Valid && tagsJSON.String != "" {
		_ = json.Unmarshal([]byte(tagsJSON.String), &it.Tags)
	}
	return it, nil
}

func marshalTags(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
