package domain

// WorkItem is the tracked unit: a multi-assignee request ("talep") filed
// against a unit, or a single-target task ("görev").
type WorkItem struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind" enum:"request,task"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    string   `json:"priority" enum:"routine,low,normal,high,critical"`
	Status      string   `json:"status"`
	Unit        string   `json:"unit"`
	CreatorID   string   `json:"creator_id"`
	CreatorName string   `json:"creator_name,omitempty"`
	CreatedAt   string   `json:"created_at" format:"date-time"`
	StartedAt   *string  `json:"started_at,omitempty" format:"date-time"`
	ClosedAt    *string  `json:"closed_at,omitempty" format:"date-time"`
	StartAt     *string  `json:"start_at,omitempty"`
	DueAt       string   `json:"due_at"`
	Assignees   []string `json:"assignees"`
	Tags        []string `json:"tags,omitempty"`
	Visibility  bool     `json:"visibility,omitempty"`
}

// AssignmentLink joins a WorkItem to a responsible user. Links are owned by
// the item that created them and are removed only as creation compensation.
type AssignmentLink struct {
	WorkItemID string `json:"work_item_id"`
	UserID     string `json:"user_id"`
}

type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts" format:"date-time"`
	Type    string `json:"type"`
	ItemID  string `json:"item_id,omitempty"`
	ActorID string `json:"actor_id"`
	Payload string `json:"payload_json"`
}
