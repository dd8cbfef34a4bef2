package server

import (
	"workboard/internal/analytics"
	"workboard/internal/domain"
)

// Request payloads

type CreateItemRequest struct {
	Kind        string   `json:"kind,omitempty" enum:"request,task"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Priority    *string  `json:"priority,omitempty" enum:"routine,low,normal,high,critical"`
	Unit        string   `json:"unit"`
	StartAt     *string  `json:"start_at,omitempty"`
	DueAt       string   `json:"due_at"`
	Tags        []string `json:"tags,omitempty"`
	Visibility  bool     `json:"visibility,omitempty"`
	CreatorID   string   `json:"creator_id"`
	CreatorName *string  `json:"creator_name,omitempty"`
	AssigneeIDs []string `json:"assignee_ids"`
}

type ApplyStatusRequest struct {
	Status string `json:"status"`
}

// Response payloads

type CreateItemResponse struct {
	ID string `json:"id"`
}

type ItemResponse struct {
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

type ReportResponse = analytics.Report

func itemResponse(it domain.WorkItem) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Kind:        it.Kind,
		Title:       it.Title,
		Description: it.Description,
		Priority:    it.Priority,
		Status:      it.Status,
		Unit:        it.Unit,
		CreatorID:   it.CreatorID,
		CreatorName: it.CreatorName,
		CreatedAt:   it.CreatedAt,
		StartedAt:   it.StartedAt,
		ClosedAt:    it.ClosedAt,
		StartAt:     it.StartAt,
		DueAt:       it.DueAt,
		Assignees:   nonNilSlice(it.Assignees),
		Tags:        it.Tags,
		Visibility:  it.Visibility,
	}
}

func mapItems(items []domain.WorkItem) []ItemResponse {
	res := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		res = append(res, itemResponse(it))
	}
	return res
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
