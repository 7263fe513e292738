// Package events appends journey entries for applications. Rows are only ever
// inserted; nothing in the sandbox updates or deletes them.
package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	sdk "hireline/sdk/go"
)

// Journey actions recorded by the sandbox.
const (
	ActionApplied            = "applied"
	ActionStageChange        = sdk.ActionStageChange
	ActionStageUpdate        = "stage_update"
	ActionStatusChange       = "status_change"
	ActionRejected           = "rejected"
	ActionScreeningScheduled = "screening_scheduled"
)

type Writer struct {
	Now func() time.Time
}

// Entry is what callers describe; id and timestamp are filled by Append.
type Entry struct {
	ApplicationID string
	Action        string
	FromStage     string
	ToStage       string
	Actor         string
	Notes         string
}

func (w Writer) Append(ctx context.Context, tx *sql.Tx, e Entry) (sdk.HistoryEntry, error) {
	if e.ApplicationID == "" {
		return sdk.HistoryEntry{}, fmt.Errorf("journey entry: application id required")
	}
	if e.Actor == "" {
		return sdk.HistoryEntry{}, fmt.Errorf("journey entry: actor required")
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	h := sdk.HistoryEntry{
		ID:        uuid.NewString(),
		Action:    e.Action,
		FromStage: e.FromStage,
		ToStage:   e.ToStage,
		MovedBy:   e.Actor,
		Notes:     e.Notes,
		Timestamp: now().UTC().Format(time.RFC3339Nano),
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO application_history(id,application_id,ts,action,from_stage,to_stage,actor,notes) VALUES (?,?,?,?,?,?,?,?)`,
		h.ID, e.ApplicationID, h.Timestamp, h.Action, nullable(h.FromStage), nullable(h.ToStage), h.MovedBy, nullable(h.Notes))
	if err != nil {
		return sdk.HistoryEntry{}, fmt.Errorf("insert journey entry: %w", err)
	}
	return h, nil
}

// Journey lists entries for one application in insertion order.
func (w Writer) Journey(ctx context.Context, tx *sql.Tx, applicationID string) ([]sdk.HistoryEntry, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id,ts,action,COALESCE(from_stage,''),COALESCE(to_stage,''),actor,COALESCE(notes,'')
FROM application_history WHERE application_id=? ORDER BY seq`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []sdk.HistoryEntry{}
	for rows.Next() {
		var h sdk.HistoryEntry
		if err := rows.Scan(&h.ID, &h.Timestamp, &h.Action, &h.FromStage, &h.ToStage, &h.MovedBy, &h.Notes); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
