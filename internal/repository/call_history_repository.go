package repository

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

// CallHistoryRepository is the postgres implementation.
type CallHistoryRepository struct {
	DB *sql.DB
}

const callHistoryColumns = `id, campaign_id, contact_name, contact_email, contact_phone, status, call_date, call_summary, recording_url, transcript_url`

func scanCallHistory(row rowScanner) (*model.CallHistory, error) {
	var h model.CallHistory
	err := row.Scan(
		&h.ID,
		&h.CampaignID,
		&h.ContactName,
		&h.ContactEmail,
		&h.ContactPhone,
		&h.Status,
		&h.CallDate,
		&h.CallSummary,
		&h.RecordingURL,
		&h.TranscriptURL,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Create inserts a new call record and fills in its id and call date.
func (r *CallHistoryRepository) Create(ctx context.Context, h *model.CallHistory) error {
	query := `
        INSERT INTO call_history
        (campaign_id, contact_name, contact_email, contact_phone, status, call_summary, recording_url, transcript_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, call_date
    `
	return r.DB.QueryRowContext(
		ctx,
		query,
		h.CampaignID,
		h.ContactName,
		h.ContactEmail,
		h.ContactPhone,
		h.Status,
		h.CallSummary,
		h.RecordingURL,
		h.TranscriptURL,
	).Scan(&h.ID, &h.CallDate)
}

// UpdateStatus changes the outcome label of one call.
func (r *CallHistoryRepository) UpdateStatus(ctx context.Context, id int, status string) (*model.CallHistory, error) {
	query := `UPDATE call_history SET status=$1 WHERE id=$2 RETURNING ` + callHistoryColumns
	h, err := scanCallHistory(r.DB.QueryRowContext(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCallHistoryNotFound(id)
		}
		return nil, err
	}
	return h, nil
}

// GetByID fetches a call record by its ID
func (r *CallHistoryRepository) GetByID(ctx context.Context, id int) (*model.CallHistory, error) {
	query := `SELECT ` + callHistoryColumns + ` FROM call_history WHERE id=$1`
	h, err := scanCallHistory(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCallHistoryNotFound(id)
		}
		return nil, err
	}
	return h, nil
}

func (r *CallHistoryRepository) List(ctx context.Context) ([]*model.CallHistory, error) {
	return r.query(ctx, `SELECT `+callHistoryColumns+` FROM call_history ORDER BY id`)
}

func (r *CallHistoryRepository) ListByCampaign(ctx context.Context, campaignID int) ([]*model.CallHistory, error) {
	return r.query(ctx, `SELECT `+callHistoryColumns+` FROM call_history WHERE campaign_id=$1 ORDER BY id`, campaignID)
}

func (r *CallHistoryRepository) ListByContact(ctx context.Context, contactEmail string) ([]*model.CallHistory, error) {
	return r.query(ctx, `SELECT `+callHistoryColumns+` FROM call_history WHERE contact_email=$1 ORDER BY id`, contactEmail)
}

func (r *CallHistoryRepository) query(ctx context.Context, query string, args ...interface{}) ([]*model.CallHistory, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.CallHistory{}
	for rows.Next() {
		h, err := scanCallHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

var _ CallHistoryRepositoryInterface = (*CallHistoryRepository)(nil)
