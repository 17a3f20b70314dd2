package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

// CampaignRepository is the postgres implementation.
type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, script, objective, guidelines, call_flow, voice_type, max_call_count, status, published_at, created_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.Script, &c.Objective, &c.Guidelines, &c.CallFlow,
		&c.VoiceType, &c.MaxCallCount, &c.Status, &c.PublishedAt, &c.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	query := `
        INSERT INTO campaigns (name, script, objective, guidelines, call_flow, voice_type, max_call_count, status, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, published_at
    `
	return r.DB.QueryRowContext(ctx, query, c.Name, c.Script, c.Objective, c.Guidelines, c.CallFlow,
		c.VoiceType, c.MaxCallCount, c.Status, c.CreatedBy).Scan(&c.ID, &c.PublishedAt)
}

// Update builds the SET clause from the supplied patch fields only.
func (r *CampaignRepository) Update(ctx context.Context, id int, patch model.CampaignPatch) (*model.Campaign, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	sets := []string{}
	args := []interface{}{}
	argPos := 1
	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s=$%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Script != nil {
		add("script", *patch.Script)
	}
	if patch.Objective.Set {
		add("objective", nullText(patch.Objective))
	}
	if patch.Guidelines.Set {
		add("guidelines", nullText(patch.Guidelines))
	}
	if patch.CallFlow.Set {
		add("call_flow", nullText(patch.CallFlow))
	}
	if patch.VoiceType != nil {
		add("voice_type", *patch.VoiceType)
	}
	if patch.MaxCallCount != nil {
		add("max_call_count", *patch.MaxCallCount)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.CreatedBy != nil {
		add("created_by", *patch.CreatedBy)
	}

	query := fmt.Sprintf(`UPDATE campaigns SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), argPos, campaignColumns)
	args = append(args, id)

	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ToggleStatus(ctx context.Context, id int) (*model.Campaign, error) {
	query := `UPDATE campaigns SET status = NOT status WHERE id=$1 RETURNING ` + campaignColumns
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) Duplicate(ctx context.Context, id int) (*model.Campaign, error) {
	query := `
        INSERT INTO campaigns (name, script, objective, guidelines, call_flow, voice_type, max_call_count, status, created_by)
        SELECT name || ' (Copy)', script, objective, guidelines, call_flow, voice_type, max_call_count, FALSE, created_by
        FROM campaigns WHERE id=$1
        RETURNING ` + campaignColumns
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) Delete(ctx context.Context, id int) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) List(ctx context.Context) ([]*model.Campaign, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)

// nullText stores a cleared or blank optional text field as NULL.
func nullText(n model.NullableString) sql.NullString {
	if n.Value == nil || *n.Value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *n.Value, Valid: true}
}
