package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/unclebandit/voicecampaign-backend/internal/audience"
	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

// ContactRepository is the postgres audience directory.
type ContactRepository struct {
	DB *sql.DB
}

// Get fetches a contact by ID
func (r *ContactRepository) Get(ctx context.Context, id int) (*model.Contact, error) {
	query := `
        SELECT id, name, phone, email, status
        FROM contacts
        WHERE id = $1
    `
	var c model.Contact
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("contact", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Search matches name and email case-insensitively and phone as a substring.
func (r *ContactRepository) Search(ctx context.Context, q string) ([]model.Contact, error) {
	q = strings.TrimSpace(q)
	query := `
        SELECT id, name, phone, email, status
        FROM contacts
        WHERE $1::text = '' OR name ILIKE '%' || $1::text || '%' OR email ILIKE '%' || $1::text || '%' OR phone LIKE '%' || $1::text || '%'
        ORDER BY id
    `
	rows, err := r.DB.QueryContext(ctx, query, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Status); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// Upsert inserts c keyed by email and fills in its id.
func (r *ContactRepository) Upsert(ctx context.Context, c *model.Contact) error {
	query := `
        INSERT INTO contacts (name, phone, email, status)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone, status = EXCLUDED.status
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query, c.Name, c.Phone, c.Email, c.Status).Scan(&c.ID)
}

var _ audience.Directory = (*ContactRepository)(nil)
