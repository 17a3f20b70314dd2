// Package audience is the contact directory campaigns are aimed at.
package audience

import (
	"context"
	"strings"

	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

// Directory looks up contacts. A real audience service plugs in here.
type Directory interface {
	Search(ctx context.Context, query string) ([]model.Contact, error)
	Get(ctx context.Context, id int) (*model.Contact, error)
}

type StaticDirectory struct {
	contacts []model.Contact
}

func NewStaticDirectory(contacts []model.Contact) *StaticDirectory {
	return &StaticDirectory{contacts: append([]model.Contact(nil), contacts...)}
}

// NewDemoDirectory returns the sample contacts shown by the audience step.
func NewDemoDirectory() *StaticDirectory {
	return NewStaticDirectory(demoContacts)
}

// DemoContacts returns a copy of the sample contacts, for seeding a real
// directory.
func DemoContacts() []model.Contact {
	return append([]model.Contact(nil), demoContacts...)
}

// Search matches name and email case-insensitively and phone as a substring.
// An empty query returns every contact.
func (d *StaticDirectory) Search(ctx context.Context, query string) ([]model.Contact, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []model.Contact{}
	for _, c := range d.contacts {
		if q == "" ||
			strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Email), q) ||
			strings.Contains(c.Phone, strings.TrimSpace(query)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (d *StaticDirectory) Get(ctx context.Context, id int) (*model.Contact, error) {
	for _, c := range d.contacts {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("contact", id)
}

var demoContacts = []model.Contact{
	{ID: 1, Name: "John Smith", Phone: "+1 (555) 123-4567", Email: "john.smith@example.com", Status: "Lead"},
	{ID: 2, Name: "Emily Johnson", Phone: "+1 (555) 234-5678", Email: "emily.johnson@example.com", Status: "Client"},
	{ID: 3, Name: "Michael Brown", Phone: "+1 (555) 345-6789", Email: "michael.brown@example.com", Status: "Lead"},
	{ID: 4, Name: "Sarah Davis", Phone: "+1 (555) 456-7890", Email: "sarah.davis@example.com", Status: "Prospect"},
	{ID: 5, Name: "David Wilson", Phone: "+1 (555) 567-8901", Email: "david.wilson@example.com", Status: "Lead"},
	{ID: 6, Name: "Jessica Taylor", Phone: "+1 (555) 678-9012", Email: "jessica.taylor@example.com", Status: "Client"},
	{ID: 7, Name: "Kevin Martinez", Phone: "+1 (555) 789-0123", Email: "kevin.martinez@example.com", Status: "Prospect"},
	{ID: 8, Name: "Amanda Thomas", Phone: "+1 (555) 890-1234", Email: "amanda.thomas@example.com", Status: "Lead"},
}

var _ Directory = (*StaticDirectory)(nil)
