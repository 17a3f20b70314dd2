// Package authoring implements the three-step campaign authoring flow:
// message, audience, schedule. Steps are navigation state only; nothing is
// sent to the API until Submit.
package authoring

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/unclebandit/voicecampaign-backend/internal/audience"
	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/validation"
)

type Step int

const (
	StepMessage Step = iota
	StepAudience
	StepSchedule
)

func (s Step) String() string {
	switch s {
	case StepMessage:
		return "message"
	case StepAudience:
		return "audience"
	case StepSchedule:
		return "schedule"
	default:
		return "unknown"
	}
}

var ErrLastStep = errors.New("already on the last step")

// Submitter persists the finished campaign. *client.Client satisfies it.
type Submitter interface {
	CreateCampaign(ctx context.Context, in model.CampaignInput) (*model.Campaign, error)
	UpdateCampaign(ctx context.Context, id int, patch model.CampaignPatch) (*model.Campaign, error)
}

// Message holds the step one fields.
type Message struct {
	Name         string `json:"name" validate:"required"`
	Script       string `json:"script" validate:"required"`
	Objective    string `json:"objective"`
	Guidelines   string `json:"guidelines"`
	CallFlow     string `json:"callFlow"`
	VoiceType    string `json:"voiceType" validate:"required"`
	MaxCallCount int    `json:"maxCallCount" validate:"gte=1"`
}

// Schedule is the launch window. It is checked here and never persisted.
type Schedule struct {
	StartDate      time.Time `json:"startDate" validate:"required"`
	EndDate        time.Time `json:"endDate" validate:"required"`
	StartTime      string    `json:"startTime" validate:"required"`
	EndTime        string    `json:"endTime" validate:"required"`
	MaxCallsPerDay int       `json:"maxCallsPerDay" validate:"gte=1"`
	MaxRetries     int       `json:"maxRetries" validate:"gte=0"`
	Recording      bool      `json:"recording"`
	Transcripts    bool      `json:"transcripts"`
	Priority       string    `json:"priority" validate:"omitempty,oneof=low normal high"`
}

// DefaultSchedule matches the form defaults: a week starting today, office
// hours.
func DefaultSchedule(now time.Time) Schedule {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Schedule{
		StartDate:      day,
		EndDate:        day.AddDate(0, 0, 7),
		StartTime:      "09:00",
		EndTime:        "17:00",
		MaxCallsPerDay: 50,
		MaxRetries:     2,
		Recording:      true,
		Transcripts:    true,
		Priority:       "normal",
	}
}

type Wizard struct {
	Message  Message
	Schedule Schedule

	step      Step
	editID    *int
	status    bool
	dir       audience.Directory
	submitter Submitter
	selected  map[int]model.Contact
}

// New starts a create flow.
func New(dir audience.Directory, submitter Submitter) *Wizard {
	return &Wizard{
		Message:   Message{VoiceType: model.VoiceTypes[0], MaxCallCount: 1},
		Schedule:  DefaultSchedule(time.Now()),
		dir:       dir,
		submitter: submitter,
		selected:  make(map[int]model.Contact),
	}
}

// Edit starts an update flow prefilled from c. Submit will PATCH c.ID.
func Edit(c *model.Campaign, dir audience.Directory, submitter Submitter) *Wizard {
	w := New(dir, submitter)
	id := c.ID
	w.editID = &id
	w.status = c.Status
	w.Message = Message{
		Name:         c.Name,
		Script:       c.Script,
		Objective:    deref(c.Objective),
		Guidelines:   deref(c.Guidelines),
		CallFlow:     deref(c.CallFlow),
		VoiceType:    c.VoiceType,
		MaxCallCount: c.MaxCallCount,
	}
	return w
}

func (w *Wizard) Step() Step { return w.step }

// Editing reports whether Submit will update an existing campaign.
func (w *Wizard) Editing() bool { return w.editID != nil }

// Next validates the current step only and advances.
func (w *Wizard) Next() error {
	if w.step == StepSchedule {
		return ErrLastStep
	}
	if err := w.validate(w.step); err != nil {
		return err
	}
	w.step++
	return nil
}

// Back moves to the previous step. Entered values are kept.
func (w *Wizard) Back() {
	if w.step > StepMessage {
		w.step--
	}
}

func (w *Wizard) SearchAudience(ctx context.Context, query string) ([]model.Contact, error) {
	return w.dir.Search(ctx, query)
}

// Select toggles a contact in the audience selection.
func (w *Wizard) Select(ctx context.Context, contactID int) (bool, error) {
	if _, ok := w.selected[contactID]; ok {
		delete(w.selected, contactID)
		return false, nil
	}
	c, err := w.dir.Get(ctx, contactID)
	if err != nil {
		return false, err
	}
	w.selected[contactID] = *c
	return true, nil
}

func (w *Wizard) Selected() []model.Contact {
	out := make([]model.Contact, 0, len(w.selected))
	for _, c := range w.selected {
		out = append(out, c)
	}
	return out
}

// Launch submits the campaign as active.
func (w *Wizard) Launch(ctx context.Context) (*model.Campaign, error) {
	return w.submit(ctx, true)
}

// SaveDraft submits the campaign as inactive.
func (w *Wizard) SaveDraft(ctx context.Context) (*model.Campaign, error) {
	return w.submit(ctx, false)
}

// submit validates every step, then creates or updates. On failure the
// wizard state is left untouched so the caller can correct and retry.
func (w *Wizard) submit(ctx context.Context, active bool) (*model.Campaign, error) {
	for s := StepMessage; s <= StepSchedule; s++ {
		if err := w.validate(s); err != nil {
			return nil, err
		}
	}

	m := w.Message
	if w.editID == nil {
		return w.submitter.CreateCampaign(ctx, model.CampaignInput{
			Name:         m.Name,
			Script:       m.Script,
			Objective:    model.StringPtr(m.Objective),
			Guidelines:   model.StringPtr(m.Guidelines),
			CallFlow:     model.StringPtr(m.CallFlow),
			VoiceType:    m.VoiceType,
			MaxCallCount: m.MaxCallCount,
			Status:       model.BoolPtr(active),
		})
	}
	return w.submitter.UpdateCampaign(ctx, *w.editID, model.CampaignPatch{
		Name:         model.StringPtr(m.Name),
		Script:       model.StringPtr(m.Script),
		Objective:    model.SetString(m.Objective),
		Guidelines:   model.SetString(m.Guidelines),
		CallFlow:     model.SetString(m.CallFlow),
		VoiceType:    model.StringPtr(m.VoiceType),
		MaxCallCount: model.IntPtr(m.MaxCallCount),
		Status:       model.BoolPtr(active),
	})
}

func (w *Wizard) validate(s Step) error {
	switch s {
	case StepMessage:
		m := w.Message
		m.Name = strings.TrimSpace(m.Name)
		m.Script = strings.TrimSpace(m.Script)
		return validation.Struct(m, "Please complete the message step")
	case StepAudience:
		// Selection is a preview only and may be empty.
		return nil
	case StepSchedule:
		if err := validation.Struct(w.Schedule, "Please complete the schedule"); err != nil {
			return err
		}
		return checkWindow(w.Schedule)
	}
	return nil
}

func checkWindow(s Schedule) error {
	var fields []appErrors.FieldError
	if s.EndDate.Before(s.StartDate) {
		fields = append(fields, appErrors.FieldError{Field: "endDate", Message: "End date must not be before the start date"})
	}
	start, errStart := time.Parse("15:04", s.StartTime)
	end, errEnd := time.Parse("15:04", s.EndTime)
	switch {
	case errStart != nil:
		fields = append(fields, appErrors.FieldError{Field: "startTime", Message: "Start time must be HH:MM"})
	case errEnd != nil:
		fields = append(fields, appErrors.FieldError{Field: "endTime", Message: "End time must be HH:MM"})
	case !end.After(start):
		fields = append(fields, appErrors.FieldError{Field: "endTime", Message: "End time must be after the start time"})
	}
	if len(fields) > 0 {
		return appErrors.NewValidation("Please complete the schedule", fields...)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
