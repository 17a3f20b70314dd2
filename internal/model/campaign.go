// internal/model/campaign.go
package model

import "time"

type Campaign struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Script       string    `db:"script" json:"script"`
	Objective    *string   `db:"objective" json:"objective"`
	Guidelines   *string   `db:"guidelines" json:"guidelines"`
	CallFlow     *string   `db:"call_flow" json:"callFlow"`
	VoiceType    string    `db:"voice_type" json:"voiceType"`
	MaxCallCount int       `db:"max_call_count" json:"maxCallCount"`
	Status       bool      `db:"status" json:"status"`
	PublishedAt  time.Time `db:"published_at" json:"publishedAt"`
	CreatedBy    *int      `db:"created_by" json:"createdBy"`
}

// Clone returns a deep copy so callers never share pointers with the store.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Objective = cloneString(c.Objective)
	cp.Guidelines = cloneString(c.Guidelines)
	cp.CallFlow = cloneString(c.CallFlow)
	cp.CreatedBy = cloneInt(c.CreatedBy)
	return &cp
}

// CampaignInput is the create payload: every Campaign field except id and publishedAt.
type CampaignInput struct {
	Name         string  `json:"name" validate:"required"`
	Script       string  `json:"script" validate:"required"`
	Objective    *string `json:"objective"`
	Guidelines   *string `json:"guidelines"`
	CallFlow     *string `json:"callFlow"`
	VoiceType    string  `json:"voiceType" validate:"required"`
	MaxCallCount int     `json:"maxCallCount" validate:"required,gte=1"`
	Status       *bool   `json:"status"`
	CreatedBy    *int    `json:"createdBy" validate:"omitempty,gte=1"`
}

// ToCampaign fills the defaults: status false, empty optional text stored as null.
func (in CampaignInput) ToCampaign() *Campaign {
	c := &Campaign{
		Name:         in.Name,
		Script:       in.Script,
		Objective:    nonEmpty(in.Objective),
		Guidelines:   nonEmpty(in.Guidelines),
		CallFlow:     nonEmpty(in.CallFlow),
		VoiceType:    in.VoiceType,
		MaxCallCount: in.MaxCallCount,
		CreatedBy:    cloneInt(in.CreatedBy),
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	return c
}

// CampaignPatch is a partial update. A nil field was not supplied and stays
// unchanged; required fields ignore null. The optional text fields accept null
// (or "") to clear them.
type CampaignPatch struct {
	Name         *string        `json:"name,omitempty" validate:"omitempty,min=1"`
	Script       *string        `json:"script,omitempty" validate:"omitempty,min=1"`
	Objective    NullableString `json:"objective,omitzero"`
	Guidelines   NullableString `json:"guidelines,omitzero"`
	CallFlow     NullableString `json:"callFlow,omitzero"`
	VoiceType    *string        `json:"voiceType,omitempty" validate:"omitempty,min=1"`
	MaxCallCount *int           `json:"maxCallCount,omitempty" validate:"omitempty,gte=1"`
	Status       *bool          `json:"status,omitempty"`
	CreatedBy    *int           `json:"createdBy,omitempty" validate:"omitempty,gte=1"`
}

// IsEmpty reports whether no field was supplied.
func (p CampaignPatch) IsEmpty() bool {
	return p.Name == nil && p.Script == nil && !p.Objective.Set && !p.Guidelines.Set &&
		!p.CallFlow.Set && p.VoiceType == nil && p.MaxCallCount == nil && p.Status == nil &&
		p.CreatedBy == nil
}

// Apply merges the supplied fields onto c. id and publishedAt are never touched.
func (p CampaignPatch) Apply(c *Campaign) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Script != nil {
		c.Script = *p.Script
	}
	if p.Objective.Set {
		c.Objective = nonEmpty(p.Objective.Value)
	}
	if p.Guidelines.Set {
		c.Guidelines = nonEmpty(p.Guidelines.Value)
	}
	if p.CallFlow.Set {
		c.CallFlow = nonEmpty(p.CallFlow.Value)
	}
	if p.VoiceType != nil {
		c.VoiceType = *p.VoiceType
	}
	if p.MaxCallCount != nil {
		c.MaxCallCount = *p.MaxCallCount
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.CreatedBy != nil {
		c.CreatedBy = cloneInt(p.CreatedBy)
	}
}

// DuplicateName is the name given to a copy of a campaign.
func DuplicateName(name string) string {
	return name + " (Copy)"
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return cloneString(s)
}

// StringPtr and IntPtr are small helpers for building inputs and patches.
func StringPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }

func BoolPtr(b bool) *bool { return &b }
