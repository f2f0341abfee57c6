package profile

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"alterview/internal/domain"
)

// Payload is the profile snapshot payload. ExperienceIDs keep caller order
// (it drives nothing today, sequence does, but reordering is still a
// content change); the keyword id fields are sets stored sorted so that
// field equality and prompt rendering are order-independent.
type Payload struct {
	DisplayName    string   `json:"display_name"`
	ImageRef       string   `json:"image_ref,omitempty"`
	ExperienceIDs  []string `json:"experience_ids,omitempty"`
	PositionIDs    []string `json:"position_ids,omitempty"`
	SkillIDs       []string `json:"skill_ids,omitempty"`
	PersonalityIDs []string `json:"personality_ids,omitempty"`
}

func (p Payload) Validate() error {
	if strings.TrimSpace(p.DisplayName) == "" {
		return fmt.Errorf("%w: display name must not be empty", domain.ErrValidation)
	}
	return nil
}

// Normalize returns the payload with set-typed fields sorted and deduped.
func (p Payload) Normalize() Payload {
	p.ExperienceIDs = dedup(p.ExperienceIDs)
	p.PositionIDs = normalizeSet(p.PositionIDs)
	p.SkillIDs = normalizeSet(p.SkillIDs)
	p.PersonalityIDs = normalizeSet(p.PersonalityIDs)
	return p
}

// Patch is a partial profile update; nil fields are not compared.
type Patch struct {
	DisplayName    *string   `json:"display_name,omitempty"`
	ImageRef       *string   `json:"image_ref,omitempty"`
	ExperienceIDs  *[]string `json:"experience_ids,omitempty"`
	PositionIDs    *[]string `json:"position_ids,omitempty"`
	SkillIDs       *[]string `json:"skill_ids,omitempty"`
	PersonalityIDs *[]string `json:"personality_ids,omitempty"`
}

func (p Patch) Apply(cur Payload) (Payload, bool) {
	next := cur
	changed := false

	if p.DisplayName != nil && *p.DisplayName != cur.DisplayName {
		next.DisplayName = *p.DisplayName
		changed = true
	}
	if p.ImageRef != nil && *p.ImageRef != cur.ImageRef {
		next.ImageRef = *p.ImageRef
		changed = true
	}
	if p.ExperienceIDs != nil {
		ids := dedup(*p.ExperienceIDs)
		if !slices.Equal(ids, cur.ExperienceIDs) {
			next.ExperienceIDs = ids
			changed = true
		}
	}
	if p.PositionIDs != nil {
		ids := normalizeSet(*p.PositionIDs)
		if !slices.Equal(ids, cur.PositionIDs) {
			next.PositionIDs = ids
			changed = true
		}
	}
	if p.SkillIDs != nil {
		ids := normalizeSet(*p.SkillIDs)
		if !slices.Equal(ids, cur.SkillIDs) {
			next.SkillIDs = ids
			changed = true
		}
	}
	if p.PersonalityIDs != nil {
		ids := normalizeSet(*p.PersonalityIDs)
		if !slices.Equal(ids, cur.PersonalityIDs) {
			next.PersonalityIDs = ids
			changed = true
		}
	}
	return next, changed
}

// ExperiencePayload is the experience-record snapshot payload.
type ExperiencePayload struct {
	CompanyName   string     `json:"company_name"`
	PositionTitle string     `json:"position_title"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Description   string     `json:"description,omitempty"`
	Sequence      int        `json:"sequence"`
}

func (p ExperiencePayload) Validate() error {
	if strings.TrimSpace(p.CompanyName) == "" {
		return fmt.Errorf("%w: company name must not be empty", domain.ErrValidation)
	}
	if strings.TrimSpace(p.PositionTitle) == "" {
		return fmt.Errorf("%w: position title must not be empty", domain.ErrValidation)
	}
	if p.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", domain.ErrValidation)
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("%w: end date precedes start date", domain.ErrValidation)
	}
	if p.Sequence < 0 {
		return fmt.Errorf("%w: sequence must not be negative", domain.ErrValidation)
	}
	return nil
}

// ExperiencePatch is a partial experience update. ClearEndDate marks the
// position as currently held again; it wins over EndDate when both are set.
type ExperiencePatch struct {
	CompanyName   *string    `json:"company_name,omitempty"`
	PositionTitle *string    `json:"position_title,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	ClearEndDate  bool       `json:"clear_end_date,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Sequence      *int       `json:"sequence,omitempty"`
}

func (p ExperiencePatch) Apply(cur ExperiencePayload) (ExperiencePayload, bool) {
	next := cur
	changed := false

	if p.CompanyName != nil && *p.CompanyName != cur.CompanyName {
		next.CompanyName = *p.CompanyName
		changed = true
	}
	if p.PositionTitle != nil && *p.PositionTitle != cur.PositionTitle {
		next.PositionTitle = *p.PositionTitle
		changed = true
	}
	if p.StartDate != nil && !p.StartDate.Equal(cur.StartDate) {
		next.StartDate = *p.StartDate
		changed = true
	}
	if p.ClearEndDate {
		if cur.EndDate != nil {
			next.EndDate = nil
			changed = true
		}
	} else if p.EndDate != nil {
		if cur.EndDate == nil || !p.EndDate.Equal(*cur.EndDate) {
			end := *p.EndDate
			next.EndDate = &end
			changed = true
		}
	}
	if p.Description != nil && *p.Description != cur.Description {
		next.Description = *p.Description
		changed = true
	}
	if p.Sequence != nil && *p.Sequence != cur.Sequence {
		next.Sequence = *p.Sequence
		changed = true
	}
	return next, changed
}

func dedup(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizeSet(ids []string) []string {
	out := dedup(ids)
	slices.Sort(out)
	return out
}
