package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"alterview/internal/catalog"
	"alterview/internal/domain"
	"alterview/internal/persona"
	"alterview/internal/snapshot"
	"alterview/internal/source"
)

// Rendered in place of a link source whose resolution failed. A single bad
// source must not block an otherwise valid chat turn.
const resolveFallback = "(자료를 불러오지 못했습니다)"

// Service owns profile and experience versioning and assembles the persona
// view consumed by prompt synthesis. Ownership mismatches surface as
// ErrNotFound so callers cannot probe which profiles exist.
type Service struct {
	profiles    snapshot.Store[Payload]
	experiences snapshot.Store[ExperiencePayload]
	keywords    catalog.Store
	sources     source.Store
	resolver    source.Resolver
}

func NewService(
	profiles snapshot.Store[Payload],
	experiences snapshot.Store[ExperiencePayload],
	keywords catalog.Store,
	sources source.Store,
	resolver source.Resolver,
) *Service {
	return &Service{
		profiles:    profiles,
		experiences: experiences,
		keywords:    keywords,
		sources:     sources,
		resolver:    resolver,
	}
}

func (s *Service) CreateProfile(ctx context.Context, ownerID string, payload Payload) (snapshot.View[Payload], error) {
	if err := payload.Validate(); err != nil {
		return snapshot.View[Payload]{}, err
	}
	return s.profiles.Create(ctx, ownerID, payload.Normalize())
}

func (s *Service) GetProfile(ctx context.Context, profileID string) (snapshot.View[Payload], error) {
	return s.profiles.GetActive(ctx, profileID, false)
}

func (s *Service) UpdateProfile(ctx context.Context, ownerID, profileID string, patch Patch) (snapshot.View[Payload], error) {
	if _, err := s.ownedProfile(ctx, ownerID, profileID); err != nil {
		return snapshot.View[Payload]{}, err
	}
	if patch.DisplayName != nil {
		if err := (Payload{DisplayName: *patch.DisplayName}).Validate(); err != nil {
			return snapshot.View[Payload]{}, err
		}
	}
	return s.profiles.Update(ctx, profileID, patch)
}

func (s *Service) DeleteProfile(ctx context.Context, ownerID, profileID string) error {
	if _, err := s.ownedProfile(ctx, ownerID, profileID); err != nil {
		return err
	}
	return s.profiles.SoftDelete(ctx, profileID)
}

func (s *Service) ProfileHistory(ctx context.Context, ownerID, profileID string) ([]snapshot.Snapshot[Payload], error) {
	if _, err := s.ownedProfile(ctx, ownerID, profileID); err != nil {
		return nil, err
	}
	return s.profiles.History(ctx, profileID)
}

// AddExperience creates the experience record and appends its id to the
// profile's active snapshot in a follow-up profile update.
func (s *Service) AddExperience(ctx context.Context, ownerID, profileID string, payload ExperiencePayload) (snapshot.View[ExperiencePayload], error) {
	prof, err := s.ownedProfile(ctx, ownerID, profileID)
	if err != nil {
		return snapshot.View[ExperiencePayload]{}, err
	}
	if err := payload.Validate(); err != nil {
		return snapshot.View[ExperiencePayload]{}, err
	}

	exp, err := s.experiences.Create(ctx, ownerID, payload)
	if err != nil {
		return snapshot.View[ExperiencePayload]{}, err
	}

	ids := append(slices.Clone(prof.Snapshot.Payload.ExperienceIDs), exp.Entity.ID)
	if _, err := s.profiles.Update(ctx, profileID, Patch{ExperienceIDs: &ids}); err != nil {
		// Nothing references the new record yet; remove it rather than
		// leave an orphan behind.
		_ = s.experiences.SoftDelete(ctx, exp.Entity.ID)
		return snapshot.View[ExperiencePayload]{}, fmt.Errorf("attach experience to profile: %w", err)
	}
	return exp, nil
}

func (s *Service) UpdateExperience(ctx context.Context, ownerID, experienceID string, patch ExperiencePatch) (snapshot.View[ExperiencePayload], error) {
	cur, err := s.experiences.GetActive(ctx, experienceID, false)
	if err != nil {
		return snapshot.View[ExperiencePayload]{}, err
	}
	if cur.Entity.OwnerID != ownerID {
		return snapshot.View[ExperiencePayload]{}, domain.ErrNotFound
	}

	merged, _ := patch.Apply(cur.Snapshot.Payload)
	if err := merged.Validate(); err != nil {
		return snapshot.View[ExperiencePayload]{}, err
	}
	return s.experiences.Update(ctx, experienceID, patch)
}

func (s *Service) DeleteExperience(ctx context.Context, ownerID, profileID, experienceID string) error {
	prof, err := s.ownedProfile(ctx, ownerID, profileID)
	if err != nil {
		return err
	}
	exp, err := s.experiences.GetActive(ctx, experienceID, false)
	if err != nil {
		return err
	}
	if exp.Entity.OwnerID != ownerID {
		return domain.ErrNotFound
	}

	if err := s.experiences.SoftDelete(ctx, experienceID); err != nil {
		return err
	}

	ids := slices.Clone(prof.Snapshot.Payload.ExperienceIDs)
	ids = slices.DeleteFunc(ids, func(id string) bool { return id == experienceID })
	if _, err := s.profiles.Update(ctx, profileID, Patch{ExperienceIDs: &ids}); err != nil && !errors.Is(err, snapshot.ErrNoChange) {
		return fmt.Errorf("detach experience from profile: %w", err)
	}
	return nil
}

func (s *Service) AddSource(ctx context.Context, ownerID, profileID string, kind source.Kind, label, url string) (source.Source, error) {
	if _, err := s.ownedProfile(ctx, ownerID, profileID); err != nil {
		return source.Source{}, err
	}
	return s.sources.Create(ctx, profileID, kind, label, url)
}

func (s *Service) DeleteSource(ctx context.Context, ownerID, sourceID string) error {
	src, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		return err
	}
	if _, err := s.ownedProfile(ctx, ownerID, src.ProfileID); err != nil {
		return err
	}
	return s.sources.SoftDelete(ctx, sourceID)
}

// PersonaView resolves the profile's active snapshot into the fully
// materialized view: experience records loaded and ordered, keyword ids
// replaced with names, sources resolved to text.
func (s *Service) PersonaView(ctx context.Context, profileID string) (persona.ProfileView, []persona.ResolvedSource, error) {
	prof, err := s.profiles.GetActive(ctx, profileID, false)
	if err != nil {
		return persona.ProfileView{}, nil, err
	}
	payload := prof.Snapshot.Payload

	view := persona.ProfileView{DisplayName: payload.DisplayName}

	for _, id := range payload.ExperienceIDs {
		exp, err := s.experiences.GetActive(ctx, id, false)
		if errors.Is(err, domain.ErrNotFound) {
			// The snapshot may reference an experience deleted after it
			// was taken; skip rather than fail the whole view.
			continue
		}
		if err != nil {
			return persona.ProfileView{}, nil, err
		}
		p := exp.Snapshot.Payload
		view.Experiences = append(view.Experiences, persona.ExperienceEntry{
			CompanyName:   p.CompanyName,
			PositionTitle: p.PositionTitle,
			StartDate:     p.StartDate,
			EndDate:       p.EndDate,
			Description:   p.Description,
			Sequence:      p.Sequence,
		})
	}
	sort.SliceStable(view.Experiences, func(i, j int) bool {
		return view.Experiences[i].Sequence < view.Experiences[j].Sequence
	})

	if view.Positions, err = s.keywordNames(ctx, payload.PositionIDs); err != nil {
		return persona.ProfileView{}, nil, err
	}
	if view.Skills, err = s.keywordNames(ctx, payload.SkillIDs); err != nil {
		return persona.ProfileView{}, nil, err
	}
	if view.Personalities, err = s.keywordNames(ctx, payload.PersonalityIDs); err != nil {
		return persona.ProfileView{}, nil, err
	}

	srcs, err := s.sources.ListByProfile(ctx, profileID)
	if err != nil {
		return persona.ProfileView{}, nil, err
	}
	resolved := make([]persona.ResolvedSource, 0, len(srcs))
	for _, src := range srcs {
		r := persona.ResolvedSource{Label: src.Label, Kind: persona.SourceKind(src.Kind)}
		if src.Kind == source.KindFile {
			r.Content = src.URL
		} else {
			text, err := s.resolver.ResolveLink(ctx, src.URL)
			if err != nil {
				text = resolveFallback
			}
			r.Content = text
		}
		resolved = append(resolved, r)
	}

	return view, resolved, nil
}

// PersonaPrompt synthesizes the system prompt seeded into a room's first
// turn. now anchors open-ended tenures.
func (s *Service) PersonaPrompt(ctx context.Context, profileID string, now time.Time) (string, error) {
	view, sources, err := s.PersonaView(ctx, profileID)
	if err != nil {
		return "", err
	}
	return persona.Synthesize(view, sources, now), nil
}

// ProfileOwner reports the owning member of a live profile.
func (s *Service) ProfileOwner(ctx context.Context, profileID string) (string, error) {
	prof, err := s.profiles.GetActive(ctx, profileID, false)
	if err != nil {
		return "", err
	}
	return prof.Entity.OwnerID, nil
}

func (s *Service) ownedProfile(ctx context.Context, ownerID, profileID string) (snapshot.View[Payload], error) {
	prof, err := s.profiles.GetActive(ctx, profileID, false)
	if err != nil {
		return snapshot.View[Payload]{}, err
	}
	if prof.Entity.OwnerID != ownerID {
		return snapshot.View[Payload]{}, domain.ErrNotFound
	}
	return prof, nil
}

func (s *Service) keywordNames(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	kws, err := s.keywords.Resolve(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve keywords: %w", err)
	}
	names := make([]string, 0, len(kws))
	for _, kw := range kws {
		names = append(names, kw.Name)
	}
	return names, nil
}
