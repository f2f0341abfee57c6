package profile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"alterview/internal/catalog"
	"alterview/internal/domain"
	"alterview/internal/snapshot"
	"alterview/internal/source"
)

func newTestService(t *testing.T, resolver source.Resolver) *Service {
	t.Helper()
	if resolver == nil {
		resolver = &source.StaticResolver{}
	}
	return NewService(
		snapshot.NewInMemoryStore[Payload](),
		snapshot.NewInMemoryStore[ExperiencePayload](),
		catalog.NewInMemoryStore(),
		source.NewInMemoryStore(),
		resolver,
	)
}

func TestAddExperienceAttachesToProfile(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	prof, err := svc.CreateProfile(ctx, "owner-1", Payload{DisplayName: "김하늘"})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	exp, err := svc.AddExperience(ctx, "owner-1", prof.Entity.ID, ExperiencePayload{
		CompanyName:   "한빛소프트랩",
		PositionTitle: "Backend Engineer",
		StartDate:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("AddExperience() error = %v", err)
	}

	got, err := svc.GetProfile(ctx, prof.Entity.ID)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	ids := got.Snapshot.Payload.ExperienceIDs
	if len(ids) != 1 || ids[0] != exp.Entity.ID {
		t.Fatalf("ExperienceIDs = %v, want [%s]", ids, exp.Entity.ID)
	}
}

type failingProfileStore struct {
	snapshot.Store[Payload]
	failUpdates bool
}

func (s *failingProfileStore) Update(ctx context.Context, entityID string, patch snapshot.Patch[Payload]) (snapshot.View[Payload], error) {
	if s.failUpdates {
		return snapshot.View[Payload]{}, errors.New("update rejected")
	}
	return s.Store.Update(ctx, entityID, patch)
}

type recordingExperienceStore struct {
	snapshot.Store[ExperiencePayload]
	created []string
}

func (s *recordingExperienceStore) Create(ctx context.Context, ownerID string, initial ExperiencePayload) (snapshot.View[ExperiencePayload], error) {
	v, err := s.Store.Create(ctx, ownerID, initial)
	if err == nil {
		s.created = append(s.created, v.Entity.ID)
	}
	return v, err
}

func TestAddExperienceRemovesRecordWhenAttachFails(t *testing.T) {
	ctx := context.Background()
	profiles := &failingProfileStore{Store: snapshot.NewInMemoryStore[Payload]()}
	experiences := &recordingExperienceStore{Store: snapshot.NewInMemoryStore[ExperiencePayload]()}
	svc := NewService(profiles, experiences, catalog.NewInMemoryStore(), source.NewInMemoryStore(), &source.StaticResolver{})

	prof, err := svc.CreateProfile(ctx, "owner-1", Payload{DisplayName: "김하늘"})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	profiles.failUpdates = true
	_, err = svc.AddExperience(ctx, "owner-1", prof.Entity.ID, ExperiencePayload{
		CompanyName:   "한빛소프트랩",
		PositionTitle: "Backend Engineer",
		StartDate:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatal("AddExperience() error = nil, want attach failure")
	}

	if len(experiences.created) != 1 {
		t.Fatalf("created %d experience records, want 1", len(experiences.created))
	}
	if _, err := experiences.GetActive(ctx, experiences.created[0], false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("experience still readable after failed attach, error = %v", err)
	}
}

func TestUpdateProfileOwnershipChecked(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	prof, err := svc.CreateProfile(ctx, "owner-1", Payload{DisplayName: "김하늘"})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	_, err = svc.UpdateProfile(ctx, "intruder", prof.Entity.ID, Patch{DisplayName: strPtr("x")})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateProfile() by non-owner error = %v, want ErrNotFound", err)
	}
}

func TestDeleteExperienceOwnershipChecked(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	prof, err := svc.CreateProfile(ctx, "owner-1", Payload{DisplayName: "김하늘"})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	exp, err := svc.AddExperience(ctx, "owner-1", prof.Entity.ID, ExperiencePayload{
		CompanyName:   "한빛소프트랩",
		PositionTitle: "Backend Engineer",
		StartDate:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("AddExperience() error = %v", err)
	}

	// A caller who owns a different profile must not be able to reach
	// someone else's experience record through their own profile id.
	otherProf, err := svc.CreateProfile(ctx, "intruder", Payload{DisplayName: "다른사람"})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	err = svc.DeleteExperience(ctx, "intruder", otherProf.Entity.ID, exp.Entity.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("DeleteExperience() by non-owner error = %v, want ErrNotFound", err)
	}
	if _, err := svc.experiences.GetActive(ctx, exp.Entity.ID, false); err != nil {
		t.Fatalf("experience no longer readable after rejected delete: %v", err)
	}

	// The owner still can.
	if err := svc.DeleteExperience(ctx, "owner-1", prof.Entity.ID, exp.Entity.ID); err != nil {
		t.Fatalf("DeleteExperience() by owner error = %v", err)
	}
	if _, err := svc.experiences.GetActive(ctx, exp.Entity.ID, false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("experience readable after owner delete, error = %v", err)
	}
}

func TestPersonaViewResolvesKeywordsAndExperiences(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	pos, err := svc.keywords.Create(ctx, catalog.KindPosition, "Backend")
	if err != nil {
		t.Fatalf("keyword create error = %v", err)
	}
	skill, err := svc.keywords.Create(ctx, catalog.KindSkill, "Go")
	if err != nil {
		t.Fatalf("keyword create error = %v", err)
	}

	prof, err := svc.CreateProfile(ctx, "owner-1", Payload{
		DisplayName: "김하늘",
		PositionIDs: []string{pos.ID},
		SkillIDs:    []string{skill.ID},
	})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if _, err := svc.AddExperience(ctx, "owner-1", prof.Entity.ID, ExperiencePayload{
		CompanyName:   "한빛소프트랩",
		PositionTitle: "Backend Engineer",
		StartDate:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		Sequence:      1,
	}); err != nil {
		t.Fatalf("AddExperience() error = %v", err)
	}
	if _, err := svc.AddExperience(ctx, "owner-1", prof.Entity.ID, ExperiencePayload{
		CompanyName:   "첫직장",
		PositionTitle: "Junior",
		StartDate:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Sequence:      0,
	}); err != nil {
		t.Fatalf("AddExperience() error = %v", err)
	}

	view, _, err := svc.PersonaView(ctx, prof.Entity.ID)
	if err != nil {
		t.Fatalf("PersonaView() error = %v", err)
	}
	if len(view.Positions) != 1 || view.Positions[0] != "Backend" {
		t.Fatalf("Positions = %v, want [Backend]", view.Positions)
	}
	if len(view.Skills) != 1 || view.Skills[0] != "Go" {
		t.Fatalf("Skills = %v, want [Go]", view.Skills)
	}
	if len(view.Experiences) != 2 || view.Experiences[0].CompanyName != "첫직장" {
		t.Fatalf("Experiences not ordered by sequence: %+v", view.Experiences)
	}
}

func TestPersonaViewDowngradesFailedLinkResolution(t *testing.T) {
	ctx := context.Background()
	resolver := &source.StaticResolver{Content: map[string]string{
		"https://blog.example.com/ok": "동시성 설계 노트",
	}}
	svc := newTestService(t, resolver)

	prof, err := svc.CreateProfile(ctx, "owner-1", Payload{DisplayName: "김하늘"})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if _, err := svc.AddSource(ctx, "owner-1", prof.Entity.ID, source.KindLink, "블로그", "https://blog.example.com/ok"); err != nil {
		t.Fatalf("AddSource() error = %v", err)
	}
	if _, err := svc.AddSource(ctx, "owner-1", prof.Entity.ID, source.KindLink, "죽은 링크", "https://blog.example.com/gone"); err != nil {
		t.Fatalf("AddSource() error = %v", err)
	}
	if _, err := svc.AddSource(ctx, "owner-1", prof.Entity.ID, source.KindFile, "이력서", "https://files.example.com/r.pdf"); err != nil {
		t.Fatalf("AddSource() error = %v", err)
	}

	_, resolved, err := svc.PersonaView(ctx, prof.Entity.ID)
	if err != nil {
		t.Fatalf("PersonaView() error = %v", err)
	}
	if len(resolved) != 3 {
		t.Fatalf("resolved sources = %d, want 3", len(resolved))
	}
	if resolved[0].Content != "동시성 설계 노트" {
		t.Fatalf("resolved[0] = %+v, want resolved text", resolved[0])
	}
	if resolved[1].Content != resolveFallback {
		t.Fatalf("resolved[1] = %+v, want fallback line", resolved[1])
	}
	if resolved[2].Content != "https://files.example.com/r.pdf" {
		t.Fatalf("resolved[2] = %+v, want raw file URL", resolved[2])
	}
}

func TestPersonaPromptMentionsProfileFacts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	pos, _ := svc.keywords.Create(ctx, catalog.KindPosition, "Backend")
	skill, _ := svc.keywords.Create(ctx, catalog.KindSkill, "Go")
	prof, err := svc.CreateProfile(ctx, "owner-1", Payload{
		DisplayName: "김하늘",
		PositionIDs: []string{pos.ID},
		SkillIDs:    []string{skill.ID},
	})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if _, err := svc.AddExperience(ctx, "owner-1", prof.Entity.ID, ExperiencePayload{
		CompanyName:   "한빛소프트랩",
		PositionTitle: "Backend Engineer",
		StartDate:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("AddExperience() error = %v", err)
	}

	prompt, err := svc.PersonaPrompt(ctx, prof.Entity.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PersonaPrompt() error = %v", err)
	}
	for _, want := range []string{"Backend", "Go", "현재"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
