package persona

import (
	"strings"
	"testing"
	"time"
)

func backendView() ProfileView {
	return ProfileView{
		DisplayName: "김하늘",
		Positions:   []string{"Backend"},
		Skills:      []string{"Go", "PostgreSQL"},
		Experiences: []ExperienceEntry{
			{
				CompanyName:   "한빛소프트랩",
				PositionTitle: "Backend Engineer",
				StartDate:     time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
				Description:   "채팅 서비스 백엔드 개발",
				Sequence:      0,
			},
		},
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	sources := []ResolvedSource{
		{Label: "이력서", Kind: SourceFile, Content: "https://files.example.com/resume.pdf"},
		{Label: "블로그", Kind: SourceLink, Content: "Go 동시성에 대한 글"},
	}

	first := Synthesize(backendView(), sources, now)
	second := Synthesize(backendView(), sources, now)
	if first != second {
		t.Fatalf("Synthesize() not byte-identical across calls")
	}
}

func TestSynthesizeRendersIdentityAndHistory(t *testing.T) {
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	out := Synthesize(backendView(), nil, now)

	for _, want := range []string{"김하늘", "Backend", "Go, PostgreSQL", "2022-01-01 ~ 현재", "경력: 4년"} {
		if !strings.Contains(out, want) {
			t.Fatalf("prompt missing %q:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, promptPreamble) {
		t.Fatalf("prompt must open with the fixed policy preamble")
	}
	if !strings.HasSuffix(out, promptClosing) {
		t.Fatalf("prompt must end with the fixed closing guidance")
	}
}

func TestSynthesizeOrdersExperiencesBySequence(t *testing.T) {
	view := backendView()
	view.Experiences = []ExperienceEntry{
		{CompanyName: "두번째회사", PositionTitle: "Lead", StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Sequence: 1},
		{CompanyName: "첫번째회사", PositionTitle: "Junior", StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Sequence: 0},
	}
	out := Synthesize(view, nil, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	first := strings.Index(out, "첫번째회사")
	second := strings.Index(out, "두번째회사")
	if first == -1 || second == -1 || first > second {
		t.Fatalf("experiences not ordered by sequence: first=%d second=%d", first, second)
	}
}

func TestSynthesizeRendersSourcesByKind(t *testing.T) {
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	sources := []ResolvedSource{
		{Label: "포트폴리오", Kind: SourceFile, Content: "https://files.example.com/portfolio.pdf"},
		{Label: "기술 블로그", Kind: SourceLink, Content: "분산 시스템 설계 노트"},
	}
	out := Synthesize(backendView(), sources, now)

	if !strings.Contains(out, "포트폴리오 (파일): https://files.example.com/portfolio.pdf") {
		t.Fatalf("file source must render its raw URL:\n%s", out)
	}
	if !strings.Contains(out, "기술 블로그 (링크):\n분산 시스템 설계 노트") {
		t.Fatalf("link source must render resolved content:\n%s", out)
	}
}

func TestSynthesizeOmitsYearsWithoutExperience(t *testing.T) {
	view := backendView()
	view.Experiences = nil
	out := Synthesize(view, nil, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	if strings.Contains(out, "경력:") {
		t.Fatalf("years line should be absent for a profile with no experience:\n%s", out)
	}
	if strings.Contains(out, "[경력 사항]") {
		t.Fatalf("history section should be absent for a profile with no experience")
	}
}
