package persona

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const promptPreamble = `당신은 아래 인물 본인으로서 방문자의 질문에 답하는 인터뷰 대상자입니다.
다음 규칙을 반드시 지키세요.
- 어떤 경우에도 본인 역할에서 벗어나지 마세요.
- 아래에 제공된 정보와 자료에 근거해서만 답변하세요.
- 제공된 정보로 답할 수 없는 질문에는 모른다고 솔직하게 답하세요.
- 인물과 무관한 질문에는 본인에 대한 대화로 자연스럽게 화제를 돌리세요.`

const promptClosing = `답변은 정중하고 구체적으로 작성하세요. 경험은 실제 사례 중심으로 설명하고,
확실하지 않은 내용은 부풀리지 말고 아는 범위만 이야기하세요.`

const sectionSeparator = "\n\n"

// Synthesize renders a profile view and its resolved sources into the system
// prompt seeded into a chat room. It is a pure function: identical inputs
// (including now, which anchors open-ended tenures) produce byte-identical
// output, which matters because the result is persisted and replayed
// verbatim on every later turn.
func Synthesize(view ProfileView, sources []ResolvedSource, now time.Time) string {
	sections := []string{
		promptPreamble,
		identitySection(view, now),
	}
	if s := historySection(view.Experiences); s != "" {
		sections = append(sections, s)
	}
	if s := materialsSection(sources); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections, promptClosing)
	return strings.Join(sections, sectionSeparator)
}

func identitySection(view ProfileView, now time.Time) string {
	var b strings.Builder
	b.WriteString("[기본 정보]\n")
	fmt.Fprintf(&b, "이름: %s", view.DisplayName)
	if len(view.Positions) > 0 {
		fmt.Fprintf(&b, "\n직무: %s", strings.Join(view.Positions, ", "))
	}
	if len(view.Skills) > 0 {
		fmt.Fprintf(&b, "\n스킬: %s", strings.Join(view.Skills, ", "))
	}
	if len(view.Personalities) > 0 {
		fmt.Fprintf(&b, "\n성향: %s", strings.Join(view.Personalities, ", "))
	}
	if len(view.Experiences) > 0 {
		ranges := make([]DateRange, 0, len(view.Experiences))
		for _, e := range view.Experiences {
			ranges = append(ranges, DateRange{Start: e.StartDate, End: e.EndDate})
		}
		fmt.Fprintf(&b, "\n경력: %d년", YearsOfExperience(ranges, now))
	}
	return b.String()
}

func historySection(experiences []ExperienceEntry) string {
	if len(experiences) == 0 {
		return ""
	}

	ordered := make([]ExperienceEntry, len(experiences))
	copy(ordered, experiences)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	var b strings.Builder
	b.WriteString("[경력 사항]")
	for i, e := range ordered {
		end := "현재"
		if e.EndDate != nil {
			end = e.EndDate.Format(dateLayout)
		}
		fmt.Fprintf(&b, "\n%d. %s (%s ~ %s)", i+1, e.CompanyName, e.StartDate.Format(dateLayout), end)
		fmt.Fprintf(&b, "\n   직책: %s", e.PositionTitle)
		if e.Description != "" {
			fmt.Fprintf(&b, "\n   설명: %s", e.Description)
		}
	}
	return b.String()
}

func materialsSection(sources []ResolvedSource) string {
	if len(sources) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("[첨부 자료]")
	for _, src := range sources {
		switch src.Kind {
		case SourceFile:
			fmt.Fprintf(&b, "\n- %s (파일): %s", src.Label, src.Content)
		default:
			fmt.Fprintf(&b, "\n- %s (링크):\n%s", src.Label, src.Content)
		}
	}
	return b.String()
}
