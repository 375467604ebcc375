package ai

import (
	"fmt"
	"strings"

	"github.com/aucus/proactive-ai-bot/internal/domain"
)

const weatherPrompt = `다음 날씨 정보를 바탕으로 친근하고 자연스러운 아침 인사 메시지를 작성해주세요.
한국어로 작성하고, 이모지를 적절히 사용해주세요.

날씨 정보:
- 현재 기온: %d°C
- 체감 온도: %d°C
- 최고/최저: %d°C / %d°C
- 강수확률: %d%%
- 날씨 설명: %s

옷차림 추천과 우산 필요 여부도 포함해주세요.`

const commutePrompt = `다음 집과 회사의 날씨 정보를 바탕으로 친근하고 자연스러운 출근 준비 메시지를 작성해주세요.
한국어로 작성하고, 이모지를 적절히 사용해주세요.

%s
두 곳 중 높은 강수확률: %d%%

옷차림 추천과 우산 필요 여부도 포함해주세요.`

const schedulePrompt = `다음 오늘 일정을 바탕으로 친근하고 자연스러운 브리핑 메시지를 작성해주세요.
한국어로 작성하고, 중요 일정이 있으면 강조해주세요.

일정:
%s

기존 메시지 형식은 유지하면서 자연스럽게 개선해주세요.`

const eveningPrompt = `다음 퇴근 시간 정보를 바탕으로 친근하고 자연스러운 저녁 알림 메시지를 작성해주세요.
한국어로 작성하고, 이모지를 적절히 사용해주세요.

저녁 일정: %d개
내일 중요 일정: %d개

기존 메시지 형식은 유지하면서 자연스럽게 개선해주세요.`

const projectPrompt = `다음 진행 중인 프로젝트 정보를 바탕으로 친근하고 자연스러운 저녁 프로젝트 리마인더 메시지를 작성해주세요.
한국어로 작성하고, 이모지를 적절히 사용해주세요. 다음 액션을 제안하는 톤으로 작성해주세요.

프로젝트:
%s

기존 메시지 형식은 유지하면서 자연스럽게 개선해주세요.`

const summarizePrompt = `다음 뉴스 기사를 간결하게 2-3문장으로 요약해주세요.
핵심 내용만 포함하고, 한국어로 작성해주세요.

%s`

const summarizeInputRunes = 500

func WeatherPrompt(f domain.WeatherFact) string {
	return fmt.Sprintf(weatherPrompt, f.Temperature, f.FeelsLike, f.TempMax, f.TempMin, f.RainProbability, f.Description)
}

func CommutePrompt(c domain.CommuteWeather) string {
	var sb strings.Builder
	side := func(loc domain.Location, f *domain.WeatherFact) {
		if f == nil {
			fmt.Fprintf(&sb, "%s: 날씨 정보 없음\n", loc.Label())
			return
		}
		fmt.Fprintf(&sb, "%s: %d°C (체감 %d°C), %s, 강수확률 %d%%\n",
			loc.Label(), f.Temperature, f.FeelsLike, f.Description, f.RainProbability)
	}
	side(c.HomeLocation, c.Home)
	side(c.OfficeLocation, c.Office)
	return fmt.Sprintf(commutePrompt, sb.String(), c.MaxRainProbability())
}

// SchedulePrompt lists the first five events.
func SchedulePrompt(events []domain.CalendarEvent) string {
	lines := make([]string, 0, 5)
	for i, e := range events {
		if i == 5 {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s %s", e.TimeLabel, e.Title))
	}
	return fmt.Sprintf(schedulePrompt, strings.Join(lines, "\n"))
}

func EveningPrompt(b domain.EveningBriefing) string {
	return fmt.Sprintf(eveningPrompt, len(b.EveningEvents), len(b.TomorrowPreview))
}

// ProjectPrompt lists the first three projects with two next actions each.
func ProjectPrompt(r domain.ProjectReminders) string {
	lines := make([]string, 0, 3)
	for i, p := range r.Projects {
		if i == 3 {
			break
		}
		actions := p.NextActions
		if len(actions) > 2 {
			actions = actions[:2]
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", p.Title, strings.Join(actions, ", ")))
	}
	return fmt.Sprintf(projectPrompt, strings.Join(lines, "\n"))
}

func SummarizePrompt(text string) string {
	if r := []rune(text); len(r) > summarizeInputRunes {
		text = string(r[:summarizeInputRunes])
	}
	return fmt.Sprintf(summarizePrompt, text)
}
