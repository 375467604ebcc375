package briefing

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/aucus/proactive-ai-bot/internal/state"
)

// UmbrellaThreshold is the rain probability from which an umbrella is
// recommended.
const UmbrellaThreshold = 30

const (
	maxNewsItems     = 5
	maxSummaryRunes  = 150
	maxEveningEvents = 5
	maxRecommended   = 2
	maxProjects      = 5
	maxActions       = 3
)

const (
	WeatherUnavailable = "🌤 좋은 아침이에요!\n\n날씨 정보를 가져올 수 없어요. 잠시 후 다시 시도해주세요."
	NoNews             = "📰 오늘의 뉴스\n\n뉴스를 가져오는 중 문제가 발생했어요. 잠시 후 다시 시도해주세요."
	NoNewArticles      = "새로운 기사가 없어요. 최근에 전해드린 소식을 다시 모아봤어요."
	NoEventsToday      = "오늘 예정된 일정이 없어요! 😊"
	CalendarNotLinked  = "📅 오늘 일정 브리핑\n\n구글 캘린더 연동이 설정되지 않았어요. (GOOGLE_* 시크릿 확인 필요)"
	NoProjects         = "현재 진행 중인 프로젝트가 없어요. 새로운 프로젝트를 시작해볼까요? 🚀"
)

// Umbrella is the binary umbrella line.
func Umbrella(rainProbability int) string {
	if rainProbability >= UmbrellaThreshold {
		return "☂️ 우산을 챙기세요!"
	}
	return "☂️ 우산은 필요 없어요"
}

// Weather renders the morning weather message. A nil fact renders the
// unavailable message.
func Weather(f *domain.WeatherFact, loc domain.Location) string {
	if f == nil {
		return WeatherUnavailable
	}
	label := loc.Label()
	if label == "" {
		label = f.LocationLabel
	}

	var sb strings.Builder
	sb.WriteString("🌤 좋은 아침이에요!\n\n")
	fmt.Fprintf(&sb, "오늘 %s 날씨:\n", label)
	fmt.Fprintf(&sb, "- 현재 %d°C (체감 %d°C)\n", f.Temperature, f.FeelsLike)
	fmt.Fprintf(&sb, "- %s\n", f.Description)
	fmt.Fprintf(&sb, "- 강수확률 %d%%\n", f.RainProbability)
	sb.WriteString("\n")
	sb.WriteString(Umbrella(f.RainProbability))
	return sb.String()
}

// Commute renders home and office side by side. The umbrella line follows
// the wetter of the two.
func Commute(c domain.CommuteWeather) string {
	var sb strings.Builder
	sb.WriteString("🚗 출근 준비 알림\n\n")
	commuteSide(&sb, c.HomeLocation, "집", c.Home)
	commuteSide(&sb, c.OfficeLocation, "회사", c.Office)
	sb.WriteString(Umbrella(c.MaxRainProbability()))
	return sb.String()
}

func commuteSide(sb *strings.Builder, loc domain.Location, fallback string, f *domain.WeatherFact) {
	name := loc.DisplayName
	if name == "" {
		name = fallback
	}
	if f == nil {
		fmt.Fprintf(sb, "📍 %s 날씨 정보를 가져올 수 없어요\n\n", name)
		return
	}
	fmt.Fprintf(sb, "📍 %s 날씨:\n", name)
	fmt.Fprintf(sb, "- %d°C (체감 %d°C)\n", f.Temperature, f.FeelsLike)
	fmt.Fprintf(sb, "- %s\n", f.Description)
	fmt.Fprintf(sb, "- 강수확률 %d%%\n\n", f.RainProbability)
}

// News renders up to five items. stale marks a briefing made of items that
// were already delivered.
func News(items []domain.NewsItem, stale bool) string {
	if len(items) == 0 {
		return NoNews
	}

	var sb strings.Builder
	sb.WriteString("📰 오늘의 테크 뉴스\n\n")
	if stale {
		sb.WriteString(NoNewArticles)
		sb.WriteString("\n\n")
	}
	for i, it := range items {
		if i == maxNewsItems {
			break
		}
		category := it.Category
		if category == "" {
			category = domain.CategoryNews
		}
		fmt.Fprintf(&sb, "%s [%s] %s\n", keycap(i+1), category, it.Title)
		if it.Summary != "" {
			fmt.Fprintf(&sb, "   %s\n", cut(it.Summary, maxSummaryRunes))
		}
		if it.URL != "" {
			fmt.Fprintf(&sb, "   🔗 %s\n", it.URL)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Schedule renders today's events sorted by their raw start text.
func Schedule(events []domain.CalendarEvent) string {
	var sb strings.Builder
	sb.WriteString("📅 오늘 일정 브리핑\n\n")
	if len(events) == 0 {
		sb.WriteString(NoEventsToday)
		return sb.String()
	}

	sorted := append([]domain.CalendarEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	for _, e := range sorted {
		if e.Important {
			sb.WriteString("⭐ ")
		}
		fmt.Fprintf(&sb, "%s - %s", timeLabel(e), title(e))
		if e.Location != "" {
			fmt.Fprintf(&sb, " (%s)", e.Location)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Evening renders tonight's events, tomorrow's preview and recommendations.
func Evening(b domain.EveningBriefing) string {
	var sb strings.Builder
	sb.WriteString("🌆 퇴근 시간 알림\n\n")

	if len(b.EveningEvents) > 0 {
		sb.WriteString("📅 오늘 저녁 일정:\n")
		for i, e := range b.EveningEvents {
			if i == maxEveningEvents {
				break
			}
			fmt.Fprintf(&sb, "- %s %s", timeLabel(e), title(e))
			if e.Location != "" {
				fmt.Fprintf(&sb, " (%s)", e.Location)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("오늘 저녁 예정된 일정이 없어요! 😊\n\n")
	}

	if len(b.TomorrowPreview) > 0 {
		sb.WriteString("📆 내일 주요 일정 미리보기:\n")
		for _, e := range b.TomorrowPreview {
			fmt.Fprintf(&sb, "- %s %s\n", timeLabel(e), title(e))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("내일 예정된 주요 일정이 없어요.\n\n")
	}

	if len(b.Recommendations) > 0 {
		sb.WriteString("💡 퇴근길 추천:\n")
		for i, r := range b.Recommendations {
			if i == maxRecommended {
				break
			}
			icon := "🎬"
			if r.Type == "article" {
				icon = "📰"
			}
			fmt.Fprintf(&sb, "%s %s\n", icon, r.Title)
			if r.Description != "" {
				fmt.Fprintf(&sb, "   %s\n", r.Description)
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("오늘 하루도 수고하셨어요! 🌙")
	return sb.String()
}

// DefaultRecommendations are the curated evening suggestions.
func DefaultRecommendations() []domain.Recommendation {
	return []domain.Recommendation{
		{Type: "article", Title: "오늘 읽을만한 기술 아티클", Description: "AI/ML 트렌드 관련 최신 글들을 추천해드려요", Source: "curated"},
		{Type: "video", Title: "인기 기술 유튜브 영상", Description: "요즘 핫한 개발/기술 관련 영상", Source: "youtube_trending"},
	}
}

// Project renders the night reminder.
func Project(r domain.ProjectReminders) string {
	var sb strings.Builder
	sb.WriteString("🌙 저녁 프로젝트 리마인더\n\n")
	if !r.HasProjects() {
		sb.WriteString(NoProjects)
		return sb.String()
	}

	fmt.Fprintf(&sb, "진행 중인 프로젝트 %d개:\n\n", len(r.Projects))
	for i, p := range r.Projects {
		if i == maxProjects {
			break
		}
		name := p.Title
		if name == "" {
			name = "제목 없음"
		}
		fmt.Fprintf(&sb, "%s **%s**\n", keycap(i+1), name)
		if len(p.NextActions) > 0 {
			sb.WriteString("   다음 액션:\n")
			for j, a := range p.NextActions {
				if j == maxActions {
					break
				}
				fmt.Fprintf(&sb, "   - %s\n", a)
			}
		} else {
			sb.WriteString("   다음 액션을 추가해보세요! ✨\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("오늘 저녁 시간을 활용해서 조금씩 진행해보세요! 💪")
	return sb.String()
}

// HealthCheck is one line of the health report.
type HealthCheck struct {
	Name string
	OK   bool
}

type HealthReport struct {
	Checks []HealthCheck
	At     time.Time
}

// Healthy reports whether every named check passed.
func (r HealthReport) Healthy(names ...string) bool {
	for _, n := range names {
		for _, c := range r.Checks {
			if c.Name == n && !c.OK {
				return false
			}
		}
	}
	return true
}

func Health(r HealthReport) string {
	var sb strings.Builder
	sb.WriteString("🏥 시스템 헬스체크\n\n")
	for _, c := range r.Checks {
		mark, word := "❌", "비정상"
		if c.OK {
			mark, word = "✅", "정상"
		}
		fmt.Fprintf(&sb, "%s %s: %s\n", mark, capitalize(c.Name), word)
	}
	fmt.Fprintf(&sb, "\n⏰ %s", r.At.Format(time.RFC3339))
	return sb.String()
}

// Settings renders the current settings document.
func Settings(s state.Settings) string {
	var sb strings.Builder
	sb.WriteString("⚙️ 현재 설정\n\n")
	sb.WriteString("알림 설정:\n")
	for _, kind := range []string{"weather", "news", "schedule", "evening", "night", "commute"} {
		mark := "❌"
		if s.Notifications.Enabled(kind) {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, capitalize(kind))
	}

	city := s.Location.City
	if city == "" {
		city = "Seoul"
	}
	cats := make([]string, len(s.NewsCategories))
	for i, c := range s.NewsCategories {
		cats[i] = string(c)
	}
	fmt.Fprintf(&sb, "\n위치: %s\n", city)
	fmt.Fprintf(&sb, "뉴스 카테고리: %s\n", strings.Join(cats, ", "))
	sb.WriteString("\n설정 변경은 아직 지원되지 않아요. 곧 추가될 예정입니다! 🚀")
	return sb.String()
}

// Apology is what the user sees when composing a briefing blew up.
func Apology(kind Kind) string {
	return fmt.Sprintf("😥 %s 알림을 준비하는 중 문제가 발생했어요. 잠시 후 다시 시도해주세요.", kind.Label())
}

func keycap(n int) string {
	return fmt.Sprintf("%d️⃣", n)
}

func timeLabel(e domain.CalendarEvent) string {
	if e.TimeLabel == "" {
		return "시간 미정"
	}
	return e.TimeLabel
}

func title(e domain.CalendarEvent) string {
	if e.Title == "" {
		return "제목 없음"
	}
	return e.Title
}

func cut(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
