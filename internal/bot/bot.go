// Package bot answers chat commands in poll mode. It shares the briefing
// pipeline with the scheduled commands but delivers to the chat a command
// came from.
package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aucus/proactive-ai-bot/internal/briefing"
	"github.com/aucus/proactive-ai-bot/internal/classify"
	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/aucus/proactive-ai-bot/internal/state"
	"github.com/aucus/proactive-ai-bot/internal/telegram"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	startText = `안녕하세요! 👋

저는 능동적으로 정보를 알려주는 AI 비서예요.

📋 사용 가능한 명령어:
/weather - 현재 날씨 확인
/news [topic] - 뉴스 브리핑 (topic: ai, tech, edtech)
/schedule - 오늘 일정 확인
/project - 프로젝트 현황
/settings - 설정 확인
/help - 도움말

자동 알림:
🌤 07:00 - 날씨 알림
📰 08:00 - 뉴스 브리핑
📅 09:30 - 일정 브리핑 (평일)
🌆 18:00 - 퇴근 알림 (평일)
🌙 21:00 - 프로젝트 리마인더`

	helpText = `📖 도움말

명령어 목록:
/start - 시작하기
/weather - 현재 날씨 확인
/news [topic] - 뉴스 브리핑
  • topic: ai, tech, edtech (선택)
/schedule - 오늘 일정 확인
/project - 프로젝트 현황
/settings - 설정 확인
/help - 이 도움말

자동 알림은 매일 지정된 시간에 자동으로 전송됩니다.
설정 변경은 /settings 명령어로 가능합니다.`

	unknownText      = "알 수 없는 명령어예요. /help를 입력하면 사용 가능한 명령어를 확인할 수 있어요."
	settingsFailText = "설정을 불러오는 중 오류가 발생했어요."
)

// Client is the chat transport.
type Client interface {
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
	SendTo(ctx context.Context, chatID, text string) error
}

// Composer builds briefings without delivering them.
type Composer interface {
	Compose(ctx context.Context, kind briefing.Kind) briefing.Briefing
	ComposeNews(ctx context.Context, categories []domain.Category) briefing.Briefing
	RecordDelivered(ctx context.Context, b briefing.Briefing)
}

type SettingsLoader interface {
	Load(ctx context.Context) (state.Settings, error)
}

type Options struct {
	Client   Client
	Pipeline Composer
	// CalendarConfigured gates /schedule.
	CalendarConfigured func() bool
	Settings           SettingsLoader
	// ChatID is the only chat that gets answers.
	ChatID string
	// Backoff paces polling after failures. Defaults to exponential up to
	// one minute.
	Backoff backoff.BackOff
	Logger  zerolog.Logger
}

type Bot struct {
	client   Client
	pipeline Composer
	calendar func() bool
	settings SettingsLoader
	chatID   string
	backoff  backoff.BackOff
	log      zerolog.Logger
}

func New(opts Options) *Bot {
	bo := opts.Backoff
	if bo == nil {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = time.Second
		exp.MaxInterval = time.Minute
		exp.MaxElapsedTime = 0
		exp.Reset()
		bo = exp
	}
	cal := opts.CalendarConfigured
	if cal == nil {
		cal = func() bool { return false }
	}
	return &Bot{
		client:   opts.Client,
		pipeline: opts.Pipeline,
		calendar: cal,
		settings: opts.Settings,
		chatID:   opts.ChatID,
		backoff:  bo,
		log:      opts.Logger,
	}
}

// Run polls for updates until ctx is cancelled, handling one command at a
// time. Poll failures are retried after a backoff; Run only returns when ctx
// is done.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info().Str("chat_id", b.chatID).Msg("polling started")
	var offset int64
	for {
		if ctx.Err() != nil {
			b.log.Info().Msg("polling stopped")
			return nil
		}

		updates, err := b.client.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			wait := b.backoff.NextBackOff()
			if wait == backoff.Stop {
				wait = time.Minute
			}
			b.log.Warn().Err(err).Dur("retry_in", wait).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}
		b.backoff.Reset()

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message != nil {
				b.Handle(ctx, u.Message)
			}
		}
	}
}

// Handle answers one message. Messages from other chats and plain text are
// ignored.
func (b *Bot) Handle(ctx context.Context, msg *telegram.Message) {
	chatID := formatChatID(msg.Chat.ID)
	if b.chatID != "" && chatID != b.chatID {
		b.log.Warn().Str("chat_id", chatID).Msg("ignoring message from unknown chat")
		return
	}
	cmd, args, ok := parseCommand(msg.Text)
	if !ok {
		return
	}

	log := b.log.With().Str("command", cmd).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("command failed")
			b.reply(ctx, chatID, "명령을 처리하는 중 오류가 발생했어요.")
		}
	}()
	log.Info().Msg("command received")

	switch cmd {
	case "start":
		b.reply(ctx, chatID, startText)
	case "help":
		b.reply(ctx, chatID, helpText)
	case "weather":
		b.reply(ctx, chatID, "날씨 정보를 가져오는 중...")
		b.reply(ctx, chatID, b.pipeline.Compose(ctx, briefing.KindWeather).Text)
	case "news":
		b.reply(ctx, chatID, "뉴스를 가져오는 중...")
		nb := b.pipeline.ComposeNews(ctx, b.newsCategories(ctx, args))
		if b.reply(ctx, chatID, nb.Text) {
			b.pipeline.RecordDelivered(ctx, nb)
		}
	case "schedule":
		b.reply(ctx, chatID, "일정을 확인하는 중...")
		if !b.calendar() {
			b.reply(ctx, chatID, briefing.CalendarNotLinked)
			return
		}
		b.reply(ctx, chatID, b.pipeline.Compose(ctx, briefing.KindSchedule).Text)
	case "project":
		b.reply(ctx, chatID, "프로젝트 정보를 확인하는 중...")
		b.reply(ctx, chatID, b.pipeline.Compose(ctx, briefing.KindNight).Text)
	case "settings":
		if b.settings == nil {
			b.reply(ctx, chatID, briefing.Settings(state.DefaultSettings()))
			return
		}
		s, err := b.settings.Load(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("loading settings failed")
			b.reply(ctx, chatID, settingsFailText)
			return
		}
		b.reply(ctx, chatID, briefing.Settings(s))
	default:
		b.reply(ctx, chatID, unknownText)
	}
}

// newsCategories resolves the optional topic argument, falling back to the
// stored settings.
func (b *Bot) newsCategories(ctx context.Context, args []string) []domain.Category {
	if len(args) > 0 {
		cat, err := classify.ResolveAlias(args[0])
		if err == nil {
			return []domain.Category{cat}
		}
		b.log.Debug().Err(err).Msg("ignoring news topic")
	}
	if b.settings == nil {
		return nil
	}
	s, _ := b.settings.Load(ctx)
	return s.NewsCategories
}

func (b *Bot) reply(ctx context.Context, chatID, text string) bool {
	if err := b.client.SendTo(ctx, chatID, text); err != nil {
		b.log.Error().Err(err).Msg("reply failed")
		return false
	}
	return true
}

func formatChatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseCommand splits "/news@my_bot ai" into "news" and ["ai"].
func parseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:], cmd != ""
}
