// Package weather resolves current conditions from OpenWeatherMap, falling
// back to wttr.in when no key is configured or the API call fails.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	defaultOWMURL  = "https://api.openweathermap.org"
	defaultWttrURL = "https://wttr.in"
)

type Options struct {
	APIKey  string
	OWMURL  string
	WttrURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

type Source struct {
	owm    *resty.Client
	wttr   *resty.Client
	apiKey string
	log    zerolog.Logger
}

func New(opts Options) *Source {
	if opts.OWMURL == "" {
		opts.OWMURL = defaultOWMURL
	}
	if opts.WttrURL == "" {
		opts.WttrURL = defaultWttrURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Source{
		owm: resty.New().
			SetBaseURL(opts.OWMURL).
			SetTimeout(opts.Timeout),
		wttr: resty.New().
			SetBaseURL(opts.WttrURL).
			SetHeader("User-Agent", "Mozilla/5.0 (compatible; WeatherBot/1.0)").
			SetTimeout(opts.Timeout),
		apiKey: opts.APIKey,
		log:    opts.Logger,
	}
}

// Current returns the observation for loc, or nil when both providers fail.
func (s *Source) Current(ctx context.Context, loc domain.Location) *domain.WeatherFact {
	if s.apiKey != "" {
		fact, err := s.fromOWM(ctx, loc)
		if err == nil {
			return fact
		}
		s.log.Warn().Err(err).Str("city", loc.City).Msg("openweathermap failed, trying wttr.in")
	}

	fact, err := s.fromWttr(ctx, loc)
	if err != nil {
		s.log.Warn().Err(err).Str("city", loc.City).Msg("weather unavailable")
		return nil
	}
	return fact
}

// Commute fetches home then office.
func (s *Source) Commute(ctx context.Context, home, office domain.Location) domain.CommuteWeather {
	return domain.CommuteWeather{
		Home:           s.Current(ctx, home),
		Office:         s.Current(ctx, office),
		HomeLocation:   home,
		OfficeLocation: office,
	}
}

type owmResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain json.RawMessage `json:"rain"`
}

func (s *Source) fromOWM(ctx context.Context, loc domain.Location) (*domain.WeatherFact, error) {
	resp, err := s.owm.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     loc.City + "," + loc.CountryCode,
			"appid": s.apiKey,
			"units": "metric",
			"lang":  "kr",
		}).
		Get("/data/2.5/weather")
	if err != nil {
		return nil, fmt.Errorf("openweathermap request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("openweathermap status %d", resp.StatusCode())
	}

	var r owmResponse
	if err := json.Unmarshal(resp.Body(), &r); err != nil {
		return nil, fmt.Errorf("decode openweathermap response: %w", err)
	}
	if r.Main == nil || len(r.Weather) == 0 {
		return nil, fmt.Errorf("openweathermap response missing main or weather block")
	}

	label := r.Name
	if label == "" {
		label = loc.City
	}
	return &domain.WeatherFact{
		Temperature:     round(r.Main.Temp),
		FeelsLike:       round(r.Main.FeelsLike),
		TempMin:         round(r.Main.TempMin),
		TempMax:         round(r.Main.TempMax),
		Humidity:        r.Main.Humidity,
		Description:     r.Weather[0].Description,
		RainProbability: owmRainProbability(r.Rain),
		WindSpeed:       r.Wind.Speed,
		LocationLabel:   label,
		Provider:        "openweathermap",
	}, nil
}

// The current-conditions endpoint has no probability; a rain block means it
// is raining now.
func owmRainProbability(rain json.RawMessage) int {
	if len(rain) == 0 || string(rain) == "null" {
		return 0
	}
	return 50
}

type wttrValue struct {
	Value string `json:"value"`
}

type wttrResponse struct {
	CurrentCondition []struct {
		TempC         string      `json:"temp_C"`
		FeelsLikeC    string      `json:"FeelsLikeC"`
		Humidity      string      `json:"humidity"`
		WindspeedKmph string      `json:"windspeedKmph"`
		WeatherDesc   []wttrValue `json:"weatherDesc"`
		LangKo        []wttrValue `json:"lang_ko"`
	} `json:"current_condition"`
	Weather []struct {
		MaxTempC string `json:"maxtempC"`
		MinTempC string `json:"mintempC"`
	} `json:"weather"`
}

func (s *Source) fromWttr(ctx context.Context, loc domain.Location) (*domain.WeatherFact, error) {
	resp, err := s.wttr.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"format": "j1", "lang": "ko"}).
		Get("/" + url.PathEscape(loc.City))
	if err != nil {
		return nil, fmt.Errorf("wttr.in request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("wttr.in status %d", resp.StatusCode())
	}

	var r wttrResponse
	if err := json.Unmarshal(resp.Body(), &r); err != nil {
		return nil, fmt.Errorf("decode wttr.in response: %w", err)
	}
	if len(r.CurrentCondition) == 0 {
		return nil, fmt.Errorf("wttr.in response has no current condition")
	}
	cur := r.CurrentCondition[0]

	temp, err := strconv.ParseFloat(cur.TempC, 64)
	if err != nil {
		return nil, fmt.Errorf("wttr.in temp_C %q: %w", cur.TempC, err)
	}
	feels := parseOr(cur.FeelsLikeC, temp)
	tmax, tmin := temp, temp
	if len(r.Weather) > 0 {
		tmax = parseOr(r.Weather[0].MaxTempC, temp)
		tmin = parseOr(r.Weather[0].MinTempC, temp)
	}

	desc := "알 수 없음"
	if len(cur.LangKo) > 0 && cur.LangKo[0].Value != "" {
		desc = cur.LangKo[0].Value
	} else if len(cur.WeatherDesc) > 0 && cur.WeatherDesc[0].Value != "" {
		desc = cur.WeatherDesc[0].Value
	}
	// Keywords are checked against both texts so a Korean description still
	// hits the English terms.
	var english string
	if len(cur.WeatherDesc) > 0 {
		english = cur.WeatherDesc[0].Value
	}

	humidity, _ := strconv.Atoi(cur.Humidity)
	return &domain.WeatherFact{
		Temperature:     round(temp),
		FeelsLike:       round(feels),
		TempMin:         round(tmin),
		TempMax:         round(tmax),
		Humidity:        humidity,
		Description:     desc,
		RainProbability: EstimateRainProbability(desc + " " + english),
		WindSpeed:       parseOr(cur.WindspeedKmph, 0) / 3.6,
		LocationLabel:   loc.City,
		Provider:        "wttr.in",
	}, nil
}

// EstimateRainProbability maps a free-text description to 60 for rain, 30
// for cloud cover, 0 otherwise.
func EstimateRainProbability(description string) int {
	d := strings.ToLower(description)
	for _, w := range []string{"rain", "비", "shower", "drizzle", "소나기"} {
		if strings.Contains(d, w) {
			return 60
		}
	}
	for _, w := range []string{"cloud", "구름", "overcast"} {
		if strings.Contains(d, w) {
			return 30
		}
	}
	return 0
}

func parseOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return v
}

func round(v float64) int {
	return int(math.RoundToEven(v))
}
