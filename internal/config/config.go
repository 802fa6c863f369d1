// Package config loads the process configuration from the environment.
// Configuration is read once in main and passed down explicitly; no other
// package looks at the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/weather-briefing/internal/analysis"
	"github.com/i474232898/weather-briefing/internal/common"
	"github.com/i474232898/weather-briefing/internal/severity"
	"github.com/i474232898/weather-briefing/internal/weather"
)

// ErrorType categorizes configuration failures.
type ErrorType string

const (
	// ErrParsing means an environment value could not be decoded.
	ErrParsing ErrorType = "PARSING_FAILED"
	// ErrValidation means the decoded configuration broke a validation rule.
	ErrValidation ErrorType = "VALIDATION_FAILED"
)

// Error is returned by Load.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config is the complete process configuration.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`

	Location  LocationConfig
	Schedule  ScheduleConfig
	Telegram  TelegramConfig
	Providers ProviderConfig
	Narrative NarrativeConfig
	Ledger    LedgerConfig
	Report    ReportConfig
	Kafka     KafkaConfig
	Severity  SeverityConfig
	Analysis  AnalysisConfig
}

type LocationConfig struct {
	Name      string  `envconfig:"LOCATION_NAME" validate:"required"`
	Latitude  float64 `envconfig:"LATITUDE" validate:"latitude"`
	Longitude float64 `envconfig:"LONGITUDE" validate:"longitude"`
	Timezone  string  `envconfig:"TIMEZONE" default:"UTC" validate:"timezone"`
}

// ScheduleConfig holds the trigger and the local hour windows of each period.
type ScheduleConfig struct {
	Cron string `envconfig:"SCHEDULE_CRON" default:"5 * * * *" validate:"required"`

	MorningStart int `envconfig:"MORNING_START_HOUR" default:"6" validate:"min=0,max=23"`
	MiddayStart  int `envconfig:"MIDDAY_START_HOUR" default:"11" validate:"gtfield=MorningStart,max=23"`
	EveningStart int `envconfig:"EVENING_START_HOUR" default:"17" validate:"gtfield=MiddayStart,max=23"`
	EveningEnd   int `envconfig:"EVENING_END_HOUR" default:"23" validate:"gtfield=EveningStart,max=24"`
}

type TelegramConfig struct {
	Token   string `envconfig:"TELEGRAM_TOKEN" validate:"required"`
	ChatID  string `envconfig:"CHANNEL_ID" validate:"required"`
	BaseURL string `envconfig:"TELEGRAM_BASE_URL" default:"https://api.telegram.org" validate:"url"`
}

type ProviderConfig struct {
	// OpenMeteoModels is the ordered forecast chain, one provider per model.
	OpenMeteoModels   []string      `envconfig:"OPENMETEO_MODELS" default:"best_match,icon_seamless,gfs_seamless" validate:"min=1,dive,required"`
	OpenWeatherAPIKey string        `envconfig:"OPENWEATHER_API_KEY"`
	WeatherAPIKey     string        `envconfig:"WEATHERAPI_API_KEY"`
	Timeout           time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"15s" validate:"gt=0"`
	UserAgent         string        `envconfig:"USER_AGENT" default:"weather-briefing/1.0"`
}

type NarrativeConfig struct {
	// Backends is the cascade order.
	Backends []string      `envconfig:"NARRATIVE_BACKENDS" default:"openrouter,groq,gemini" validate:"dive,oneof=openrouter groq gemini"`
	Timeout  time.Duration `envconfig:"NARRATIVE_TIMEOUT" default:"30s" validate:"gt=0"`
	Periods  []string      `envconfig:"NARRATIVE_PERIODS" default:"morning,evening" validate:"dive,oneof=morning midday evening"`
	Language string        `envconfig:"NARRATIVE_LANGUAGE" default:"English"`

	OpenRouterAPIKey string `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterModel  string `envconfig:"OPENROUTER_MODEL" default:"meta-llama/llama-3.3-70b-instruct:free"`
	GroqAPIKey       string `envconfig:"GROQ_API_KEY"`
	GroqModel        string `envconfig:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`
	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY"`
	GeminiModel      string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
}

type LedgerConfig struct {
	// Path of the JSON ledger. Empty keeps the ledger in memory, which only
	// deduplicates within one scheduled process.
	Path    string `envconfig:"LEDGER_PATH" default:"data/ledger.json"`
	History int    `envconfig:"LEDGER_HISTORY" default:"21" validate:"min=0"`
}

type ReportConfig struct {
	Hashtag string `envconfig:"REPORT_HASHTAG"`
	Banner  string `envconfig:"REPORT_BANNER"`
}

type KafkaConfig struct {
	// Brokers enables the run event stream when non-empty.
	Brokers []string `envconfig:"KAFKA_BROKERS" validate:"dive,hostname_port"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"weather.briefing.runs"`
}

type SeverityConfig struct {
	GustCaution        float64 `envconfig:"WIND_GUST_CAUTION_KMH" default:"54"`
	GustSevere         float64 `envconfig:"WIND_GUST_SEVERE_KMH" default:"90" validate:"gtfield=GustCaution"`
	GeomagneticCaution int     `envconfig:"GEOMAGNETIC_CAUTION_SCALE" default:"1" validate:"min=1,max=5"`
	GeomagneticSevere  int     `envconfig:"GEOMAGNETIC_SEVERE_SCALE" default:"3" validate:"gtfield=GeomagneticCaution,max=5"`
	HeatCaution        float64 `envconfig:"HEAT_CAUTION_C" default:"30"`
	HeatSevere         float64 `envconfig:"HEAT_SEVERE_C" default:"35" validate:"gtfield=HeatCaution"`
	ColdCaution        float64 `envconfig:"COLD_CAUTION_C" default:"-15"`
	ColdSevere         float64 `envconfig:"COLD_SEVERE_C" default:"-25" validate:"ltfield=ColdCaution"`
	IcingTier          string  `envconfig:"ICING_TIER" default:"caution" validate:"oneof=caution severe"`
	FreezingTier       string  `envconfig:"FREEZING_PRECIP_TIER" default:"severe" validate:"oneof=caution severe"`
}

type AnalysisConfig struct {
	PressureStep           float64 `envconfig:"PRESSURE_STEP_HPA" default:"1.0" validate:"gt=0"`
	HumidityStep           float64 `envconfig:"HUMIDITY_STEP_PCT" default:"10" validate:"gt=0"`
	FogSpread              float64 `envconfig:"FOG_SPREAD_C" default:"2.0" validate:"gte=0"`
	PrecipitationIntensity float64 `envconfig:"PRECIPITATION_INTENSITY_MM" default:"0.1" validate:"gt=0"`
	PrecipitationChance    float64 `envconfig:"PRECIPITATION_PROBABILITY_PCT" default:"50" validate:"min=0,max=100"`
}

var validate = validator.New()

// Load reads .env (when present) and the environment into a validated Config.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &Error{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.normalize()

	if err := validate.Struct(cfg); err != nil {
		return nil, &Error{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Providers.OpenMeteoModels = common.CleanList(c.Providers.OpenMeteoModels)
	c.Narrative.Backends = common.CleanList(c.Narrative.Backends)
	c.Narrative.Periods = common.CleanList(c.Narrative.Periods)
	c.Kafka.Brokers = common.CleanList(c.Kafka.Brokers)
}

// WeatherLocation resolves the configured place, loading its time zone.
func (c *Config) WeatherLocation() (weather.Location, error) {
	tz, err := time.LoadLocation(c.Location.Timezone)
	if err != nil {
		return weather.Location{}, &Error{Type: ErrValidation, Message: "unknown TIMEZONE", Err: err}
	}
	return weather.Location{
		Name:     c.Location.Name,
		Lat:      c.Location.Latitude,
		Lon:      c.Location.Longitude,
		Timezone: tz,
	}, nil
}

// PeriodSchedule builds the contiguous morning, midday and evening windows.
func (c *Config) PeriodSchedule() weather.PeriodSchedule {
	s := c.Schedule
	return weather.PeriodSchedule{
		{Period: weather.PeriodMorning, Start: s.MorningStart, End: s.MiddayStart},
		{Period: weather.PeriodMidday, Start: s.MiddayStart, End: s.EveningStart},
		{Period: weather.PeriodEvening, Start: s.EveningStart, End: s.EveningEnd},
	}
}

// NarrativePeriods lists the periods whose report carries generated text.
func (c *Config) NarrativePeriods() []weather.Period {
	out := make([]weather.Period, 0, len(c.Narrative.Periods))
	for _, p := range c.Narrative.Periods {
		out = append(out, weather.Period(strings.ToLower(strings.TrimSpace(p))))
	}
	return out
}

func (c *Config) SeverityThresholds() severity.Thresholds {
	th := severity.DefaultThresholds()
	s := c.Severity
	th.GustCaution, th.GustSevere = s.GustCaution, s.GustSevere
	th.GeomagneticCaution, th.GeomagneticSevere = s.GeomagneticCaution, s.GeomagneticSevere
	th.HeatCaution, th.HeatSevere = s.HeatCaution, s.HeatSevere
	th.ColdCaution, th.ColdSevere = s.ColdCaution, s.ColdSevere
	if tier, err := severity.ParseTier(s.IcingTier); err == nil {
		th.IcingTier = tier
	}
	if tier, err := severity.ParseTier(s.FreezingTier); err == nil {
		th.FreezingTier = tier
	}
	return th
}

func (c *Config) AnalysisThresholds() analysis.Thresholds {
	th := analysis.DefaultThresholds()
	a := c.Analysis
	th.PressureStep = a.PressureStep
	th.HumidityStep = a.HumidityStep
	th.FogSpread = a.FogSpread
	th.PrecipitationIntensity = a.PrecipitationIntensity
	th.PrecipitationProbability = a.PrecipitationChance
	return th
}
