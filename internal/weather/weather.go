package weather

// Package weather provides the mock weather data served by the MCP server.
// Lookups never fail: unknown locations resolve to a synthesized generic record.

import (
	"fmt"
	"strings"
	"time"
)

// Record is a single weather observation
type Record struct {
	Location    string `json:"location"`
	Temperature int    `json:"temperature"`
	Humidity    int    `json:"humidity"`
	Conditions  string `json:"conditions"`
	WindSpeed   int    `json:"wind_speed"`
	LastUpdated string `json:"last_updated"`
}

// Entry binds a seed record to its city key
type Entry struct {
	Key    string
	Record Record
}

// ForecastDay is a Record for a specific date
type ForecastDay struct {
	Record
	Date string `json:"date"`
}

// Forecast is the result of a forecast request
type Forecast struct {
	Location     string        `json:"location"`
	ForecastDays int           `json:"forecast_days"`
	Forecast     []ForecastDay `json:"forecast"`
}

// Generic values used when a location has no seed record
const (
	GenericTemperature = 20
	GenericHumidity    = 70
	GenericConditions  = "Unknown"
	GenericWindSpeed   = 10
)

// DefaultForecastDays is used when a caller does not specify a day count
const DefaultForecastDays = 3

const (
	seedTimestamp = "2024-01-15T14:30:00Z"
	// isoMicro is local ISO-8601 with microseconds. The fraction is always
	// printed, even when it is zero.
	isoMicro = "2006-01-02T15:04:05.000000"
)

// seeds is iterated in order; the first containment match wins
var seeds = []Entry{
	{Key: "new_york", Record: Record{
		Location:    "New York, NY",
		Temperature: 72,
		Humidity:    65,
		Conditions:  "Partly cloudy",
		WindSpeed:   8,
		LastUpdated: seedTimestamp,
	}},
	{Key: "london", Record: Record{
		Location:    "London, UK",
		Temperature: 18,
		Humidity:    78,
		Conditions:  "Overcast",
		WindSpeed:   12,
		LastUpdated: seedTimestamp,
	}},
	{Key: "tokyo", Record: Record{
		Location:    "Tokyo, Japan",
		Temperature: 25,
		Humidity:    60,
		Conditions:  "Clear",
		WindSpeed:   5,
		LastUpdated: seedTimestamp,
	}},
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for generic records
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service answers weather queries from the static seed table
type Service struct {
	entries []Entry
	index   map[string]int
	now     func() time.Time
}

// NewService creates a new weather service over the seed table
func NewService(opts ...Option) *Service {
	s := &Service{
		entries: make([]Entry, len(seeds)),
		index:   make(map[string]int, len(seeds)),
		now:     time.Now,
	}
	copy(s.entries, seeds)
	for i, e := range s.entries {
		s.index[e.Key] = i
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entries returns the seed table in lookup order
func (s *Service) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the seed for an exact city key
func (s *Service) Get(key string) (Record, bool) {
	i, ok := s.index[key]
	if !ok {
		return Record{}, false
	}
	return s.entries[i].Record, true
}

// NormalizeLocation lowercases, maps spaces to underscores and drops commas,
// so "New York, NY" becomes "new_york_ny".
func NormalizeLocation(location string) string {
	key := strings.ToLower(location)
	key = strings.ReplaceAll(key, " ", "_")
	return strings.ReplaceAll(key, ",", "")
}

// Lookup resolves a free-form location.
//
// A seed matches when its key contains the normalized location or the other
// way round. This can be ambiguous for overlapping names (and "" matches the
// first seed); callers depend on it, so it is kept.
func (s *Service) Lookup(location string) Record {
	key := NormalizeLocation(location)
	for _, e := range s.entries {
		if strings.Contains(key, e.Key) || strings.Contains(e.Key, key) {
			return e.Record
		}
	}
	return Record{
		Location:    location,
		Temperature: GenericTemperature,
		Humidity:    GenericHumidity,
		Conditions:  GenericConditions,
		WindSpeed:   GenericWindSpeed,
		LastUpdated: s.now().Format(isoMicro),
	}
}

// Forecast builds a mock forecast of the given number of days.
// Day i gets base temperature + 2i - 2. days is not bounds checked:
// zero or negative yields an empty forecast.
func (s *Service) Forecast(location string, days int) Forecast {
	base := s.Lookup(location)
	forecast := make([]ForecastDay, 0)
	for i := 0; i < days; i++ {
		day := ForecastDay{Record: base, Date: fmt.Sprintf("2024-01-%d", 16+i)}
		day.Temperature += i*2 - 2
		forecast = append(forecast, day)
	}
	return Forecast{
		Location:     location,
		ForecastDays: days,
		Forecast:     forecast,
	}
}
