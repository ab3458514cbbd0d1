// Package compose renders lookup results into the deterministic answer text.
package compose

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

const (
	weatherSentence   = "In %s it's currently %dC with a chance of %d%% to rain."
	weatherFailure    = "Unable to fetch weather information for %s."
	placesHeader      = "In %s these are the places you can go,"
	placesFailure     = "Unable to find tourist attractions in %s."
	combinedConnector = " And these are the places you can go:\n"
	nothingAnswered   = "Unable to process your query for %s."
)

// WeatherFragment is the rendered weather part of an answer.
type WeatherFragment struct {
	Text string
	OK   bool
}

// PlacesFragment keeps the place names apart from the header so the combined
// answer can reuse the list without parsing rendered text.
type PlacesFragment struct {
	DisplayName string
	Names       []string
	OK          bool
}

func (p PlacesFragment) list() string {
	lines := make([]string, len(p.Names))
	for i, n := range p.Names {
		lines[i] = "- " + n
	}
	return strings.Join(lines, "\n")
}

// Text renders the fragment as a standalone answer.
func (p PlacesFragment) Text() string {
	if !p.OK {
		return fmt.Sprintf(placesFailure, p.DisplayName)
	}
	return fmt.Sprintf(placesHeader, p.DisplayName) + "\n" + p.list()
}

type Composer struct{}

func NewComposer() *Composer { return &Composer{} }

// Weather renders a snapshot. A snapshot without temperature is a failure.
func (c *Composer) Weather(s *types.WeatherSnapshot, displayName string) WeatherFragment {
	if s == nil || s.Temperature == nil {
		return WeatherFragment{Text: fmt.Sprintf(weatherFailure, displayName)}
	}
	precip := 0
	if s.PrecipitationProbability != nil {
		precip = *s.PrecipitationProbability
	}
	return WeatherFragment{
		Text: fmt.Sprintf(weatherSentence, displayName, int(*s.Temperature), precip),
		OK:   true,
	}
}

func (c *Composer) Places(places []types.PlaceOfInterest, displayName string) PlacesFragment {
	names := make([]string, 0, len(places))
	for _, p := range places {
		names = append(names, p.Name)
	}
	return PlacesFragment{DisplayName: displayName, Names: names, OK: len(names) > 0}
}

// Join combines the fragments of the requested categories. A nil fragment
// means that category was not requested.
func (c *Composer) Join(w *WeatherFragment, p *PlacesFragment, displayName string) string {
	switch {
	case w != nil && p != nil:
		if p.OK {
			return w.Text + combinedConnector + p.list()
		}
		return w.Text + " And " + strings.ToLower(p.Text())
	case w != nil:
		return w.Text
	case p != nil:
		return p.Text()
	default:
		return fmt.Sprintf(nothingAnswered, displayName)
	}
}

// Compose renders the categories in intents that the deterministic path can
// answer, weather first.
func (c *Composer) Compose(intents types.IntentSet, weather *types.WeatherSnapshot, places []types.PlaceOfInterest, displayName string) string {
	var w *WeatherFragment
	var p *PlacesFragment
	if intents.Has(types.IntentWeather) {
		f := c.Weather(weather, displayName)
		w = &f
	}
	if intents.WantsPlaces() {
		f := c.Places(places, displayName)
		p = &f
	}
	return c.Join(w, p, displayName)
}
