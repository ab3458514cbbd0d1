// Package intent maps free text to the categories of information requested.
package intent

import (
	"strings"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

// Rule switches an intent on when any of its keywords occurs in the
// lower-cased text.
type Rule struct {
	Intent   types.Intent
	Keywords []string
}

func (r Rule) matches(lower string) bool {
	return containsAny(lower, r.Keywords)
}

// Classifier is a keyword classifier. The zero value is not usable; build it
// with NewClassifier.
type Classifier struct {
	rules           []Rule
	placesOverrides []string
	placesOnlyHints []string
}

// NewClassifier returns the classifier for the weather/places vocabulary.
func NewClassifier() *Classifier {
	return &Classifier{
		rules: []Rule{
			{Intent: types.IntentWeather, Keywords: []string{"temperature", "weather", "rain", "hot", "cold", "forecast", "temp"}},
			{Intent: types.IntentPlaces, Keywords: []string{"places", "visit", "attractions", "tourist", "sightseeing", "plan", "trip", "tour", "destination"}},
		},
		placesOverrides: []string{"can visit", "can go", "places i can"},
		placesOnlyHints: []string{"plan", "trip"},
	}
}

// Classify never returns an empty set. When no keyword matches, text that
// mentions planning gets places only, anything else gets weather and places.
func (c *Classifier) Classify(text string) types.IntentSet {
	lower := strings.ToLower(text)
	set := types.NewIntentSet()

	for _, r := range c.rules {
		if r.matches(lower) {
			set.Add(r.Intent)
		}
	}
	if containsAny(lower, c.placesOverrides) {
		set.Add(types.IntentPlaces)
	}

	if len(set) == 0 {
		if containsAny(lower, c.placesOnlyHints) {
			set.Add(types.IntentPlaces)
		} else {
			set.Add(types.IntentWeather)
			set.Add(types.IntentPlaces)
		}
	}
	return set
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
