package types

import (
	"errors"
	"sort"
)

// ErrEmptyQuery is returned when a query is empty after trimming whitespace.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Coordinates is the lat/lon pair exposed to map consumers.
type Coordinates struct {
	Lat float64 `json:"lat" example:"48.8566"`
	Lon float64 `json:"lon" example:"2.3522"`
}

// GeoPoint is a resolved place. DisplayName is already ASCII-folded.
type GeoPoint struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
}

func (g GeoPoint) Coordinates() Coordinates {
	return Coordinates{Lat: g.Latitude, Lon: g.Longitude}
}

// WeatherSnapshot holds current conditions. Every field may be absent.
type WeatherSnapshot struct {
	Temperature              *float64 `json:"temperature"`               // Celsius
	PrecipitationProbability *int     `json:"precipitation_probability"` // Percent
	Time                     *string  `json:"time"`                      // Observation time as reported by the source
}

// PlaceOfInterest is a named point returned by the places lookup.
type PlaceOfInterest struct {
	Name string  `json:"name" example:"Eiffel Tower"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// TourismAnswer is the single output of the query pipeline.
type TourismAnswer struct {
	Response    string            `json:"response"`
	PlaceName   *string           `json:"place_name"`
	Coordinates *Coordinates      `json:"coordinates"`
	Weather     *WeatherSnapshot  `json:"weather_data"`
	Places      []PlaceOfInterest `json:"places_data"`
}

// NewTourismAnswer returns an answer carrying only response text.
// Places is never nil so it always encodes as a JSON array.
func NewTourismAnswer(response string) TourismAnswer {
	return TourismAnswer{Response: response, Places: []PlaceOfInterest{}}
}

// QueryRequest is the body accepted by the query endpoints.
type QueryRequest struct {
	Query string `json:"query" example:"What's the weather in Paris?"`
}

// QueryResponse is the short form of a TourismAnswer.
type QueryResponse struct {
	Response  string  `json:"response"`
	PlaceName *string `json:"place_name"`
}

// Intent is one requested information category.
type Intent string

const (
	IntentWeather     Intent = "weather"
	IntentPlaces      Intent = "places"
	IntentAttractions Intent = "attractions"
	IntentRestaurants Intent = "restaurants"
	IntentHotels      Intent = "hotels"
	IntentActivities  Intent = "activities"
	IntentTransport   Intent = "transport"
)

// IntentSet is an unordered set of intents.
type IntentSet map[Intent]struct{}

func NewIntentSet(intents ...Intent) IntentSet {
	s := make(IntentSet, len(intents))
	for _, i := range intents {
		s.Add(i)
	}
	return s
}

func (s IntentSet) Add(i Intent) {
	s[i] = struct{}{}
}

func (s IntentSet) Has(i Intent) bool {
	_, ok := s[i]
	return ok
}

// WantsPlaces reports whether the set asks for points of interest under
// either of the names the analyzers use for them.
func (s IntentSet) WantsPlaces() bool {
	return s.Has(IntentPlaces) || s.Has(IntentAttractions)
}

// Sorted returns the members in lexical order, for logs and span attributes.
func (s IntentSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for i := range s {
		out = append(out, string(i))
	}
	sort.Strings(out)
	return out
}
