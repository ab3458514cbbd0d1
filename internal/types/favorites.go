package types

import "time"

// Favorite is a saved place. Ids are assigned by the store and never reused
// while the process runs.
type Favorite struct {
	ID          int64             `json:"id" example:"1"`
	PlaceName   string            `json:"place_name" example:"Paris, Ile-de-France, France"`
	Coordinates *Coordinates      `json:"coordinates"`
	WeatherData *WeatherSnapshot  `json:"weather_data"`
	PlacesData  []PlaceOfInterest `json:"places_data"`
	CreatedAt   *time.Time        `json:"created_at"`
}

// AddFavoriteRequest is the body for POST /favorites.
type AddFavoriteRequest struct {
	PlaceName   string            `json:"place_name"`
	Coordinates *Coordinates      `json:"coordinates"`
	WeatherData *WeatherSnapshot  `json:"weather_data,omitempty"`
	PlacesData  []PlaceOfInterest `json:"places_data,omitempty"`
}

// FavoriteResult is what favorites mutations report back to callers.
type FavoriteResult struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Favorite *Favorite `json:"favorite,omitempty"`
}

// FavoritesList is the body for GET /favorites.
type FavoritesList struct {
	Favorites []Favorite `json:"favorites"`
	Count     int        `json:"count"`
}
