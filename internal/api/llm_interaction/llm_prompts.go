package llmInteraction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

func analysisPrompt(query string) string {
	return fmt.Sprintf(`
        You analyse travel questions for a tourism assistant.
        Read the query below and answer STRICTLY with one JSON object, no prose and no code fences.

        Query: %q

        Use exactly these keys:
        {
            "location": "main destination (city, region or country)",
            "secondary_locations": ["other places the query names"],
            "intents": ["any of: weather, places, attractions, restaurants, hotels, activities, transport"],
            "time_frame": {"when": "dates or season mentioned", "duration": "length of the stay"},
            "group_info": {"type": "solo|couple|family|business|friends", "size": "number of travellers", "ages": "age groups mentioned"},
            "preferences": {"budget": "luxury|mid-range|budget|not specified", "interests": ["art", "food", "history", "nature", "adventure"], "accessibility": "special needs mentioned"},
            "special_context": "romantic|honeymoon|anniversary|business|celebration|none",
            "urgency": "immediate|planning|casual",
            "confidence": <number between 0 and 1>
        }

        Examples:
        "Weather in Paris?" -> {"location": "Paris", "intents": ["weather"], "urgency": "immediate", "confidence": 0.9}
        "Planning a romantic weekend in Tokyo" -> {"location": "Tokyo", "intents": ["places", "hotels"], "special_context": "romantic", "time_frame": {"duration": "weekend"}, "urgency": "planning", "confidence": 0.9}
    `, query)
}

// promptData is what a scenario template can draw on.
type promptData struct {
	Location       string
	WeatherInfo    string
	PlacesInfo     string
	SpecialContext string
	GroupInfo      string
	Preferences    string
	BudgetInfo     string
}

type responseTemplate struct {
	role         string
	contextLabel string
	context      func(promptData) string
	focus        []string
	tone         string
}

var responseTemplates = map[Scenario]responseTemplate{
	ScenarioRomantic: {
		role:         "You plan trips for couples and know where the memorable moments are.",
		contextLabel: "Occasion",
		context:      func(d promptData) string { return d.SpecialContext },
		focus: []string{
			"viewpoints and experiences to share as a couple",
			"intimate places to eat",
			"stays that suit two people",
			"ideas that fit the current weather",
			"local customs around romance or celebration",
		},
		tone: "warm and inspiring, but concise",
	},
	ScenarioFamily: {
		role:         "You help families travel with children safely and happily.",
		contextLabel: "Family",
		context:      func(d promptData) string { return d.GroupInfo },
		focus: []string{
			"attractions that suit the ages involved",
			"restaurants that welcome children",
			"safe areas and family friendly stays",
			"hands-on or educational experiences",
			"what the weather means for a day out with kids",
			"practical tips such as stroller access",
		},
		tone: "practical, safety minded and enthusiastic",
	},
	ScenarioBusiness: {
		role:         "You advise people travelling for work.",
		contextLabel: "Trip purpose",
		context:      func(d promptData) string { return d.SpecialContext },
		focus: []string{
			"business districts and meeting venues",
			"reliable ways to get around",
			"restaurants suitable for clients",
			"well rated business hotels",
			"what to wear given the weather",
		},
		tone: "professional and efficient",
	},
	ScenarioLuxury: {
		role:         "You are a concierge for travellers who want premium experiences.",
		contextLabel: "Preferences",
		context:      func(d promptData) string { return d.Preferences },
		focus: []string{
			"private tours and exclusive access",
			"fine dining",
			"five star stays and services",
			"high end shopping",
			"premium transport",
		},
		tone: "refined and detailed",
	},
	ScenarioBudget: {
		role:         "You help travellers get the most out of a small budget.",
		contextLabel: "Budget",
		context:      func(d promptData) string { return d.BudgetInfo },
		focus: []string{
			"free and cheap attractions",
			"good value food",
			"affordable places to sleep",
			"public transport tips",
			"local discounts and free events",
		},
		tone: "resourceful and encouraging",
	},
	ScenarioAdventure: {
		role:         "You specialise in active and outdoor travel.",
		contextLabel: "Interests",
		context:      func(d promptData) string { return d.Preferences },
		focus: []string{
			"outdoor activities and sports",
			"active ways to see the area",
			"gear suited to the weather",
			"safety advice",
			"local guides worth contacting",
		},
		tone: "energetic but practical",
	},
	ScenarioCultural: {
		role:         "You guide travellers towards authentic local culture.",
		contextLabel: "Interests",
		context:      func(d promptData) string { return d.Preferences },
		focus: []string{
			"historic sites and museums",
			"festivals and events",
			"traditional food",
			"etiquette worth knowing",
			"neighbourhoods with local character",
		},
		tone: "curious, respectful and informative",
	},
	ScenarioGeneral: {
		role:         "You are a friendly tourism assistant giving personal recommendations.",
		contextLabel: "Preferences",
		context:      func(d promptData) string { return d.Preferences },
		focus: []string{
			"the main attractions and activities",
			"where to eat",
			"suggestions that suit the weather",
			"practical travel tips",
		},
		tone: "friendly and helpful",
	},
}

func responsePrompt(s Scenario, d promptData, query string) string {
	t, ok := responseTemplates[s]
	if !ok {
		t = responseTemplates[ScenarioGeneral]
	}

	var b strings.Builder
	b.WriteString(t.role)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Location: %s\n", d.Location)
	fmt.Fprintf(&b, "Weather: %s\n", d.WeatherInfo)
	fmt.Fprintf(&b, "Attractions: %s\n", d.PlacesInfo)
	fmt.Fprintf(&b, "%s: %s\n\n", t.contextLabel, orDefault(t.context(d), "not specified"))
	b.WriteString("Cover:\n")
	for i, f := range t.focus {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f)
	}
	fmt.Fprintf(&b, "\nTone: %s.\n\n", t.tone)
	fmt.Fprintf(&b, "Original query: %q\n\n", query)
	b.WriteString("Answer the question directly and work in the weather and attractions above. Keep it conversational.")
	return b.String()
}

func newPromptData(a types.QueryAnalysis, displayName string, weather *types.WeatherSnapshot, places []types.PlaceOfInterest) promptData {
	return promptData{
		Location:       displayName,
		WeatherInfo:    weatherInfo(weather),
		PlacesInfo:     placesInfo(places),
		SpecialContext: orDefault(string(a.SpecialContext), "general travel"),
		GroupInfo:      groupInfo(a.GroupInfo),
		Preferences:    preferencesInfo(a.Preferences),
		BudgetInfo:     orDefault(string(a.Preferences.Budget), "not specified"),
	}
}

func weatherInfo(w *types.WeatherSnapshot) string {
	if w == nil {
		return "Weather information not available"
	}
	temp := "N/A"
	if w.Temperature != nil {
		temp = strconv.FormatFloat(*w.Temperature, 'f', -1, 64)
	}
	precip := 0
	if w.PrecipitationProbability != nil {
		precip = *w.PrecipitationProbability
	}
	return fmt.Sprintf("Current temperature: %s°C, Chance of precipitation: %d%%", temp, precip)
}

func placesInfo(places []types.PlaceOfInterest) string {
	if len(places) == 0 {
		return "No specific attractions data available"
	}
	n := min(len(places), 5)
	names := make([]string, n)
	for i := range n {
		names[i] = places[i].Name
	}
	return "Available attractions: " + strings.Join(names, ", ")
}

func groupInfo(g types.GroupInfo) string {
	var parts []string
	if g.Type != "" {
		parts = append(parts, "type "+string(g.Type))
	}
	if g.Size != "" {
		parts = append(parts, "size "+string(g.Size))
	}
	if g.Ages != "" {
		parts = append(parts, "ages "+string(g.Ages))
	}
	return strings.Join(parts, ", ")
}

func preferencesInfo(p types.TravelPreferences) string {
	var parts []string
	if p.Budget != "" {
		parts = append(parts, "budget "+string(p.Budget))
	}
	if len(p.Interests) > 0 {
		parts = append(parts, "interests "+strings.Join(p.Interests, ", "))
	}
	if p.Accessibility != "" {
		parts = append(parts, "accessibility "+string(p.Accessibility))
	}
	return strings.Join(parts, "; ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
