package llmInteraction

import (
	"strings"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

// Scenario selects the tone of a generated answer.
type Scenario int

const (
	ScenarioGeneral Scenario = iota
	ScenarioRomantic
	ScenarioFamily
	ScenarioBusiness
	ScenarioLuxury
	ScenarioBudget
	ScenarioAdventure
	ScenarioCultural
)

func (s Scenario) String() string {
	switch s {
	case ScenarioRomantic:
		return "romantic"
	case ScenarioFamily:
		return "family"
	case ScenarioBusiness:
		return "business"
	case ScenarioLuxury:
		return "luxury"
	case ScenarioBudget:
		return "budget"
	case ScenarioAdventure:
		return "adventure"
	case ScenarioCultural:
		return "cultural"
	default:
		return "general"
	}
}

type scenarioRule struct {
	scenario Scenario
	matches  func(scenarioInput) bool
}

type scenarioInput struct {
	specialContext string
	groupType      string
	budget         string
	interests      map[string]bool
}

// scenarioRules is evaluated top to bottom; the first match wins.
var scenarioRules = []scenarioRule{
	{ScenarioRomantic, func(in scenarioInput) bool {
		return oneOf(in.specialContext, "romantic", "honeymoon", "anniversary")
	}},
	{ScenarioFamily, func(in scenarioInput) bool {
		return in.groupType == "family"
	}},
	{ScenarioBusiness, func(in scenarioInput) bool {
		return in.groupType == "business" || in.specialContext == "business"
	}},
	{ScenarioLuxury, func(in scenarioInput) bool {
		return in.budget == "luxury"
	}},
	{ScenarioBudget, func(in scenarioInput) bool {
		return in.budget == "budget"
	}},
	{ScenarioAdventure, func(in scenarioInput) bool {
		return in.interests["adventure"] || in.interests["outdoor"]
	}},
	{ScenarioCultural, func(in scenarioInput) bool {
		return in.interests["art"] || in.interests["history"] || in.interests["culture"] || in.interests["museums"]
	}},
}

// SelectScenario maps an analysis to exactly one scenario. Comparisons are
// case-insensitive; anything unmatched is ScenarioGeneral.
func SelectScenario(a types.QueryAnalysis) Scenario {
	in := scenarioInput{
		specialContext: normalize(string(a.SpecialContext)),
		groupType:      normalize(string(a.GroupInfo.Type)),
		budget:         normalize(string(a.Preferences.Budget)),
		interests:      make(map[string]bool, len(a.Preferences.Interests)),
	}
	for _, i := range a.Preferences.Interests {
		in.interests[normalize(i)] = true
	}
	for _, r := range scenarioRules {
		if r.matches(in) {
			return r.scenario
		}
	}
	return ScenarioGeneral
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
