package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString decodes a JSON string, number, boolean or array of those into
// a string. Small models are loose about quoting values such as group sizes.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var parts []FlexString
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		strs := make([]string, 0, len(parts))
		for _, p := range parts {
			if p != "" {
				strs = append(strs, string(p))
			}
		}
		*f = FlexString(strings.Join(strs, ", "))
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	b, err := strconv.ParseBool(string(data))
	if err != nil {
		return err
	}
	*f = FlexString(strconv.FormatBool(b))
	return nil
}

type TimeFrame struct {
	When     FlexString `json:"when"`
	Duration FlexString `json:"duration"`
}

type GroupInfo struct {
	Type FlexString `json:"type"`
	Size FlexString `json:"size"`
	Ages FlexString `json:"ages"`
}

type TravelPreferences struct {
	Budget        FlexString `json:"budget"`
	Interests     []string   `json:"interests"`
	Accessibility FlexString `json:"accessibility"`
}

// QueryAnalysis is the structured reading of a query produced by the model.
type QueryAnalysis struct {
	Location           string            `json:"location"`
	SecondaryLocations []string          `json:"secondary_locations"`
	Intents            []string          `json:"intents"`
	TimeFrame          TimeFrame         `json:"time_frame"`
	GroupInfo          GroupInfo         `json:"group_info"`
	Preferences        TravelPreferences `json:"preferences"`
	SpecialContext     FlexString        `json:"special_context"`
	Urgency            FlexString        `json:"urgency"`
	Confidence         float64           `json:"confidence"`
}

// IntentSet converts the free-form intent list into the pipeline vocabulary.
func (a QueryAnalysis) IntentSet() IntentSet {
	s := NewIntentSet()
	for _, i := range a.Intents {
		if i = strings.ToLower(strings.TrimSpace(i)); i != "" {
			s.Add(Intent(i))
		}
	}
	return s
}

// CollaboratorStatus lists which deterministic lookups are wired.
type CollaboratorStatus struct {
	Geocoding bool `json:"geocoding"`
	Weather   bool `json:"weather"`
	Places    bool `json:"places"`
}

type LLMAgentStatus struct {
	Intent   bool `json:"intent"`
	Response bool `json:"response"`
}

// PerformanceStats is a point-in-time view of the query monitor.
type PerformanceStats struct {
	QueryCount       int64            `json:"query_count"`
	AverageSeconds   float64          `json:"avg_response_time"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`
	CacheHitRate     float64          `json:"cache_hit_rate"`
	ErrorCount       int64            `json:"error_count"`
	ErrorRate        float64          `json:"error_rate"`
	ModelUsage       map[string]int64 `json:"model_usage"`
	RecommendedModel string           `json:"recommended_model,omitempty"`
}

// CacheStats describes the LLM response cache.
type CacheStats struct {
	Size      int    `json:"cache_size"`
	Backend   string `json:"backend"`
	Available bool   `json:"available"`
	Model     string `json:"model"`
}

// SystemStatus is the body of GET /status.
type SystemStatus struct {
	LLMAvailable      bool               `json:"llm_available"`
	TraditionalAgents CollaboratorStatus `json:"traditional_agents"`
	LLMAgents         LLMAgentStatus     `json:"llm_agents"`
	Performance       PerformanceStats   `json:"performance"`
	Cache             CacheStats         `json:"cache"`
}
