package models

import "encoding/json"

const (
	FormatSingleElimination = "single_elimination"
	FormatRoundRobin        = "round_robin"
)

// RoundRobinSettings defines specific settings for a round-robin preview.
type RoundRobinSettings struct {
	NumberOfRounds int `json:"number_of_rounds"` // 1 for single round-robin, 2 for double
}

type Format struct {
	BracketType  string  `json:"bracket_type"`
	SettingsJSON *string `json:"settings_json,omitempty"`
}

// GetRoundRobinSettings parses the settings of a round-robin format, nil for
// other formats.
func (f *Format) GetRoundRobinSettings() (*RoundRobinSettings, error) {
	if f.BracketType != FormatRoundRobin || f.SettingsJSON == nil || *f.SettingsJSON == "" {
		return nil, nil
	}
	var settings RoundRobinSettings
	if err := json.Unmarshal([]byte(*f.SettingsJSON), &settings); err != nil {
		return nil, err
	}
	if settings.NumberOfRounds < 1 || settings.NumberOfRounds > 2 {
		settings.NumberOfRounds = 1
	}
	return &settings, nil
}
