package model

import (
	"encoding/json"
	"fmt"
)

// Nation is a country as returned by the countries endpoint.
type Nation struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
	Flag string `json:"flag,omitempty"`
}

// League is a competition ("series") within a nation.
type League struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Logo    string `json:"logo,omitempty"`
	Country string `json:"country,omitempty"`
}

// Team is a club or national side.
type Team struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	Country  string `json:"country,omitempty"`
	Founded  int    `json:"founded,omitempty"`
	National bool   `json:"national"`
	Logo     string `json:"logo,omitempty"`
}

// DecodeNation decodes a countries record.
func DecodeNation(raw json.RawMessage) (Nation, error) {
	var n Nation
	if err := json.Unmarshal(raw, &n); err != nil {
		return Nation{}, fmt.Errorf("decode nation: %w", err)
	}
	return n, nil
}

// DecodeLeague decodes a leagues record ({"league": {...}, "country": {...}}).
func DecodeLeague(raw json.RawMessage) (League, error) {
	var rec struct {
		League  *League `json:"league"`
		Country *struct {
			Name string `json:"name"`
		} `json:"country"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return League{}, fmt.Errorf("decode league: %w", err)
	}
	if rec.League == nil {
		return League{}, fmt.Errorf("decode league: missing league object")
	}
	l := *rec.League
	if rec.Country != nil && l.Country == "" {
		l.Country = rec.Country.Name
	}
	return l, nil
}

// DecodeTeam decodes a teams record ({"team": {...}, "venue": {...}}). Records
// already in the flat Team shape are accepted as well.
func DecodeTeam(raw json.RawMessage) (Team, error) {
	var rec struct {
		Team *struct {
			ID       int     `json:"id"`
			Name     string  `json:"name"`
			Code     *string `json:"code"`
			Country  *string `json:"country"`
			Founded  *int    `json:"founded"`
			National bool    `json:"national"`
			Logo     string  `json:"logo"`
		} `json:"team"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Team{}, fmt.Errorf("decode team: %w", err)
	}
	if rec.Team == nil {
		var t Team
		if err := json.Unmarshal(raw, &t); err != nil {
			return Team{}, fmt.Errorf("decode team: %w", err)
		}
		return t, nil
	}

	t := Team{
		ID:       rec.Team.ID,
		Name:     rec.Team.Name,
		National: rec.Team.National,
		Logo:     rec.Team.Logo,
	}
	if rec.Team.Code != nil {
		t.Code = *rec.Team.Code
	}
	if rec.Team.Country != nil {
		t.Country = *rec.Team.Country
	}
	if rec.Team.Founded != nil {
		t.Founded = *rec.Team.Founded
	}
	return t, nil
}

// DecodeTeams decodes every record, skipping malformed ones.
func DecodeTeams(raws []json.RawMessage) []Team {
	out := make([]Team, 0, len(raws))
	for _, raw := range raws {
		if t, err := DecodeTeam(raw); err == nil {
			out = append(out, t)
		}
	}
	return out
}
