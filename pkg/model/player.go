// Package model turns raw API-Football records into the flat shapes the rest
// of the client works with.
//
// Player records arrive in two shapes: the provider's wrapper
// ({"player": {...}, "statistics": [...]}) and the flattened form this package
// writes back to storage. NormalizePlayer accepts both.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// NotAvailable is the placeholder for missing text fields.
const NotAvailable = "N/A"

// TopPlayerRating is the rating a player must exceed to count as a top player.
const TopPlayerRating = 7.5

// Player is a normalized footballer record.
type Player struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Photo       string `json:"photo,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Age         int    `json:"age,omitempty"`
	Position    string `json:"position"`
	Team        string `json:"team"`
	TeamID      int    `json:"teamId,omitempty"`
	Rating      string `json:"rating"`
	Goals       int    `json:"goals"`
}

// IsTopPlayer reports whether the player's rating is above TopPlayerRating.
func (p Player) IsTopPlayer() bool {
	if p.Rating == "" || p.Rating == NotAvailable {
		return false
	}
	r, err := strconv.ParseFloat(p.Rating, 64)
	if err != nil {
		return false
	}
	return r > TopPlayerRating
}

// playerRecord is the provider wrapper shape.
type playerRecord struct {
	Player *struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		Photo       string `json:"photo"`
		Nationality string `json:"nationality"`
		Age         *int   `json:"age"`
	} `json:"player"`
	Statistics []struct {
		Team *struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"team"`
		Games *struct {
			Position *string `json:"position"`
			Rating   *string `json:"rating"`
		} `json:"games"`
		Goals *struct {
			Total *int `json:"total"`
		} `json:"goals"`
	} `json:"statistics"`
}

// NormalizePlayer builds a Player from a raw or already-normalized record.
// Records that carry no usable id come back with ID 0.
func NormalizePlayer(raw json.RawMessage) (Player, error) {
	var rec playerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Player{}, fmt.Errorf("decode player record: %w", err)
	}

	if rec.Player == nil {
		// Already normalized.
		var p Player
		if err := json.Unmarshal(raw, &p); err != nil {
			return Player{}, fmt.Errorf("decode normalized player: %w", err)
		}
		return p, nil
	}

	p := Player{
		ID:          rec.Player.ID,
		Name:        rec.Player.Name,
		Photo:       rec.Player.Photo,
		Nationality: rec.Player.Nationality,
		Position:    NotAvailable,
		Team:        NotAvailable,
		Rating:      NotAvailable,
	}
	if rec.Player.Age != nil {
		p.Age = *rec.Player.Age
	}

	if len(rec.Statistics) > 0 {
		st := rec.Statistics[0]
		if st.Team != nil {
			if st.Team.Name != "" {
				p.Team = st.Team.Name
			}
			p.TeamID = st.Team.ID
		}
		if st.Games != nil {
			if st.Games.Position != nil && *st.Games.Position != "" {
				p.Position = *st.Games.Position
			}
			if st.Games.Rating != nil && *st.Games.Rating != "" {
				p.Rating = *st.Games.Rating
			}
		}
		if st.Goals != nil && st.Goals.Total != nil {
			p.Goals = *st.Goals.Total
		}
	}
	return p, nil
}

// NormalizePlayers normalizes every record in order, dropping records that
// fail to decode or have no id.
func NormalizePlayers(raws []json.RawMessage) []Player {
	out := make([]Player, 0, len(raws))
	for _, raw := range raws {
		p, err := NormalizePlayer(raw)
		if err != nil || p.ID == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}
