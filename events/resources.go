package events

import (
	"encoding/json"
	"fmt"
)

// Player is a connected player as the host describes it.
type Player struct {
	Name       string `json:"name"`
	ID         string `json:"id"`
	Controller string `json:"controller"`
	State      string `json:"state"`
}

// PlayerPosition pairs a player with their position. Pos is nil when the player has
// no pawn (dead or spectating).
type PlayerPosition struct {
	Player Player      `json:"player"`
	Pos    *[3]float64 `json:"pos"`
}

// UnmarshalJSON accepts pos as null or as an array of exactly three numbers.
func (p *PlayerPosition) UnmarshalJSON(data []byte) error {
	var wire struct {
		Player Player          `json:"player"`
		Pos    json.RawMessage `json:"pos"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	p.Player = wire.Player
	p.Pos = nil
	if len(wire.Pos) == 0 || string(wire.Pos) == "null" {
		return nil
	}

	var coords []float64
	if err := json.Unmarshal(wire.Pos, &coords); err != nil {
		return err
	}
	if len(coords) != 3 {
		return fmt.Errorf("events: position needs 3 coordinates, got %d", len(coords))
	}
	p.Pos = &[3]float64{coords[0], coords[1], coords[2]}
	return nil
}
