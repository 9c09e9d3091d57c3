package service

import (
	"encoding/json"
	"fmt"

	"hitrank/internal/domain/entity"
)

// Ring is a closed boundary polygon of [lng, lat] vertices.
type Ring [][2]float64

// Geofence holds resort boundaries keyed by resort ID. A nil Geofence and a
// resort without a boundary both accept any location.
type Geofence struct {
	boundaries map[string]Ring
}

func NewGeofence(boundaries map[string]Ring) *Geofence {
	return &Geofence{boundaries: boundaries}
}

// ParseGeofence reads a JSON object mapping resort IDs to boundary rings.
func ParseGeofence(data []byte) (*Geofence, error) {
	var boundaries map[string]Ring
	if err := json.Unmarshal(data, &boundaries); err != nil {
		return nil, fmt.Errorf("parse resort boundaries: %w", err)
	}
	for resortID, ring := range boundaries {
		if len(ring) < 3 {
			return nil, fmt.Errorf("resort %s boundary has %d vertices, need at least 3", resortID, len(ring))
		}
	}
	return NewGeofence(boundaries), nil
}

func (g *Geofence) Allows(resortID string, point entity.GeoPoint) bool {
	if g == nil {
		return true
	}
	ring, ok := g.boundaries[resortID]
	if !ok {
		return true
	}
	return ring.Contains(point)
}

// Contains is an even-odd ray cast. Points exactly on an edge may fall
// either way.
func (r Ring) Contains(point entity.GeoPoint) bool {
	inside := false
	for i, j := 0, len(r)-1; i < len(r); j, i = i, i+1 {
		xi, yi := r[i][0], r[i][1]
		xj, yj := r[j][0], r[j][1]
		if (yi > point.Lat) != (yj > point.Lat) &&
			point.Lng < (xj-xi)*(point.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
