// Package catalog defines the space object record served by the catalog
// REST resource, the draft submitted on create, and the field rules a draft
// must satisfy before it is sent.
package catalog

import (
	"strconv"
	"strings"
)

// SpaceObject is one catalog record. JSON names follow the REST resource.
type SpaceObject struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Mass          float64 `json:"mass"`
	Diameter      float64 `json:"diameter"`
	Distance      float64 `json:"distance"`
	IsHabitable   bool    `json:"isHabitable"`
	DiscoveryYear int     `json:"discoveryYear"`
	Description   string  `json:"description"`
}

// Draft is a SpaceObject without an id, the body of a create request.
type Draft struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Mass          float64 `json:"mass"`
	Diameter      float64 `json:"diameter"`
	Distance      float64 `json:"distance"`
	IsHabitable   bool    `json:"isHabitable"`
	DiscoveryYear int     `json:"discoveryYear"`
	Description   string  `json:"description"`
}

// NumericID parses the id as a base-10 integer.
// The second return value is false when the id is not an integer.
func (o SpaceObject) NumericID() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(o.ID), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Draft returns the object's fields without the id.
func (o SpaceObject) Draft() Draft {
	return Draft{
		Name:          o.Name,
		Type:          o.Type,
		Mass:          o.Mass,
		Diameter:      o.Diameter,
		Distance:      o.Distance,
		IsHabitable:   o.IsHabitable,
		DiscoveryYear: o.DiscoveryYear,
		Description:   o.Description,
	}
}

// WithID builds the SpaceObject the server returns for this draft.
func (d Draft) WithID(id string) SpaceObject {
	return SpaceObject{
		ID:            id,
		Name:          d.Name,
		Type:          d.Type,
		Mass:          d.Mass,
		Diameter:      d.Diameter,
		Distance:      d.Distance,
		IsHabitable:   d.IsHabitable,
		DiscoveryYear: d.DiscoveryYear,
		Description:   d.Description,
	}
}
