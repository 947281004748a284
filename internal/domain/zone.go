package domain

// ShotZone is one of the six court regions used to bucket field goal attempts
type ShotZone string

const (
	ZoneCornerLeft  ShotZone = "corner-left"
	ZoneWingLeft    ShotZone = "wing-left"
	ZoneCenter      ShotZone = "center"
	ZoneWingRight   ShotZone = "wing-right"
	ZoneCornerRight ShotZone = "corner-right"
	ZonePaint       ShotZone = "paint"
)

// Zones lists the canonical zones in display order
var Zones = []ShotZone{
	ZoneCornerLeft,
	ZoneWingLeft,
	ZoneCenter,
	ZoneWingRight,
	ZoneCornerRight,
	ZonePaint,
}

// ZoneDetails is the display metadata recorded alongside a shot zone
type ZoneDetails struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Side     string `json:"side"`
}

var zoneDetails = map[ShotZone]ZoneDetails{
	ZoneCornerLeft:  {Name: "Left Corner", Position: "corner", Side: "left"},
	ZoneWingLeft:    {Name: "Left Wing", Position: "wing", Side: "left"},
	ZoneCenter:      {Name: "Top of the Key", Position: "center", Side: "center"},
	ZoneWingRight:   {Name: "Right Wing", Position: "wing", Side: "right"},
	ZoneCornerRight: {Name: "Right Corner", Position: "corner", Side: "right"},
	ZonePaint:       {Name: "Paint", Position: "paint", Side: "center"},
}

// Valid reports whether the zone is canonical
func (z ShotZone) Valid() bool {
	_, ok := zoneDetails[z]
	return ok
}

// Details returns the display metadata for the zone
func (z ShotZone) Details() ZoneDetails {
	if d, ok := zoneDetails[z]; ok {
		return d
	}
	return ZoneDetails{Name: "Unknown", Position: "unknown", Side: "unknown"}
}

// DisplayName returns the zone's human readable name
func (z ShotZone) DisplayName() string {
	if d, ok := zoneDetails[z]; ok {
		return d.Name
	}
	return string(z)
}
