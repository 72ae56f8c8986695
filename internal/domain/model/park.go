package model

import "time"

// WallSegment is one stretch of outfield wall. Angles are spray angles in
// degrees, -45 along the left-field line to 45 along the right-field line.
type WallSegment struct {
	StartAngle float64 `json:"startAngle" yaml:"startAngle"`
	EndAngle   float64 `json:"endAngle" yaml:"endAngle"`
	Distance   int     `json:"distance" yaml:"distance"` // feet from home plate
	Height     int     `json:"height" yaml:"height"`     // feet
}

// Park holds the dimensions used by batted-ball resolution.
type Park struct {
	IDPark       int64         `json:"idPark" yaml:"idPark"`
	Name         string        `json:"name" yaml:"name"`
	LeftField    int           `json:"leftField" yaml:"leftField"`
	CenterField  int           `json:"centerField" yaml:"centerField"`
	RightField   int           `json:"rightField" yaml:"rightField"`
	WallSegments []WallSegment `json:"wallSegments" yaml:"wallSegments"`
}

// Wall returns the distance and height of the wall at a spray angle. When no
// segment covers the angle the foul-line and center distances are
// interpolated with a 10 foot wall.
func (p Park) Wall(angle float64) (distance, height int) {
	for _, s := range p.WallSegments {
		if angle >= s.StartAngle && angle <= s.EndAngle {
			return s.Distance, s.Height
		}
	}
	lf, cf, rf := p.LeftField, p.CenterField, p.RightField
	if lf == 0 {
		lf = 330
	}
	if cf == 0 {
		cf = 400
	}
	if rf == 0 {
		rf = 330
	}
	if angle < 0 {
		t := (angle + 45) / 45
		return int(float64(lf) + t*float64(cf-lf)), 10
	}
	t := angle / 45
	return int(float64(cf) + t*float64(rf-cf)), 10
}

// Umpire carries the tendencies applied to called pitches.
type Umpire struct {
	IDPerson int64  `json:"idPerson" yaml:"idPerson"`
	Name     string `json:"name" yaml:"name"`
	// ZoneSize is relative to average: 100 average, above 100 a wider zone.
	ZoneSize int `json:"zoneSize" yaml:"zoneSize"`
	// Consistency 0-100; low values push edge calls toward a coin flip.
	Consistency int `json:"consistency" yaml:"consistency"`
}

// GamePackage is the self-contained input to one simulation. It carries no
// references shared with the scheduler: workers receive a Clone.
type GamePackage struct {
	DateTime    time.Time `json:"dateTime" yaml:"dateTime"`
	IDGame      int64     `json:"idGame" yaml:"idGame"`
	IDGameGroup int64     `json:"idGameGroup" yaml:"idGameGroup"`
	Park        Park      `json:"park" yaml:"park"`
	Home        Team      `json:"home" yaml:"home"`
	Away        Team      `json:"away" yaml:"away"`
	Umpires     []Umpire  `json:"umpires" yaml:"umpires"`
	// Innings overrides the regulation length when positive.
	Innings int `json:"innings,omitempty" yaml:"innings,omitempty"`
}

// Clone returns a deep copy of the package.
func (p GamePackage) Clone() GamePackage {
	out := p
	out.Park.WallSegments = append([]WallSegment(nil), p.Park.WallSegments...)
	out.Home = p.Home.Clone()
	out.Away = p.Away.Clone()
	out.Umpires = append([]Umpire(nil), p.Umpires...)
	return out
}
