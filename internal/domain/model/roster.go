package model

// PitchType identifies a pitch in a pitcher's repertoire.
type PitchType string

// Pitch types. PitchTypes fixes the iteration order used wherever pitch
// weights are built, so weighted draws stay reproducible.
const (
	Fastball  PitchType = "fastball"
	Sinker    PitchType = "sinker"
	Cutter    PitchType = "cutter"
	Slider    PitchType = "slider"
	Curveball PitchType = "curveball"
	Changeup  PitchType = "changeup"
	Splitter  PitchType = "splitter"
)

// PitchTypes lists every pitch type in canonical order.
var PitchTypes = []PitchType{Fastball, Sinker, Cutter, Slider, Curveball, Changeup, Splitter}

// Position is a fielding position.
type Position string

// Fielding positions.
const (
	Pitcher     Position = "P"
	Catcher     Position = "C"
	FirstBase   Position = "1B"
	SecondBase  Position = "2B"
	ThirdBase   Position = "3B"
	Shortstop   Position = "SS"
	LeftField   Position = "LF"
	CenterField Position = "CF"
	RightField  Position = "RF"
	Designated  Position = "DH"
)

// Physical ratings, 0-100.
type Physical struct {
	Contact  int `json:"contact" yaml:"contact"`
	Power    int `json:"power" yaml:"power"`
	Eye      int `json:"eye" yaml:"eye"`
	Speed    int `json:"speed" yaml:"speed"`
	Fielding int `json:"fielding" yaml:"fielding"`
	Arm      int `json:"arm" yaml:"arm"`
	Velocity int `json:"velocity" yaml:"velocity"`
	Control  int `json:"control" yaml:"control"`
	Stamina  int `json:"stamina" yaml:"stamina"`
}

// Mental ratings, 0-100.
type Mental struct {
	Composure  int `json:"composure" yaml:"composure"`
	Discipline int `json:"discipline" yaml:"discipline"`
	Aggression int `json:"aggression" yaml:"aggression"`
}

// Alignment places a person on the lawful/chaotic and good/evil axes, -100..100.
type Alignment struct {
	Lawful int `json:"lawful" yaml:"lawful"`
	Good   int `json:"good" yaml:"good"`
}

// Condition is the carried-over physical state of a player between games.
type Condition struct {
	Fatigue    float64 `json:"fatigue" yaml:"fatigue"`
	InjuryDays int     `json:"injuryDays" yaml:"injuryDays"`
}

// Healthy reports whether the player can take the field.
func (c Condition) Healthy() bool { return c.InjuryDays <= 0 }

// Player is one person on a roster with their rating sets.
type Player struct {
	IDPerson    int64             `json:"idPerson" yaml:"idPerson"`
	Name        string            `json:"name" yaml:"name"`
	Position    Position          `json:"position" yaml:"position"`
	Physical    Physical          `json:"physical" yaml:"physical"`
	Mental      Mental            `json:"mental" yaml:"mental"`
	Alignment   Alignment         `json:"alignment" yaml:"alignment"`
	MyersBriggs string            `json:"myersBriggs" yaml:"myersBriggs"`
	Repertoire  map[PitchType]int `json:"repertoire,omitempty" yaml:"repertoire,omitempty"`
	Condition   Condition         `json:"condition" yaml:"condition"`
}

// Team is a roster snapshot: the batting order and the pitching staff, the
// first pitcher being the starter.
type Team struct {
	IDTeam   int64    `json:"idTeam" yaml:"idTeam"`
	Name     string   `json:"name" yaml:"name"`
	Lineup   []Player `json:"lineup" yaml:"lineup"`
	Pitchers []Player `json:"pitchers" yaml:"pitchers"`
}

// PlayerIDs returns every person on the roster, lineup first.
func (t Team) PlayerIDs() []int64 {
	ids := make([]int64, 0, len(t.Lineup)+len(t.Pitchers))
	for _, p := range t.Lineup {
		ids = append(ids, p.IDPerson)
	}
	for _, p := range t.Pitchers {
		ids = append(ids, p.IDPerson)
	}
	return ids
}

// Clone returns a deep copy of the team.
func (t Team) Clone() Team {
	out := t
	out.Lineup = clonePlayers(t.Lineup)
	out.Pitchers = clonePlayers(t.Pitchers)
	return out
}

func clonePlayers(in []Player) []Player {
	if in == nil {
		return nil
	}
	out := make([]Player, len(in))
	for i, p := range in {
		out[i] = p
		if p.Repertoire != nil {
			out[i].Repertoire = make(map[PitchType]int, len(p.Repertoire))
			for k, v := range p.Repertoire {
				out[i].Repertoire[k] = v
			}
		}
	}
	return out
}
