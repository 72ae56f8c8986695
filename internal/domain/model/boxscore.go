package model

// BattingLine is one batter's totals for a game.
type BattingLine struct {
	IDPerson        int64 `json:"idPerson"`
	PlateAppearance int   `json:"pa"`
	AtBats          int   `json:"ab"`
	Runs            int   `json:"r"`
	Hits            int   `json:"h"`
	Doubles         int   `json:"2b"`
	Triples         int   `json:"3b"`
	HomeRuns        int   `json:"hr"`
	RBI             int   `json:"rbi"`
	Walks           int   `json:"bb"`
	Strikeouts      int   `json:"so"`
	HitByPitch      int   `json:"hbp"`
	SacrificeFlies  int   `json:"sf"`
}

// PitchingLine is one pitcher's totals for a game.
type PitchingLine struct {
	IDPerson      int64             `json:"idPerson"`
	Outs          int               `json:"outs"`
	BattersFaced  int               `json:"bf"`
	Pitches       int               `json:"pitches"`
	Strikes       int               `json:"strikes"`
	Balls         int               `json:"balls"`
	Hits          int               `json:"h"`
	Runs          int               `json:"r"`
	Walks         int               `json:"bb"`
	Strikeouts    int               `json:"so"`
	HomeRuns      int               `json:"hr"`
	HitByPitch    int               `json:"hbp"`
	PitchesByType map[PitchType]int `json:"pitchesByType"`
}

// TeamBox is one team's side of the box score.
type TeamBox struct {
	IDTeam     int64          `json:"idTeam"`
	Runs       int            `json:"r"`
	Hits       int            `json:"h"`
	Errors     int            `json:"e"`
	LeftOnBase int            `json:"lob"`
	LineScore  []int          `json:"lineScore"`
	Batting    []BattingLine  `json:"batting"`
	Pitching   []PitchingLine `json:"pitching"`
}

// BoxScore is the write-once statistical summary of a game.
type BoxScore struct {
	IDGame  int64   `json:"idGame"`
	Innings int     `json:"innings"`
	Home    TeamBox `json:"home"`
	Away    TeamBox `json:"away"`
	// WinningTeam is zero when the game ended tied at the inning cap.
	WinningTeam int64 `json:"winningTeam"`
}

// TotalPitches sums pitches thrown by both staffs.
func (b BoxScore) TotalPitches() int {
	n := 0
	for _, side := range []TeamBox{b.Home, b.Away} {
		for _, p := range side.Pitching {
			n += p.Pitches
		}
	}
	return n
}

// PlayerDelta is the derived state change a game produced for one player.
// The scheduler merges deltas after the batch join; workers never write them.
type PlayerDelta struct {
	IDPerson      int64 `json:"idPerson"`
	IDTeam        int64 `json:"idTeam"`
	Pitches       int   `json:"pitches"`
	InningsPlayed int   `json:"inningsPlayed"`
	InjuryDays    int   `json:"injuryDays"`
}

// GameResult is the output of one successful simulation.
type GameResult struct {
	IDGame   int64         `json:"idGame"`
	BoxScore BoxScore      `json:"boxScore"`
	Deltas   []PlayerDelta `json:"deltas"`
}
