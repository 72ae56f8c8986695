// Package model contains the domain records passed between the scheduler,
// the storage layer and the simulation workers.
package model

import "time"

// Universe is the singleton world clock.
type Universe struct {
	CurrentDateTime time.Time `json:"currentDateTime" yaml:"currentDateTime"`
}

// Game is one scheduled game. BoxScore is written exactly once, by the
// scheduler, after a successful simulation.
type Game struct {
	IDGame      int64     `json:"idGame" yaml:"idGame"`
	IDGameGroup int64     `json:"idGameGroup" yaml:"idGameGroup"`
	IDTeamHome  int64     `json:"idTeamHome" yaml:"idTeamHome"`
	IDTeamAway  int64     `json:"idTeamAway" yaml:"idTeamAway"`
	IDPark      int64     `json:"idPark" yaml:"idPark"`
	DateTime    time.Time `json:"dateTime" yaml:"dateTime"`
	Umpires     []Umpire  `json:"umpires,omitempty" yaml:"umpires,omitempty"`
	BoxScore    *BoxScore `json:"boxScore,omitempty" yaml:"-"`
}

// Resolved reports whether the game already has a box score.
func (g Game) Resolved() bool { return g.BoxScore != nil }

// League is everything needed to seed a store.
type League struct {
	Universe Universe `json:"universe" yaml:"universe"`
	Parks    []Park   `json:"parks" yaml:"parks"`
	Teams    []Team   `json:"teams" yaml:"teams"`
	Games    []Game   `json:"games" yaml:"games"`
}

// Standing is one team's record over resolved games.
type Standing struct {
	Rank        int     `json:"rank"`
	IDTeam      int64   `json:"idTeam"`
	Name        string  `json:"name"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Ties        int     `json:"ties"`
	RunsFor     int     `json:"runsFor"`
	RunsAgainst int     `json:"runsAgainst"`
	Pct         float64 `json:"pct"`
}
