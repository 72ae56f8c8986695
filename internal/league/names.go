package league

import "github.com/okian/diamond/internal/domain/model"

var cities = []string{
	"Harbor City", "Red Mesa", "Northfield", "Cold Springs",
	"Port Alder", "Granite Falls", "Lake Verity", "Sun Prairie",
	"Iron Gate", "Willow Bend", "Cedar Point", "Blue Hollow",
	"Saltmarsh", "Copper Ridge", "Eastwick", "Ravenmoor",
}

var nicknames = []string{
	"Gulls", "Coyotes", "Foxes", "Miners",
	"Anchors", "Rams", "Loons", "Badgers",
	"Smiths", "Herons", "Pilots", "Owls",
	"Crabs", "Hawks", "Lanterns", "Crows",
}

var firstNames = []string{
	"Abe", "Bo", "Cal", "Dex", "Eli", "Finn", "Gus", "Hank",
	"Ike", "Jace", "Kit", "Lou", "Mo", "Ned", "Otis", "Pat",
	"Quin", "Ray", "Sal", "Tad", "Uli", "Vic", "Walt", "Zeke",
}

var lastNames = []string{
	"Abbott", "Barrow", "Cobb", "Dalton", "Easley", "Foxx", "Gehr", "Hollis",
	"Irwin", "Jessup", "Kessler", "Lang", "Mercer", "Nash", "Ortiz", "Pruitt",
	"Quarles", "Rourke", "Sutter", "Tolliver", "Underhill", "Vance", "Whitlock", "Yount",
}

// fieldOrder is the defensive assignment of the nine lineup slots.
var fieldOrder = [LineupSize]model.Position{
	model.CenterField, model.Shortstop, model.FirstBase,
	model.RightField, model.ThirdBase, model.LeftField,
	model.Catcher, model.SecondBase, model.Designated,
}

// pitchWeights is how common each secondary pitch is. Draws walk
// model.PitchTypes so map order never leaks into a draw.
var pitchWeights = map[model.PitchType]float64{
	model.Sinker:    2,
	model.Cutter:    1.5,
	model.Slider:    3,
	model.Curveball: 2,
	model.Changeup:  3,
	model.Splitter:  1,
}
