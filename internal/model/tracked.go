package model

// TrackedIngredient is one entry of the fixed list the reconciler walks
// every run. MatchKey is the term used against both the mandi commodity
// field and catalog entry names; Baseline is the ₹/unit reference used
// when the live feed has no matching record.
type TrackedIngredient struct {
	Name     string // display name, with Hindi gloss
	MatchKey string
	Unit     string
	Baseline int
	Class    SeasonClass
}

// SeasonClass groups ingredients by their seasonal price behaviour, used
// by the fallback generator's adjustment table.
type SeasonClass string

const (
	ClassVegetable SeasonClass = "vegetable"
	ClassStaple    SeasonClass = "staple"
	ClassDairy     SeasonClass = "dairy"
	ClassSpice     SeasonClass = "spice"
)

// TrackedIngredients is the canonical tracked list. Baselines are retail
// estimates per unit, kept deliberately conservative so a baseline-priced
// run never undercuts a plausible live quote.
var TrackedIngredients = []TrackedIngredient{
	{Name: "Onion (Pyaz)", MatchKey: "onion", Unit: "1 kg", Baseline: 35, Class: ClassVegetable},
	{Name: "Tomato (Tamatar)", MatchKey: "tomato", Unit: "1 kg", Baseline: 40, Class: ClassVegetable},
	{Name: "Potato (Aloo)", MatchKey: "potato", Unit: "1 kg", Baseline: 28, Class: ClassVegetable},
	{Name: "Ginger (Adrak)", MatchKey: "ginger", Unit: "1 kg", Baseline: 120, Class: ClassSpice},
	{Name: "Garlic (Lahsun)", MatchKey: "garlic", Unit: "1 kg", Baseline: 160, Class: ClassSpice},
	{Name: "Green Chilli (Hari Mirch)", MatchKey: "green chilli", Unit: "1 kg", Baseline: 80, Class: ClassVegetable},
	{Name: "Coriander (Dhaniya)", MatchKey: "coriander", Unit: "1 kg", Baseline: 90, Class: ClassVegetable},
	{Name: "Paneer", MatchKey: "paneer", Unit: "1 kg", Baseline: 320, Class: ClassDairy},
	{Name: "Milk (Doodh)", MatchKey: "milk", Unit: "1 litre", Baseline: 56, Class: ClassDairy},
	{Name: "Wheat Flour (Atta)", MatchKey: "wheat", Unit: "1 kg", Baseline: 42, Class: ClassStaple},
	{Name: "Rice (Chawal)", MatchKey: "rice", Unit: "1 kg", Baseline: 55, Class: ClassStaple},
	{Name: "Mustard Oil (Sarson Tel)", MatchKey: "mustard oil", Unit: "1 litre", Baseline: 140, Class: ClassStaple},
}

// TrackedByName returns the tracked entry for a display name or match
// key, if any.
func TrackedByName(name string) (TrackedIngredient, bool) {
	for _, t := range TrackedIngredients {
		if t.Name == name || t.MatchKey == name {
			return t, true
		}
	}
	return TrackedIngredient{}, false
}
