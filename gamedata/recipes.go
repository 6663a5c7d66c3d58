package gamedata

// Recipe transforms inputs into outputs inside a machine of kind Machine.
type Recipe struct {
	ID      string
	Inputs  Amounts
	Outputs Amounts
	Time    float64
	Machine Block
}

// Recipes is scanned in order; the first satisfiable entry wins.
var Recipes = []Recipe{
	{ID: "iron_bar", Inputs: Amounts{Iron: 1}, Outputs: Amounts{IronBar: 1}, Time: 2.0, Machine: Smelter},
	{ID: "gold_bar", Inputs: Amounts{Gold: 1}, Outputs: Amounts{GoldBar: 1}, Time: 2.0, Machine: Smelter},
	{ID: "silicon_wafer", Inputs: Amounts{Silicon: 1}, Outputs: Amounts{SiliconWafer: 1}, Time: 3.0, Machine: Smelter},
	{ID: "circuit", Inputs: Amounts{IronBar: 1, SiliconWafer: 1}, Outputs: Amounts{Circuit: 1}, Time: 5.0, Machine: Assembler},
}

// RecipeByID looks a recipe up by identifier.
func RecipeByID(id string) (Recipe, bool) {
	for _, r := range Recipes {
		if r.ID == id {
			return r, true
		}
	}
	return Recipe{}, false
}

// RecipesFor returns the recipes a machine kind can run, in table order.
func RecipesFor(machine Block) []Recipe {
	var out []Recipe
	for _, r := range Recipes {
		if r.Machine == machine {
			out = append(out, r)
		}
	}
	return out
}

// IsInput reports whether res is an input of any recipe the machine kind
// runs.
func IsInput(machine Block, res Resource) bool {
	_, ok := InputAmount(machine, res)
	return ok
}

// InputAmount returns the per-craft amount of res required by the first
// recipe of the machine kind that consumes it.
func InputAmount(machine Block, res Resource) (int, bool) {
	for _, r := range Recipes {
		if r.Machine != machine {
			continue
		}
		if n, ok := r.Inputs[res]; ok {
			return n, true
		}
	}
	return 0, false
}

// InputKinds returns every resource consumed by the machine kind, sorted.
func InputKinds(machine Block) []Resource {
	all := Amounts{}
	for _, r := range RecipesFor(machine) {
		for res := range r.Inputs {
			all[res] = 1
		}
	}
	return all.Kinds()
}
