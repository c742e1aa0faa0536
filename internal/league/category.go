package league

type Category string

const (
	Onyx      Category = "ONYX"
	Amethyste Category = "AMÉTHYSTE"
	Topaze    Category = "TOPAZE"
	Diamant   Category = "DIAMANT"
)

// Ordered lowest to highest. Onyx has no lower bound; the other floors are
// the minimum rating for the tier.
var categoryOrder = []struct {
	Name  Category
	Floor int
}{
	{Onyx, 0},
	{Amethyste, 1400},
	{Topaze, 1700},
	{Diamant, 1900},
}

// CategoryOf classifies a rating into the highest tier whose floor it meets.
// Stored categories are always recomputed from this function, never assigned
// independently.
func CategoryOf(rating int) Category {
	result := Onyx
	for _, c := range categoryOrder {
		if rating >= c.Floor {
			result = c.Name
		}
	}
	return result
}

// Index returns the tier's position, 0 for Onyx up to 3 for Diamant.
// Unknown categories map to 0.
func (c Category) Index() int {
	for i, entry := range categoryOrder {
		if entry.Name == c {
			return i
		}
	}
	return 0
}

func (c Category) Valid() bool {
	for _, entry := range categoryOrder {
		if entry.Name == c {
			return true
		}
	}
	return false
}

// Categories lists all tiers in ascending order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	for i, entry := range categoryOrder {
		out[i] = entry.Name
	}
	return out
}
