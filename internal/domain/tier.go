package domain

// TierLabel summarizes a physique score band.
type TierLabel string

const (
	TierGymBro          TierLabel = "Gym Bro"
	TierLowTierNormie   TierLabel = "Low-Tier Normie"
	TierMidTierNormie   TierLabel = "Mid-Tier Normie"
	TierHighTierNormie  TierLabel = "High-Tier Normie"
	TierChadlite        TierLabel = "Chadlite"
	TierChad            TierLabel = "Chad"
	TierGigachad        TierLabel = "Gigachad"
	TierMogger          TierLabel = "Mogger"
	TierFinalBossMogger TierLabel = "Final Boss Mogger"
)

// tierThreshold maps a minimum score to its label. The table is ordered
// highest threshold first and the last entry has MinScore 0, so every
// score in [0,100] resolves to exactly one label.
type tierThreshold struct {
	MinScore int
	Label    TierLabel
}

var tierTable = []tierThreshold{
	{98, TierFinalBossMogger},
	{94, TierMogger},
	{88, TierGigachad},
	{78, TierChad},
	{65, TierChadlite},
	{55, TierHighTierNormie},
	{45, TierMidTierNormie},
	{35, TierLowTierNormie},
	{0, TierGymBro},
}

// TierFor resolves a physique score to its tier label. Scores outside
// [0,100] are clamped first. Pure function, safe for concurrent use.
func TierFor(score int) TierLabel {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	for _, t := range tierTable {
		if score >= t.MinScore {
			return t.Label
		}
	}
	return TierGymBro // unreachable, table covers 0
}

// TierRank returns the ordinal position of a label in the tier ladder
// (0 = lowest). Unknown labels rank lowest.
func TierRank(label TierLabel) int {
	for i := len(tierTable) - 1; i >= 0; i-- {
		if tierTable[i].Label == label {
			return len(tierTable) - 1 - i
		}
	}
	return 0
}
