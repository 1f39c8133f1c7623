package risk

// Weight configures how one defect class is penalized.
type Weight struct {
	Severity       float64
	AreaMultiplier float64
	Description    string
}

// Config holds the product-tuning tables for the scorer. All values are
// plain data so deployments can override them without touching the
// scoring algorithm.
type Config struct {
	BaseScore         float64
	MaxDefectsPenalty float64
	ClassPenaltyCap   float64
	ConfidenceWeight  float64
	DefaultImageArea  float64

	GrowingMultiplier    float64
	PersistentMultiplier float64

	Weights        map[string]Weight
	AgeFactors     map[string]float64
	ClimateFactors map[string]map[string]float64
	RoomImportance map[string]float64

	// Risk category boundaries: score above LowRiskAbove is Low Risk,
	// score at or below HighRiskAtOrBelow is High Risk, Moderate between.
	LowRiskAbove      int
	HighRiskAtOrBelow int
}

// DefaultConfig seeds the tuning tables with the shipped defaults.
func DefaultConfig() Config {
	return Config{
		BaseScore:         100.0,
		MaxDefectsPenalty: 70.0,
		ClassPenaltyCap:   35.0,
		ConfidenceWeight:  0.8,
		DefaultImageArea:  640 * 480,

		GrowingMultiplier:    1.5,
		PersistentMultiplier: 1.2,

		Weights: map[string]Weight{
			"crack":        {Severity: 3.0, AreaMultiplier: 1.5, Description: "Structural cracks may indicate foundation or settling issues"},
			"leak":         {Severity: 4.0, AreaMultiplier: 2.0, Description: "Active leaks cause progressive damage"},
			"water_damage": {Severity: 4.0, AreaMultiplier: 2.0, Description: "Water damage may hide mold or rot"},
			"damp":         {Severity: 2.0, AreaMultiplier: 1.2, Description: "Dampness indicates moisture intrusion"},
			"mold":         {Severity: 5.0, AreaMultiplier: 2.5, Description: "Mold poses health hazards and spreads"},
			"corrosion":    {Severity: 3.0, AreaMultiplier: 1.5, Description: "Corrosion weakens structural elements"},
			"rust":         {Severity: 3.0, AreaMultiplier: 1.5, Description: "Rust indicates moisture exposure"},
			"peeling":      {Severity: 1.5, AreaMultiplier: 1.0, Description: "Peeling paint may expose surfaces"},
			"stain":        {Severity: 1.0, AreaMultiplier: 0.8, Description: "Staining may indicate past water issues"},
			"electrical":   {Severity: 4.5, AreaMultiplier: 1.0, Description: "Electrical issues pose fire and safety risk"},
			"spalling":     {Severity: 3.5, AreaMultiplier: 1.8, Description: "Concrete spalling exposes rebar"},
			"deformation":  {Severity: 4.0, AreaMultiplier: 2.0, Description: "Structural deformation is serious"},
		},

		AgeFactors: map[string]float64{
			"0-1":  0.0,
			"1-5":  2.0,
			"5-15": 5.0,
			"15+":  10.0,
		},

		ClimateFactors: map[string]map[string]float64{
			"hot_humid": {"mold": 1.5, "damp": 1.3, "rust": 1.2},
			"cold_dry":  {"crack": 1.3, "spalling": 1.4},
			"coastal":   {"rust": 1.5, "corrosion": 1.5},
			"temperate": {},
		},

		RoomImportance: map[string]float64{},

		LowRiskAbove:      80,
		HighRiskAtOrBelow: 50,
	}
}
