package analysis

const (
	DefaultLookbackDays               = 30
	DefaultMinSessions                = 3
	DefaultWeightProgressionThreshold = 2.5
	DefaultWeightUnit                 = "lbs"

	// predictionMinSessions is the lower history requirement used for weight predictions.
	predictionMinSessions = 2
)

// Options tune an analysis run. Zero or negative values take the defaults.
type Options struct {
	LookbackDays               int     `json:"lookback_days"`
	MinSessions                int     `json:"min_sessions"`
	IncludeWarmupSets          bool    `json:"include_warmup_sets"`
	WeightProgressionThreshold float64 `json:"weight_progression_threshold"`
	WeightUnit                 string  `json:"weight_unit"`
}

func DefaultOptions() Options {
	return Options{
		LookbackDays:               DefaultLookbackDays,
		MinSessions:                DefaultMinSessions,
		IncludeWarmupSets:          false,
		WeightProgressionThreshold: DefaultWeightProgressionThreshold,
		WeightUnit:                 DefaultWeightUnit,
	}
}

func (o Options) withDefaults() Options {
	if o.LookbackDays <= 0 {
		o.LookbackDays = DefaultLookbackDays
	}
	if o.MinSessions <= 0 {
		o.MinSessions = DefaultMinSessions
	}
	if o.WeightProgressionThreshold <= 0 {
		o.WeightProgressionThreshold = DefaultWeightProgressionThreshold
	}
	if o.WeightUnit == "" {
		o.WeightUnit = DefaultWeightUnit
	}
	return o
}
