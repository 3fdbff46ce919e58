package analysis

import (
	"time"
)

// PatternType classifies the recent trend of one exercise.
type PatternType string

const (
	PatternPlateau      PatternType = "plateau"
	PatternProgression  PatternType = "progression"
	PatternDecline      PatternType = "decline"
	PatternInconsistent PatternType = "inconsistent"
	PatternOptimal      PatternType = "optimal"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// RecommendationKind tags what a recommendation asks the user to change.
type RecommendationKind string

const (
	KindDeload                 RecommendationKind = "deload"
	KindVolumeIncrease         RecommendationKind = "volume_increase"
	KindVolumeDecrease         RecommendationKind = "volume_decrease"
	KindRepRangeChange         RecommendationKind = "rep_range_change"
	KindIsometric              RecommendationKind = "isometric"
	KindRest                   RecommendationKind = "rest"
	KindProgressionReady       RecommendationKind = "progression_ready"
	KindConsistencyImprovement RecommendationKind = "consistency_improvement"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities, higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3 //nolint:mnd // rank scale.
	case PriorityMedium:
		return 2 //nolint:mnd // rank scale.
	case PriorityLow:
		return 1
	}
	return 0
}

// PredictionSource tells which predictor produced a prediction.
type PredictionSource string

const (
	SourceTrend PredictionSource = "trend"
	SourceModel PredictionSource = "model"
)

// ExerciseSessionData aggregates the qualifying sets of one exercise in one session.
type ExerciseSessionData struct {
	SessionID     string    `json:"session_id"`
	Date          time.Time `json:"date"`
	MaxWeight     *float64  `json:"max_weight"`
	AverageWeight *float64  `json:"average_weight"`
	TotalVolume   float64   `json:"total_volume"`
	AverageReps   float64   `json:"average_reps"`
	AverageRPE    *float64  `json:"average_rpe"`
	AverageRIR    *float64  `json:"average_rir"`
	SetCount      int       `json:"set_count"`
}

// ExerciseHistory is the chronological series of one exercise.
//
// KeyedByName is set when the logs carried no exercise id and the name was used to group them.
type ExerciseHistory struct {
	ExerciseID   string                `json:"exercise_id"`
	ExerciseName string                `json:"exercise_name"`
	KeyedByName  bool                  `json:"keyed_by_name"`
	Sessions     []ExerciseSessionData `json:"sessions"`
}

// Key is the grouping key of the history.
func (h ExerciseHistory) Key() string {
	return exerciseKey(h.ExerciseID, h.ExerciseName)
}

func exerciseKey(id, name string) string {
	if id != "" {
		return id
	}
	return name
}

// PatternSignals are the independent measurements the classification is based on.
type PatternSignals struct {
	Plateau             bool    `json:"plateau"`
	PlateauWeight       float64 `json:"plateau_weight"`
	PlateauDuration     int     `json:"plateau_duration"`
	Decline             bool    `json:"decline"`
	SevereDecline       bool    `json:"severe_decline"`
	DeclinePercent      float64 `json:"decline_percent"`
	Progression         bool    `json:"progression"`
	WeightIncrease      float64 `json:"weight_increase"`
	ProgressionSessions int     `json:"progression_sessions"`
}

// ExercisePattern is the classification of one exercise history.
type ExercisePattern struct {
	ExerciseID     string                `json:"exercise_id"`
	ExerciseName   string                `json:"exercise_name"`
	Type           PatternType           `json:"pattern_type"`
	Description    string                `json:"description"`
	Severity       Severity              `json:"severity"`
	DataPoints     int                   `json:"data_points"`
	Trend          Trend                 `json:"trend"`
	RecentSessions []ExerciseSessionData `json:"recent_sessions"`
	Signals        PatternSignals        `json:"signals"`
}

func (p ExercisePattern) key() string {
	return exerciseKey(p.ExerciseID, p.ExerciseName)
}

// Recommendation is one actionable suggestion. ExerciseName is empty for overall recommendations.
type Recommendation struct {
	ID              string             `json:"id"`
	Kind            RecommendationKind `json:"type"`
	Priority        Priority           `json:"priority"`
	ExerciseName    string             `json:"exercise_name,omitempty"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	ActionItems     []string           `json:"action_items"`
	Reasoning       string             `json:"reasoning"`
	RelatedPatterns []PatternType      `json:"related_patterns"`
}

// WeightProgressionPrediction suggests the next working weight of an exercise.
//
// Confidence is a heuristic in [0, 1], not a calibrated probability.
type WeightProgressionPrediction struct {
	ExerciseID      string           `json:"exercise_id"`
	ExerciseName    string           `json:"exercise_name"`
	Source          PredictionSource `json:"source"`
	CurrentWeight   float64          `json:"current_weight"`
	PredictedWeight float64          `json:"predicted_weight"`
	WeightIncrease  float64          `json:"weight_increase"`
	Confidence      float64          `json:"confidence"`
	Reasoning       string           `json:"reasoning"`
}

// ProgressMetrics are the aggregate measures over all analysed sessions.
type ProgressMetrics struct {
	StrengthProgress float64 `json:"strength_progress"`
	VolumeProgress   float64 `json:"volume_progress"`
	ConsistencyScore int     `json:"consistency_score"`
	RecoveryScore    int     `json:"recovery_score"`
}

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Analysis is the result of analysing a list of sessions.
type Analysis struct {
	OverallScore     int               `json:"overall_score"`
	Summary          string            `json:"summary"`
	Patterns         []ExercisePattern `json:"patterns"`
	Recommendations  []Recommendation  `json:"recommendations"`
	Progress         ProgressMetrics   `json:"progress"`
	AnalyzedAt       time.Time         `json:"analyzed_at"`
	SessionsAnalyzed int               `json:"sessions_analyzed"`
	TimeRange        TimeRange         `json:"time_range"`
}

// EnhancedAnalysis adds weight predictions keyed by exercise key.
type EnhancedAnalysis struct {
	Analysis

	Predictions map[string]WeightProgressionPrediction `json:"predictions"`
}
