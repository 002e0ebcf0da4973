package model

// EvaluationRecord is one scored prediction inside the evaluation window.
type EvaluationRecord struct {
	MatchID     string  `json:"match_id"`
	Winner      string  `json:"winner"`
	Loser       string  `json:"loser"`
	WeightClass int     `json:"weight_class"`
	Month       Month   `json:"month"`
	Probability float64 `json:"probability"` // predicted win probability of the actual winner
	Outcome     float64 `json:"outcome"`     // always 1: the record is taken from the winner's side
	LogLoss     float64 `json:"log_loss"`
	Brier       float64 `json:"brier"`
	Correct     bool    `json:"correct"`
}

// EvaluationResult aggregates the records of one tau.
type EvaluationResult struct {
	Tau           float64            `json:"tau"`
	MatchesScored int                `json:"matches"`
	LogLoss       float64            `json:"log_loss"`
	BrierScore    float64            `json:"brier"`
	Accuracy      float64            `json:"accuracy"`
	Records       []EvaluationRecord `json:"records,omitempty"`
}
