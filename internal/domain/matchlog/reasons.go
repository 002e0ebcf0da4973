package matchlog

// Rejection reasons reported in model.Report.Rejected.
const (
	ReasonMissingField         = "missing_field"
	ReasonDuplicate            = "duplicate"
	ReasonSelfMatch            = "self_match"
	ReasonWinnerNotParticipant = "winner_not_participant"
)
