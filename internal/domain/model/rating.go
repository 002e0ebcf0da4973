package model

// Rating defaults on the display scale.
const (
	DefaultRating     = 1500.0
	DefaultRD         = 350.0
	DefaultVolatility = 0.06
	// MaxRD is the deviation of a fully uncertain rating.
	MaxRD = 350.0
)

// RatingState is the Glicko-2 state of one bucket at a point in replay time.
type RatingState struct {
	Rating        float64 `json:"rating"`
	RD            float64 `json:"rating_deviation"`
	Volatility    float64 `json:"volatility"`
	MatchesPlayed int     `json:"matches_played"`
	LastActive    Month   `json:"last_active_month"`

	// Through is the last period whose inactivity decay has been applied.
	Through Month `json:"-"`
}

// NewRatingState returns the default state of a bucket that has never competed.
func NewRatingState() RatingState {
	return RatingState{
		Rating:     DefaultRating,
		RD:         DefaultRD,
		Volatility: DefaultVolatility,
	}
}

// Conservative returns rating - 2*RD, the lower-bound estimate used for ranking.
func (s RatingState) Conservative() float64 {
	return s.Rating - 2*s.RD
}
