package evaluation

import (
	"fmt"
	"time"

	"github.com/okian/wrestlerank/internal/domain/model"
)

// Window splits a match history into training and evaluation sets.
// All bounds are inclusive. A zero EvalStart means the instant after
// TrainEnd; a zero EvalEnd leaves the window open.
type Window struct {
	TrainEnd  time.Time
	EvalStart time.Time
	EvalEnd   time.Time
}

// Resolve validates w and fills in the default evaluation start.
func (w Window) Resolve() (Window, error) {
	if w.TrainEnd.IsZero() {
		return w, ErrMissingTrainEnd
	}
	if w.EvalStart.IsZero() {
		w.EvalStart = w.TrainEnd.Add(time.Nanosecond)
	}
	if !w.EvalStart.After(w.TrainEnd) {
		return w, fmt.Errorf("%w: eval start %s is not after train end %s", ErrInvalidWindow,
			w.EvalStart.Format(time.RFC3339), w.TrainEnd.Format(time.RFC3339))
	}
	if !w.EvalEnd.IsZero() && w.EvalEnd.Before(w.EvalStart) {
		return w, fmt.Errorf("%w: eval end %s is before eval start %s", ErrInvalidWindow,
			w.EvalEnd.Format(time.RFC3339), w.EvalStart.Format(time.RFC3339))
	}
	return w, nil
}

// Partition assigns bouts to the training and evaluation sets of a resolved
// window. Bouts between TrainEnd and EvalStart, or after EvalEnd, are dropped.
func (w Window) Partition(bouts []model.Bout) (train, eval []model.Bout) {
	for _, b := range bouts {
		switch {
		case !b.Date.After(w.TrainEnd):
			train = append(train, b)
		case !b.Date.Before(w.EvalStart) && (w.EvalEnd.IsZero() || !b.Date.After(w.EvalEnd)):
			eval = append(eval, b)
		}
	}
	return train, eval
}
