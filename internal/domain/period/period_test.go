package period_test

import (
	"testing"
	"time"

	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/internal/domain/period"
	. "github.com/smartystreets/goconvey/convey"
)

func bout(id string, date time.Time) model.Bout {
	return model.Bout{MatchID: id, Winner: "a", Loser: "b", WeightClass: 138, Date: date}
}

func TestSegment(t *testing.T) {
	Convey("Given an unsorted bout stream", t, func() {
		jan5 := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
		jan20 := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)
		apr2 := time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC)

		bouts := []model.Bout{
			bout("z", apr2),
			bout("c", jan20),
			bout("b", jan5),
			bout("a", jan5),
		}

		periods := period.Segment(bouts)

		Convey("It returns only active months in order", func() {
			So(periods, ShouldHaveLength, 2)
			So(periods[0].Month.String(), ShouldEqual, "2024-01")
			So(periods[1].Month.String(), ShouldEqual, "2024-04")
		})

		Convey("Same-day bouts are ordered by id", func() {
			ids := []string{}
			for _, b := range periods[0].Bouts {
				ids = append(ids, b.MatchID)
			}
			So(ids, ShouldResemble, []string{"a", "b", "c"})
		})

		Convey("Each bout carries its month", func() {
			So(periods[1].Bouts[0].Month, ShouldEqual, model.MonthOf(apr2))
		})

		Convey("The input is left untouched", func() {
			So(bouts[0].MatchID, ShouldEqual, "z")
			So(bouts[0].Month, ShouldEqual, model.Month(0))
		})

		Convey("Span and Count summarise the result", func() {
			first, last, ok := period.Span(periods)
			So(ok, ShouldBeTrue)
			So(period.Range(first, last), ShouldHaveLength, 4)
			So(period.Count(periods), ShouldEqual, 4)
		})
	})

	Convey("Given no bouts", t, func() {
		So(period.Segment(nil), ShouldBeEmpty)
		_, _, ok := period.Span(nil)
		So(ok, ShouldBeFalse)
	})
}

func TestElapsed(t *testing.T) {
	Convey("Elapsed counts empty months strictly between activity", t, func() {
		jan := model.MonthOf(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
		So(period.Elapsed(jan, jan), ShouldEqual, 0)
		So(period.Elapsed(jan, jan.Next()), ShouldEqual, 0)
		So(period.Elapsed(jan, jan+4), ShouldEqual, 3)
		So(period.Elapsed(jan+4, jan), ShouldEqual, 0)
		So(period.Range(jan+1, jan), ShouldBeEmpty)
	})
}
