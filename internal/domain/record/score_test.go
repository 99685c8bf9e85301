package record_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/userstats/internal/domain/record"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScoreCoercion(t *testing.T) {
	Convey("Given raw score fields", t, func() {
		decode := func(raw string) record.Score {
			var s record.Score
			So(json.Unmarshal([]byte(raw), &s), ShouldBeNil)
			return s
		}

		Convey("When the field is a number", func() {
			v, err := decode(`950`).Float()
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 950)

			v, err = decode(`-12.5e1`).Float()
			So(err, ShouldBeNil)
			So(v, ShouldEqual, -125)
		})

		Convey("When the field is a numeric string", func() {
			v, err := decode(`" 900 "`).Float()
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 900)
		})

		Convey("When the field is null", func() {
			s := decode(`null`)
			v, err := s.Float()
			So(s.State(), ShouldEqual, record.ScoreAbsent)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0)
		})

		Convey("When the field is a non-numeric string", func() {
			s := decode(`"abc"`)
			_, err := s.Float()
			So(s.State(), ShouldEqual, record.ScoreInvalid)
			So(errors.Is(err, record.ErrScoreNotNumeric), ShouldBeTrue)
		})

		Convey("When the value is not finite", func() {
			for _, raw := range []string{`"NaN"`, `"inf"`, `"-Infinity"`, `1e400`} {
				s := decode(raw)
				_, err := s.Float()
				So(s.State(), ShouldEqual, record.ScoreInvalid)
				So(errors.Is(err, record.ErrScoreNotFinite), ShouldBeTrue)
			}
		})

		Convey("When the field has another JSON type", func() {
			for _, raw := range []string{`true`, `false`, `{}`, `[900]`} {
				s := decode(raw)
				_, err := s.Float()
				So(s.State(), ShouldEqual, record.ScoreInvalid)
				So(errors.Is(err, record.ErrUnsupportedScore), ShouldBeTrue)
			}
		})
	})

	Convey("Given scores built in code", t, func() {
		So(record.NewScore(math.Inf(1)).State(), ShouldEqual, record.ScoreInvalid)
		So(record.NewScore(901).State(), ShouldEqual, record.ScoreValid)
		So(record.ParseScore("12a").State(), ShouldEqual, record.ScoreInvalid)
		So(record.ScoreValid.String(), ShouldEqual, "valid")

		b, err := json.Marshal(record.ParseScore("x"))
		So(err, ShouldBeNil)
		So(string(b), ShouldEqual, "null")
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given names and countries from uploads", t, func() {
		Convey("Then normalization trims and title-cases", func() {
			So(record.NormalizeName("ana"), ShouldEqual, "Ana")
			So(record.NormalizeName("Ana "), ShouldEqual, "Ana")
			So(record.NormalizeName("  MARIA  clara"), ShouldEqual, "Maria  Clara")
			So(record.NormalizeCountry(" brazil"), ShouldEqual, "Brazil")
			So(record.NormalizeCountry("são tomé"), ShouldEqual, "São Tomé")
			So(record.NormalizeName("   "), ShouldEqual, "")
		})

		Convey("Then normalization is idempotent", func() {
			for _, s := range []string{"ana", " united states ", "ÉLODIE", "o'neil", "x"} {
				once := record.NormalizeName(s)
				So(record.NormalizeName(once), ShouldEqual, once)
			}
		})

		Convey("Then team keys keep case and only trim", func() {
			So(record.TeamKey("  alpha Team "), ShouldEqual, "alpha Team")
		})
	})
}
