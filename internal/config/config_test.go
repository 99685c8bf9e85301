package config_test

import (
	"testing"

	"github.com/okian/userstats/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.UploadDir, convey.ShouldEqual, "uploads")
			convey.So(cfg.KeepUploads, convey.ShouldBeTrue)
			convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 32<<20)
			convey.So(cfg.SuperuserThreshold, convey.ShouldEqual, 900)
			convey.So(cfg.TopCountriesLimit, convey.ShouldEqual, 5)
			convey.So(cfg.TeamInsightsMode, convey.ShouldEqual, "aggregate")
			convey.So(cfg.StoreBackend, convey.ShouldEqual, "memory")
		})

		convey.Convey("And the defaults should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
