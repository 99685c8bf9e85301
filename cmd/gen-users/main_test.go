package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/userstats/internal/adapters/http/api"
	service "github.com/okian/userstats/internal/app"
	"github.com/okian/userstats/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	Convey("Given the gen-users command", t, func() {
		Convey("When asking for help", func() {
			out, err := execute("--help")

			Convey("Then every flag is listed", func() {
				So(err, ShouldBeNil)
				for _, flag := range []string{"--url", "--users", "--chunk", "--workers", "--timeout", "--output", "--seed", "--verbose"} {
					So(out, ShouldContainSubstring, flag)
				}
			})
		})

		Convey("When given a positional argument", func() {
			_, err := execute("extra")

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the service is running", func() {
			svc := service.New()
			So(svc.Start(context.Background()), ShouldBeNil)
			defer svc.Stop()
			mux := http.NewServeMux()
			api.NewServer(svc, svc).Register(context.Background(), mux)
			srv := httptest.NewServer(mux)
			defer srv.Close()

			output := filepath.Join(t.TempDir(), "users.json")
			out, err := execute("--url", srv.URL, "--users", "120", "--chunk", "50", "--workers", "2", "--seed", "9", "--output", output)

			Convey("Then the run verifies and reports a summary", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "verified 120 users in 3 chunks")
				info, statErr := os.Stat(output)
				So(statErr, ShouldBeNil)
				So(info.Size(), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the service is unreachable", func() {
			srv := httptest.NewServer(http.NotFoundHandler())
			srv.Close()
			_, err := execute("--url", srv.URL, "--users", "5", "--timeout", "1s")

			Convey("Then the run fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "load run failed")
			})
		})
	})
}
