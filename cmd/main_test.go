package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	app "github.com/okian/userstats/internal/app"
	"github.com/okian/userstats/internal/config"
	"github.com/okian/userstats/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const usersJSON = `[
  {"name": "ana", "score": 950, "country": "brasil", "team": {"projects": [{"completed": true}]}},
  {"name": "bruno", "score": "901", "country": "chile"},
  {"name": "ana", "score": 10, "country": "brasil"}
]`

func upload(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "users.json")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte(body))
	_ = mw.Close()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestApplicationRoutes(t *testing.T) {
	convey.Convey("Given the application wired from default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.UploadDir = t.TempDir()

		svc := app.New(serviceOptions(cfg, logger.Get())...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		handler := newHandler(ctx, cfg, svc)

		serve := func(req *http.Request) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w
		}

		convey.Convey("When requesting the root", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldEqual, "Hello universe!")
		})

		convey.Convey("When uploading users and reading the tally", func() {
			w := serve(upload(t, http.MethodPost, "/users", usersJSON))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			var env struct {
				Response struct {
					Body struct {
						UserCount int `json:"user_count"`
					} `json:"body"`
				} `json:"response"`
			}
			convey.So(json.Unmarshal(w.Body.Bytes(), &env), convey.ShouldBeNil)
			convey.So(env.Response.Body.UserCount, convey.ShouldEqual, 3)

			w = serve(httptest.NewRequest(http.MethodGet, "/names/ana", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"count":2`)
		})

		convey.Convey("When ranking countries", func() {
			w := serve(upload(t, http.MethodPost, "/top-countries", usersJSON))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring,
				`"countries":[{"country":"Brasil","total":1},{"country":"Chile","total":1}]`)
		})

		convey.Convey("When uploading a broken document", func() {
			w := serve(upload(t, http.MethodGet, "/team-insights", `[{"name":`))
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When fetching the API docs", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("When scraping metrics", func() {
			updateSystemMetrics()
			w := serve(httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "userstats_insights_system_goroutines")
		})
	})
}

func TestServiceOptions(t *testing.T) {
	convey.Convey("Given a configuration that keeps uploads", t, func() {
		cfg := config.New()
		cfg.UploadDir = t.TempDir()

		convey.Convey("When a report is served and the service stops", func() {
			svc := app.New(serviceOptions(cfg, logger.Get())...)
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			handler := newHandler(context.Background(), cfg, svc)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, upload(t, http.MethodPost, "/superusers", usersJSON))
			svc.Stop()

			convey.Convey("Then the upload was written to the upload dir", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				entries, err := os.ReadDir(cfg.UploadDir)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(entries), convey.ShouldEqual, 1)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given an invalid environment", t, func() {
		_ = os.Setenv("USERSTATS_TEAM_INSIGHTS_MODE", "sum")
		defer func() { _ = os.Unsetenv("USERSTATS_TEAM_INSIGHTS_MODE") }()

		convey.Convey("Then run fails before listening", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			convey.So(run(ctx), convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a valid environment and a cancelled context", t, func() {
		_ = os.Setenv("USERSTATS_ADDR", "127.0.0.1:0")
		_ = os.Setenv("USERSTATS_KEEP_UPLOADS", "false")
		defer func() {
			_ = os.Unsetenv("USERSTATS_ADDR")
			_ = os.Unsetenv("USERSTATS_KEEP_UPLOADS")
		}()

		convey.Convey("Then run shuts down cleanly", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			convey.So(run(ctx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then it returns once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
