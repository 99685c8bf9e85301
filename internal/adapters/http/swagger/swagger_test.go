package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func serve(mux *http.ServeMux, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	Convey("Given the docs routes on a mux", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		Convey("When fetching the OpenAPI document", func() {
			w := serve(mux, http.MethodGet, "/openapi.yaml", nil)

			Convey("Then every route is described", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/yaml; charset=utf-8")
				for _, path := range []string{"/users:", "/superusers:", "/top-countries:", "/team-insights:", "/names:", "/healthz:"} {
					So(w.Body.String(), ShouldContainSubstring, path)
				}
			})

			Convey("Then a matching ETag revalidates without a body", func() {
				etag := w.Header().Get("ETag")
				So(etag, ShouldNotBeBlank)

				again := serve(mux, http.MethodGet, "/openapi.yaml", http.Header{"If-None-Match": {etag}})
				So(again.Code, ShouldEqual, http.StatusNotModified)
				So(again.Body.Len(), ShouldEqual, 0)
			})
		})

		Convey("When fetching the viewer page", func() {
			w := serve(mux, http.MethodGet, "/api-docs", nil)

			Convey("Then it loads ReDoc against the served document", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "text/html; charset=utf-8")
				So(w.Body.String(), ShouldContainSubstring, RedocScriptURL)
				So(w.Body.String(), ShouldContainSubstring, "Redoc.init('/openapi.yaml'")
			})
		})

		Convey("When sending HEAD", func() {
			w := serve(mux, http.MethodHead, "/api-docs", nil)

			Convey("Then only headers come back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.Len(), ShouldEqual, 0)
			})
		})

		Convey("When posting to a docs route", func() {
			w := serve(mux, http.MethodPost, "/openapi.yaml", nil)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given a nil mux", t, func() {
		Convey("Then registering panics", func() {
			So(func() { Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}
