package upload_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/userstats/internal/adapters/upload"
	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func newUploadRequest(t *testing.T, field, filename string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/users", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestValidate(t *testing.T) {
	convey.Convey("Given uploaded filenames", t, func() {
		convey.Convey("When the name ends in .json", func() {
			convey.So(upload.Validate("users.json"), convey.ShouldBeNil)
			convey.So(upload.Validate("nested/dir/users.json"), convey.ShouldBeNil)
		})

		convey.Convey("When the name is empty", func() {
			err := upload.Validate("  ")

			convey.Convey("Then it is rejected as nameless", func() {
				convey.So(errors.Is(err, upload.ErrInvalidUpload), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldEqual, "file has no name")
			})
		})

		convey.Convey("When the name has another extension", func() {
			err := upload.Validate("users.csv")

			convey.Convey("Then it is rejected as not json", func() {
				var verr *upload.ValidationError
				convey.So(errors.As(err, &verr), convey.ShouldBeTrue)
				convey.So(verr.Field, convey.ShouldEqual, "file")
				convey.So(verr.Message, convey.ShouldEqual, "file is not a json document")
			})
		})

		convey.Convey("When the name is too long", func() {
			err := upload.Validate(strings.Repeat("a", 300) + ".json")
			convey.So(errors.Is(err, upload.ErrInvalidUpload), convey.ShouldBeTrue)
		})
	})
}

func TestReceive(t *testing.T) {
	convey.Convey("Given multipart requests", t, func() {
		w := httptest.NewRecorder()

		convey.Convey("When a json file is attached", func() {
			req := newUploadRequest(t, upload.FormField, "batch.json", []byte(`[{"name":"ana"}]`))
			f, err := upload.Receive(w, req, 1<<20)

			convey.Convey("Then the payload is returned in memory", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(f.Name, convey.ShouldEqual, "batch.json")
				convey.So(string(f.Data), convey.ShouldEqual, `[{"name":"ana"}]`)
				convey.So(f.Size(), convey.ShouldEqual, len(`[{"name":"ana"}]`))
			})
		})

		convey.Convey("When the part uses another field name", func() {
			req := newUploadRequest(t, "document", "batch.json", []byte(`[]`))
			_, err := upload.Receive(w, req, 1<<20)
			convey.So(errors.Is(err, upload.ErrNoFile), convey.ShouldBeTrue)
		})

		convey.Convey("When the request is not multipart", func() {
			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`[]`))
			req.Header.Set("Content-Type", "application/json")
			_, err := upload.Receive(w, req, 1<<20)
			convey.So(errors.Is(err, upload.ErrNoFile), convey.ShouldBeTrue)
		})

		convey.Convey("When the file part has an empty filename", func() {
			req := newUploadRequest(t, upload.FormField, "", []byte(`[]`))
			_, err := upload.Receive(w, req, 1<<20)

			convey.Convey("Then it is reported as nameless", func() {
				convey.So(errors.Is(err, upload.ErrInvalidUpload), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldEqual, "file has no name")
			})
		})

		convey.Convey("When the file is not json", func() {
			req := newUploadRequest(t, upload.FormField, "batch.txt", []byte(`[]`))
			_, err := upload.Receive(w, req, 1<<20)
			convey.So(errors.Is(err, upload.ErrInvalidUpload), convey.ShouldBeTrue)
		})

		convey.Convey("When the body exceeds the limit", func() {
			req := newUploadRequest(t, upload.FormField, "batch.json", bytes.Repeat([]byte("x"), 4096))
			_, err := upload.Receive(w, req, 512)
			convey.So(errors.Is(err, upload.ErrTooLarge), convey.ShouldBeTrue)
		})
	})
}

func TestStorage(t *testing.T) {
	convey.Convey("Given a storage on an in-memory filesystem", t, func() {
		fs := afero.NewMemMapFs()
		store := upload.NewStorage(fs, "uploads")
		ctx := context.Background()

		convey.Convey("When saving a file", func() {
			path, err := store.Save(ctx, upload.File{Name: "batch.json", Data: []byte(`[]`)})

			convey.Convey("Then it lands under the upload dir with a unique prefix", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(filepath.Dir(path), convey.ShouldEqual, "uploads")
				convey.So(filepath.Base(path), convey.ShouldEndWith, "-batch.json")
				data, err := store.Open(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldEqual, `[]`)
			})

			convey.Convey("And saving the same name twice keeps both copies", func() {
				other, err := store.Save(ctx, upload.File{Name: "batch.json", Data: []byte(`[1]`)})
				convey.So(err, convey.ShouldBeNil)
				convey.So(other, convey.ShouldNotEqual, path)
				entries, err := afero.ReadDir(fs, store.Dir())
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(entries), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the name carries directories", func() {
			path, err := store.Save(ctx, upload.File{Name: "../../etc/batch.json", Data: []byte(`[]`)})
			convey.So(err, convey.ShouldBeNil)
			convey.So(filepath.Dir(path), convey.ShouldEqual, "uploads")
		})

		convey.Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := store.Save(cctx, upload.File{Name: "batch.json"})
			convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
		})

		convey.Convey("When reading a missing file", func() {
			_, err := store.Open("uploads/missing.json")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
