// AngelaMos | 2026
// imagekit_test.go

package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carterperez-dev/templates/qa-backend/internal/config"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

type capturedUpload struct {
	user   string
	folder string
	name   string
	width  int
}

func fakeImageKit(t *testing.T, got *capturedUpload) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, _ := r.BasicAuth()
		got.user = user

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		got.folder = r.FormValue("folder")
		got.name = r.FormValue("fileName")

		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		cfg, _, err := image.DecodeConfig(f)
		if err != nil {
			t.Errorf("decode uploaded image: %v", err)
			return
		}
		got.width = cfg.Width

		_ = json.NewEncoder(w).Encode(map[string]string{
			"fileId": "f1",
			"name":   got.name,
			"url":    "https://ik.example/forum/" + got.name,
		})
	}))
}

func TestImageKitUploadDownscales(t *testing.T) {
	var got capturedUpload
	srv := fakeImageKit(t, &got)
	defer srv.Close()

	kit := NewImageKit(config.ImageKitConfig{
		PrivateKey: "private_key",
		UploadURL:  srv.URL,
		Folder:     "/forum",
		MaxWidth:   64,
		Timeout:    5 * time.Second,
	}, nil)

	url, err := kit.Upload(context.Background(), pngDataURI(t, 256, 32), "question-1")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if url != "https://ik.example/forum/question-1.png" {
		t.Errorf("url = %q", url)
	}
	if got.user != "private_key" {
		t.Errorf("basic auth user = %q", got.user)
	}
	if got.folder != "/forum" {
		t.Errorf("folder = %q", got.folder)
	}
	if got.width != 64 {
		t.Errorf("uploaded width = %d, want 64", got.width)
	}
}

func TestImageKitKeepsRemoteURLs(t *testing.T) {
	kit := NewImageKit(config.ImageKitConfig{UploadURL: "http://127.0.0.1:1"}, nil)

	url, err := kit.Upload(context.Background(), "https://cdn.example/a.png", "x")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://cdn.example/a.png" {
		t.Errorf("url = %q", url)
	}
}

func TestImageKitRejectsGarbage(t *testing.T) {
	kit := NewImageKit(config.ImageKitConfig{UploadURL: "http://127.0.0.1:1"}, nil)

	if _, err := kit.Upload(context.Background(), "data:image/png;base64,!!!", "x"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestUploadAllSkipsBlankSources(t *testing.T) {
	urls, err := UploadAll(context.Background(), NoopUploader{}, []string{"a", " ", "b"}, "q")
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 2 || urls[0] != "a" || urls[1] != "b" {
		t.Errorf("urls = %v", urls)
	}
}
