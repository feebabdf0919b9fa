package media_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hotelier/internal/adapters/media"
)

func TestClient_Upload_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart, got %s", r.Header.Get("Content-Type"))
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(400)
			return
		}
		b, _ := io.ReadAll(f)
		if string(b) != "jpegbytes" {
			t.Errorf("unexpected body: %q", b)
		}
		w.WriteHeader(201)
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.example/img/1.jpg"})
	}))
	defer ts.Close()

	cl, err := media.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url, err := cl.Upload(ctx, []byte("jpegbytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if url != "https://cdn.example/img/1.jpg" {
		t.Fatalf("unexpected url: %s", url)
	}
}

func TestClient_Upload_NoRetryOn500(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(500)
	}))
	defer ts.Close()

	cl, err := media.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := cl.Upload(context.Background(), []byte("x"), "image/jpeg"); err == nil {
		t.Fatalf("expected error for 500")
	}
	// a failed upload must abort the batch, never be re-sent
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected exactly 1 request, got %d", n)
	}
}

func TestClient_RequiresKey(t *testing.T) {
	if _, err := media.New("https://media.example", "", 10); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
