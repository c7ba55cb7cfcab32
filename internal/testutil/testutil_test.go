package testutil

import (
	"net/http"
	"testing"

	"github.com/banshee-data/cubeface/internal/httputil"
)

func TestAssertHelpersPass(t *testing.T) {
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	AssertNoError(t, nil)
}

func TestNewTestRequest(t *testing.T) {
	req := NewTestRequest(http.MethodGet, "/api/status", "")
	if req.Method != http.MethodGet || req.URL.Path != "/api/status" {
		t.Errorf("request = %s %s", req.Method, req.URL.Path)
	}
	if req.Header.Get("Content-Type") != "" {
		t.Error("bodyless request should not carry a content type")
	}

	req = NewTestRequest(http.MethodPost, "/api/presets", `{"name":"x"}`)
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("content-type = %q", req.Header.Get("Content-Type"))
	}
	if req.ContentLength != int64(len(`{"name":"x"}`)) {
		t.Errorf("content length = %d", req.ContentLength)
	}
}

func TestServeAndDecode(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, map[string]string{"path": r.URL.Path})
	})
	rec := Serve(h, http.MethodGet, "/x", "")
	AssertStatusCode(t, rec.Code, http.StatusOK)

	var got map[string]string
	DecodeJSON(t, rec, &got)
	if got["path"] != "/x" {
		t.Errorf("path = %q, want /x", got["path"])
	}
}
