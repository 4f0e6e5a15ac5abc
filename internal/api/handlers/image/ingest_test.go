package image

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleAdd_URLSource(t *testing.T) {
	h := NewHandler(&fakeService{})

	rec := postJSON(t, h.HandleAdd, "/images",
		`{"path":"https://example.com/cat.png","type":"url","tags":["cats"]}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["hash"] != "remotehash" {
		t.Errorf("expected remotehash, got %s", resp["hash"])
	}
}

func TestHandleAdd_LocalSource(t *testing.T) {
	h := NewHandler(&fakeService{})

	rec := postJSON(t, h.HandleAdd, "/images", `{"path":"/data/cat.png","type":"local"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestHandleAdd_Validation(t *testing.T) {
	h := NewHandler(&fakeService{})

	cases := map[string]string{
		"missing path":   `{"type":"url"}`,
		"unknown source": `{"path":"x","type":"ftp"}`,
		"bad json":       `{`,
	}
	for name, body := range cases {
		rec := postJSON(t, h.HandleAdd, "/images", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestHandleBatchAdd(t *testing.T) {
	h := NewHandler(&fakeService{})

	rec := postJSON(t, h.HandleBatchAdd, "/images/batch",
		`[{"path":"https://example.com/a.png","type":"url"},{"path":"/data/b.png","type":"local"}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []struct {
			Path string `json:"path"`
			Hash string `json:"hash"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Path != "https://example.com/a.png" {
		t.Errorf("results must be positional, got %+v", resp.Results)
	}
}

func TestHandleBatchAdd_EmptyList(t *testing.T) {
	h := NewHandler(&fakeService{})
	rec := postJSON(t, h.HandleBatchAdd, "/images/batch", `[]`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty batch, got %d", rec.Code)
	}
}
