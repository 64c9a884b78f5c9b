package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func registerViaHTTP(t *testing.T, handler http.Handler, username, email string) string {
	t.Helper()
	rr := postJSON(t, handler, "/api/auth/register",
		`{"username":"`+username+`","email":"`+email+`","password":"hunter22"}`, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: %d body=%s", username, rr.Code, rr.Body.String())
	}
	token, _ := decodePayload(t, rr)["token"].(string)
	if token == "" {
		t.Fatalf("no token for %s", username)
	}
	return token
}

func TestNoteLifecycleOverHTTP(t *testing.T) {
	svc, _, _ := newTestService(newFakeStore())
	handler := NewHTTPServer(svc, "*").Handler()
	token := registerViaHTTP(t, handler, "ada", "ada@example.com")

	// Create
	created := postJSON(t, handler, "/api/notes",
		`{"title":"Plan","content":"# Week\n\n- standup","tags":["Work"]}`, token)
	if created.Code != http.StatusCreated {
		t.Fatalf("create: %d body=%s", created.Code, created.Body.String())
	}
	createdPayload := decodePayload(t, created)
	data, _ := createdPayload["data"].(map[string]any)
	noteID, _ := data["id"].(string)
	if noteID == "" {
		t.Fatalf("expected note id in %v", createdPayload)
	}
	tags, _ := data["tags"].([]any)
	if len(tags) != 1 || tags[0] != "work" {
		t.Fatalf("tags not normalized: %v", data["tags"])
	}

	// List
	list := getJSON(t, handler, "/api/notes", token)
	if list.Code != http.StatusOK {
		t.Fatalf("list: %d", list.Code)
	}
	listPayload := decodePayload(t, list)
	if count, _ := listPayload["count"].(float64); count != 1 {
		t.Fatalf("expected count 1, got %v", listPayload["count"])
	}

	// Get
	got := getJSON(t, handler, "/api/notes/"+noteID, token)
	if got.Code != http.StatusOK {
		t.Fatalf("get: %d", got.Code)
	}

	// Update title only
	updated := putJSON(t, handler, "/api/notes/"+noteID, `{"title":"Plan v2"}`, token)
	if updated.Code != http.StatusOK {
		t.Fatalf("update: %d body=%s", updated.Code, updated.Body.String())
	}
	updatedData, _ := decodePayload(t, updated)["data"].(map[string]any)
	if updatedData["title"] != "Plan v2" {
		t.Fatalf("title not updated: %v", updatedData["title"])
	}
	if updatedData["content"] != "# Week\n\n- standup" {
		t.Fatalf("content should be untouched: %v", updatedData["content"])
	}

	// Delete
	deleted := deleteJSON(t, handler, "/api/notes/"+noteID, token)
	if deleted.Code != http.StatusOK {
		t.Fatalf("delete: %d", deleted.Code)
	}
	if decodePayload(t, deleted)["message"] != "Note deleted successfully" {
		t.Fatalf("unexpected delete payload")
	}

	// Gone afterwards
	gone := getJSON(t, handler, "/api/notes/"+noteID, token)
	if gone.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", gone.Code)
	}
}

func TestNoteOwnershipOverHTTP(t *testing.T) {
	svc, _, _ := newTestService(newFakeStore())
	handler := NewHTTPServer(svc, "*").Handler()
	ownerToken := registerViaHTTP(t, handler, "ada", "ada@example.com")
	intruderToken := registerViaHTTP(t, handler, "grace", "grace@example.com")

	created := postJSON(t, handler, "/api/notes", `{"title":"Private","content":"secret"}`, ownerToken)
	noteID, _ := decodePayload(t, created)["data"].(map[string]any)["id"].(string)

	if rr := getJSON(t, handler, "/api/notes/"+noteID, intruderToken); rr.Code != http.StatusNotFound {
		t.Fatalf("get as intruder: expected 404, got %d", rr.Code)
	}
	if rr := putJSON(t, handler, "/api/notes/"+noteID, `{"title":"mine now"}`, intruderToken); rr.Code != http.StatusNotFound {
		t.Fatalf("update as intruder: expected 404, got %d", rr.Code)
	}
	if rr := deleteJSON(t, handler, "/api/notes/"+noteID, intruderToken); rr.Code != http.StatusNotFound {
		t.Fatalf("delete as intruder: expected 404, got %d", rr.Code)
	}
	if payload := decodePayload(t, getJSON(t, handler, "/api/notes/"+noteID, intruderToken)); payload["message"] != "Note not found" {
		t.Fatalf("unexpected message %v", payload["message"])
	}
}

func TestCreateNoteMissingFieldsOverHTTP(t *testing.T) {
	svc, _, _ := newTestService(newFakeStore())
	handler := NewHTTPServer(svc, "*").Handler()
	token := registerViaHTTP(t, handler, "ada", "ada@example.com")

	rr := postJSON(t, handler, "/api/notes", `{"title":"no content"}`, token)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if decodePayload(t, rr)["message"] != "Title and content are required" {
		t.Fatalf("unexpected message")
	}
}

func TestSearchNotesOverHTTP(t *testing.T) {
	svc, _, _ := newTestService(newFakeStore())
	handler := NewHTTPServer(svc, "*").Handler()
	token := registerViaHTTP(t, handler, "ada", "ada@example.com")

	if rr := getJSON(t, handler, "/api/notes/search", token); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without q, got %d", rr.Code)
	}
	if rr := getJSON(t, handler, "/api/notes/search?q=plan&limit=x", token); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rr.Code)
	}

	rr := getJSON(t, handler, "/api/notes/search?q=plan", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("search: %d body=%s", rr.Code, rr.Body.String())
	}
	data, _ := decodePayload(t, rr)["data"].(map[string]any)
	if data["query"] != "plan" {
		t.Fatalf("unexpected search data %v", data)
	}
}

func TestNoteHistoryOverHTTP(t *testing.T) {
	svc, _, _ := newTestService(newFakeStore())
	handler := NewHTTPServer(svc, "*").Handler()
	token := registerViaHTTP(t, handler, "ada", "ada@example.com")

	created := postJSON(t, handler, "/api/notes", `{"title":"Plan","content":"v1"}`, token)
	noteID, _ := decodePayload(t, created)["data"].(map[string]any)["id"].(string)

	rr := getJSON(t, handler, "/api/notes/"+noteID+"/history", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("history: %d body=%s", rr.Code, rr.Body.String())
	}
	commits, _ := decodePayload(t, rr)["data"].([]any)
	if len(commits) != 1 {
		t.Fatalf("expected one commit, got %v", commits)
	}

	rr = getJSON(t, handler, "/api/notes/"+noteID+"/history/abc1234", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("revision: %d body=%s", rr.Code, rr.Body.String())
	}
	content, _ := decodePayload(t, rr)["data"].(map[string]any)
	if content["title"] != "Plan" {
		t.Fatalf("unexpected revision content %v", content)
	}
}

func TestExportNoteOverHTTP(t *testing.T) {
	svc, _, _ := newTestService(newFakeStore())
	handler := NewHTTPServer(svc, "*").Handler()
	token := registerViaHTTP(t, handler, "ada", "ada@example.com")

	created := postJSON(t, handler, "/api/notes", `{"title":"Plan","content":"# Week"}`, token)
	noteID, _ := decodePayload(t, created)["data"].(map[string]any)["id"].(string)

	rr := getJSON(t, handler, "/api/notes/"+noteID+"/export?format=markdown", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("export markdown: %d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "# Week" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/markdown; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd == "" {
		t.Fatal("expected attachment disposition")
	}

	html := getJSON(t, handler, "/api/notes/"+noteID+"/export?format=html", token)
	if html.Code != http.StatusOK {
		t.Fatalf("export html: %d", html.Code)
	}
	if !bytes.Contains(html.Body.Bytes(), []byte("<h1")) {
		t.Fatalf("expected rendered markdown, got %q", html.Body.String())
	}

	bad := getJSON(t, handler, "/api/notes/"+noteID+"/export?format=docx", token)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad format, got %d", bad.Code)
	}
}

func putJSON(t *testing.T, handler http.Handler, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func deleteJSON(t *testing.T, handler http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
