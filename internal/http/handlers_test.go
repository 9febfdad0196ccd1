package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/khmerdata/registry/internal/audit"
	httpmiddleware "github.com/khmerdata/registry/internal/http/middleware"
	"github.com/khmerdata/registry/internal/person"
	"github.com/khmerdata/registry/internal/principal"
)

type stubSearcher struct {
	gotActor  principal.Principal
	gotFilter person.Filter
	gotPage   int
	page      person.Page
	err       error
}

func (s *stubSearcher) Search(_ context.Context, actor principal.Principal, filter person.Filter, page int) (person.Page, error) {
	s.gotActor = actor
	s.gotFilter = filter
	s.gotPage = page
	return s.page, s.err
}

type stubHistory struct {
	gotActor principal.Principal
	gotPage  int
	page     audit.HistoryPage
	err      error
}

func (s *stubHistory) List(_ context.Context, actor principal.Principal, page int) (audit.HistoryPage, error) {
	s.gotActor = actor
	s.gotPage = page
	return s.page, s.err
}

type stubRecorder struct {
	actions []string
	details []string
}

func (s *stubRecorder) Record(_ context.Context, _ principal.Principal, action string, _ *int64, details string) {
	s.actions = append(s.actions, action)
	s.details = append(s.details, details)
}

func managerPrincipal(t *testing.T) principal.Principal {
	t.Helper()
	p, err := principal.New(uuid.New(), "kampot_manager", principal.RoleManager, "Kampot")
	if err != nil {
		t.Fatalf("principal.New: %v", err)
	}
	return p
}

func userPrincipal(t *testing.T) principal.Principal {
	t.Helper()
	p, err := principal.New(uuid.New(), "clerk", principal.RoleUser, "")
	if err != nil {
		t.Fatalf("principal.New: %v", err)
	}
	return p
}

func TestHandleSearchPassesFilterAndPage(t *testing.T) {
	people := &stubSearcher{page: person.Page{Items: []person.Person{}, Total: 7, Page: 2, TotalPages: 1}}
	rec := &stubRecorder{}
	h := &Handler{people: people, recorder: rec}

	req := httptest.NewRequest("GET", "/search?name=Sok&age=31&page=2", nil)
	req = req.WithContext(httpmiddleware.WithPrincipal(req.Context(), managerPrincipal(t)))
	w := httptest.NewRecorder()

	h.handleSearch(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if people.gotFilter.Name != "Sok" || people.gotFilter.Age != "31" {
		t.Fatalf("filter = %+v", people.gotFilter)
	}
	if people.gotPage != 2 {
		t.Fatalf("page = %d, want 2", people.gotPage)
	}
	if people.gotActor.Province != "Kampot" {
		t.Fatalf("actor province = %q, want Kampot", people.gotActor.Province)
	}
}

func TestHandleSearchRecordsAudit(t *testing.T) {
	people := &stubSearcher{page: person.Page{Items: []person.Person{}, Total: 42, Page: 1, TotalPages: 1}}
	rec := &stubRecorder{}
	h := &Handler{people: people, recorder: rec}

	req := httptest.NewRequest("GET", "/search", nil)
	req = req.WithContext(httpmiddleware.WithPrincipal(req.Context(), userPrincipal(t)))
	w := httptest.NewRecorder()

	h.handleSearch(w, req)

	if len(rec.actions) != 1 || rec.actions[0] != audit.ActionSearch {
		t.Fatalf("recorded actions = %v", rec.actions)
	}
	if rec.details[0] != "Found 42 results" {
		t.Fatalf("details = %q", rec.details[0])
	}
}

func TestHandleSearchBadPageDefaultsToOne(t *testing.T) {
	people := &stubSearcher{page: person.Page{Items: []person.Person{}}}
	h := &Handler{people: people, recorder: &stubRecorder{}}

	for _, raw := range []string{"abc", "0", "-3", ""} {
		req := httptest.NewRequest("GET", "/search?page="+raw, nil)
		req = req.WithContext(httpmiddleware.WithPrincipal(req.Context(), userPrincipal(t)))
		w := httptest.NewRecorder()

		h.handleSearch(w, req)

		if people.gotPage != 1 {
			t.Fatalf("page=%q: got %d, want 1", raw, people.gotPage)
		}
	}
}

func TestHandleSearchMissingPrincipal(t *testing.T) {
	h := &Handler{people: &stubSearcher{}, recorder: &stubRecorder{}}

	req := httptest.NewRequest("GET", "/search", nil)
	w := httptest.NewRecorder()

	h.handleSearch(w, req)

	if w.Code != 401 {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestHandleHistoryForbiddenForUserRole(t *testing.T) {
	history := &stubHistory{}
	h := &Handler{history: history}

	req := httptest.NewRequest("GET", "/history", nil)
	req = req.WithContext(httpmiddleware.WithPrincipal(req.Context(), userPrincipal(t)))
	w := httptest.NewRecorder()

	h.handleHistory(w, req)

	if w.Code != 403 {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	var body ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error == nil || body.Error.Code != "FORBIDDEN" {
		t.Fatalf("error body = %+v", body.Error)
	}
	if history.gotPage != 0 {
		t.Fatal("history store should not be consulted")
	}
}

func TestHandleHistoryManagerAllowed(t *testing.T) {
	history := &stubHistory{page: audit.HistoryPage{Items: []audit.Event{}, Total: 0, Page: 3, TotalPages: 1}}
	h := &Handler{history: history}

	req := httptest.NewRequest("GET", "/history?page=3", nil)
	req = req.WithContext(httpmiddleware.WithPrincipal(req.Context(), managerPrincipal(t)))
	w := httptest.NewRecorder()

	h.handleHistory(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if history.gotPage != 3 {
		t.Fatalf("page = %d, want 3", history.gotPage)
	}
	if history.gotActor.Role != principal.RoleManager {
		t.Fatalf("actor role = %q", history.gotActor.Role)
	}
}

func TestHandleSearchEnvelopeShape(t *testing.T) {
	people := &stubSearcher{page: person.Page{Items: []person.Person{{ID: 9, Name: "Sok Dara"}}, Total: 1, Page: 1, TotalPages: 1}}
	h := &Handler{people: people, recorder: &stubRecorder{}}

	req := httptest.NewRequest("GET", "/search", nil)
	req = req.WithContext(httpmiddleware.WithPrincipal(req.Context(), userPrincipal(t)))
	w := httptest.NewRecorder()

	h.handleSearch(w, req)

	var body struct {
		Data  person.Page `json:"data"`
		Error any         `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != nil {
		t.Fatalf("error = %v, want null", body.Error)
	}
	if body.Data.Total != 1 || len(body.Data.Items) != 1 {
		t.Fatalf("data = %+v", body.Data)
	}
}
