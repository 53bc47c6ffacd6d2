package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

type groupBody struct {
	ID   int64    `json:"id"`
	LEDs []string `json:"leds"`
	Name string   `json:"name"`
}

func decodeGroup(t *testing.T, body []byte) groupBody {
	t.Helper()
	var g groupBody
	if err := json.Unmarshal(body, &g); err != nil {
		t.Fatalf("decoding group %q: %v", body, err)
	}
	return g
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestCreateGroup(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/groups", `{"name":"hall","leds":["1","1",2],"id":99}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	g := decodeGroup(t, rec.Body.Bytes())
	if g.ID != 1 || g.Name != "hall" || !equalIDs(g.LEDs, []string{"1", "2"}) {
		t.Errorf("created = %+v", g)
	}

	rec = env.do(t, http.MethodPost, "/api/groups", `{"name":"empty"}`)
	g = decodeGroup(t, rec.Body.Bytes())
	if g.ID != 2 || g.LEDs == nil || len(g.LEDs) != 0 {
		t.Errorf("second group = %+v, want id 2 with empty leds", g)
	}
}

func TestCreateGroup_Invalid(t *testing.T) {
	env := newTestEnv(t, nil)

	assertError(t, env.do(t, http.MethodPost, "/api/groups", `[1,2]`), http.StatusBadRequest, ErrCodeValidation)
	assertError(t, env.do(t, http.MethodPost, "/api/groups", `{"leds":"1"}`), http.StatusBadRequest, ErrCodeValidation)
}

func TestGroupLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(t, http.MethodPost, "/api/groups", `{"name":"hall","leds":["1","2"]}`)
	env.do(t, http.MethodPut, "/api/leds/1", `{"state":"on"}`)

	rec := env.do(t, http.MethodGet, "/api/groups/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodPatch, "/api/groups/1", `{"add":["3","3"],"remove":["2","9"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if g := decodeGroup(t, rec.Body.Bytes()); !equalIDs(g.LEDs, []string{"1", "3"}) {
		t.Errorf("after edit leds = %v, want [1 3]", g.LEDs)
	}

	rec = env.do(t, http.MethodGet, "/api/groups/1/leds", "")
	var members []struct {
		ID    string          `json:"id"`
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &members); err != nil {
		t.Fatalf("decoding members: %v", err)
	}
	if len(members) != 2 || members[0].ID != "1" || members[1].ID != "3" {
		t.Fatalf("members = %+v", members)
	}
	if string(members[1].State) != "null" {
		t.Errorf("unseen member state = %s, want null", members[1].State)
	}

	rec = env.do(t, http.MethodGet, "/api/groups", "")
	var listed []struct {
		ID   string    `json:"id"`
		Data groupBody `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decoding groups: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "1" || listed[0].Data.Name != "hall" {
		t.Errorf("listed = %+v", listed)
	}

	rec = env.do(t, http.MethodDelete, "/api/groups/1", "")
	if got := decodeMap(t, rec); got["success"] != true {
		t.Errorf("first delete = %v, want success true", got)
	}
	rec = env.do(t, http.MethodDelete, "/api/groups/1", "")
	if got := decodeMap(t, rec); got["success"] != false {
		t.Errorf("second delete = %v, want success false", got)
	}

	assertError(t, env.do(t, http.MethodGet, "/api/groups/1", ""), http.StatusNotFound, ErrCodeNotFound)
	assertError(t, env.do(t, http.MethodGet, "/api/groups/1/leds", ""), http.StatusNotFound, ErrCodeNotFound)
}

func TestGroup_NonIntegerID(t *testing.T) {
	env := newTestEnv(t, nil)

	assertError(t, env.do(t, http.MethodGet, "/api/groups/abc", ""), http.StatusNotFound, ErrCodeNotFound)
	assertError(t, env.do(t, http.MethodPatch, "/api/groups/abc", `{"add":["1"]}`), http.StatusNotFound, ErrCodeNotFound)
}

func TestEditGroup_Missing(t *testing.T) {
	env := newTestEnv(t, nil)
	assertError(t, env.do(t, http.MethodPatch, "/api/groups/5", `{"add":["1"]}`), http.StatusNotFound, ErrCodeNotFound)
}

func TestControlGroup(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/groups", `{"leds":["1","2","3"]}`)
	env.pub.fail["leds/2/set_state"] = true

	rec := env.do(t, http.MethodPut, "/api/groups/1/state", `{"state":"blink","infinite":true,"delay":2,"count":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Intent  map[string]any   `json:"intent"`
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Intent["state"] != "blinking" {
		t.Errorf("intent = %v", resp.Intent)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("results = %v", resp.Results)
	}
	if resp.Results[1]["error"] == nil {
		t.Errorf("member 2 result = %v, want error", resp.Results[1])
	}
	if _, failed := resp.Results[2]["error"]; failed {
		t.Errorf("member 3 result = %v, want success after member 2 failed", resp.Results[2])
	}

	for _, id := range []string{"1", "2", "3"} {
		rec := env.do(t, http.MethodGet, "/api/leds/"+id, "")
		if got := decodeMap(t, rec); got["state"] != "blinking" {
			t.Errorf("led %s = %v, want blinking", id, got)
		}
	}
}

func TestControlGroup_Missing(t *testing.T) {
	env := newTestEnv(t, nil)
	assertError(t, env.do(t, http.MethodPut, "/api/groups/3/state", `{"state":"on"}`), http.StatusNotFound, ErrCodeNotFound)
}
