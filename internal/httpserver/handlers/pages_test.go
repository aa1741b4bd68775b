package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDashboardRendersViewShell(t *testing.T) {
	d := authDeps()
	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodGet, "/", nil), "user-1")

	Dashboard(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`id="add-form"`, `id="bookmarks"`, `"/ws"`, "user-1@example.com"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard body missing %q", want)
		}
	}
}

// The add form must not clear its inputs on submit; they are cleared
// only once a state frame confirms the add, and kept on an add error so
// the user can retry.
func TestDashboardKeepsAddInputsUntilConfirmed(t *testing.T) {
	d := authDeps()
	rec := httptest.NewRecorder()
	Dashboard(d)(rec, authed(httptest.NewRequest(http.MethodGet, "/", nil), "user-1"))

	body := rec.Body.String()

	submitAt := strings.Index(body, "onsubmit")
	if submitAt < 0 {
		t.Fatal("dashboard script has no submit handler")
	}
	if strings.Contains(body[submitAt:], `title.value = ""`) {
		t.Error("submit handler clears inputs before the store confirms")
	}

	if !strings.Contains(body, "pendingAdd = true") {
		t.Error("submit handler does not mark the add as pending")
	}
	if !strings.Contains(body, "if (pendingAdd) {") {
		t.Error("state frame handler does not clear the pending inputs")
	}
	if !strings.Contains(body, `if (msg.op === "add") pendingAdd = false;`) {
		t.Error("add error does not cancel the pending clear, inputs would be lost")
	}
}
