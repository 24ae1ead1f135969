package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestBindingHandler(t *testing.T) {
	s := newTestStore(t)
	handler := NewBindingHandler(s)
	createSign(t, s, "sign-a", "A")
	createSign(t, s, "sign-b", "B")

	rec := do(t, handler, http.MethodPost, "/api/bindings", createBindingRequest{
		SignID:     "sign-a",
		PluginName: "keyboard",
		ActionName: "type",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST expected %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var created bindingResponse
	decode(t, rec, &created)
	if created.ID == "" || !created.Enabled || string(created.Config) != "{}" {
		t.Errorf("unexpected binding %+v", created)
	}

	b, err := s.Bindings().GetBySignLabel("A")
	if err != nil || b == nil || b.ID != created.ID {
		t.Fatalf("binding not resolvable by label: %+v, %v", b, err)
	}

	t.Run("list", func(t *testing.T) {
		rec := do(t, handler, http.MethodGet, "/api/bindings", nil)
		var list listBindingsResponse
		decode(t, rec, &list)
		if len(list.Bindings) != 1 {
			t.Errorf("expected 1 binding, got %d", len(list.Bindings))
		}
	})

	t.Run("update", func(t *testing.T) {
		disabled := false
		rec := do(t, handler, http.MethodPut, "/api/bindings/"+created.ID, updateBindingRequest{
			SignID:  "sign-b",
			Config:  json.RawMessage(`{"suffix":"!"}`),
			Enabled: &disabled,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("PUT expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}

		var updated bindingResponse
		decode(t, rec, &updated)
		if updated.SignID != "sign-b" || updated.Enabled || string(updated.Config) != `{"suffix":"!"}` {
			t.Errorf("unexpected binding %+v", updated)
		}

		if b, _ := s.Bindings().GetBySignLabel("B"); b != nil {
			t.Error("disabled binding should not resolve")
		}
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			req  createBindingRequest
			want int
		}{
			{"missing sign", createBindingRequest{PluginName: "keyboard", ActionName: "type"}, http.StatusBadRequest},
			{"missing plugin", createBindingRequest{SignID: "sign-a", ActionName: "type"}, http.StatusBadRequest},
			{"missing action", createBindingRequest{SignID: "sign-a", PluginName: "keyboard"}, http.StatusBadRequest},
			{"unknown sign", createBindingRequest{SignID: "nope", PluginName: "keyboard", ActionName: "type"}, http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if rec := do(t, handler, http.MethodPost, "/api/bindings", tt.req); rec.Code != tt.want {
					t.Errorf("expected %d, got %d", tt.want, rec.Code)
				}
			})
		}
	})

	t.Run("delete", func(t *testing.T) {
		if rec := do(t, handler, http.MethodDelete, "/api/bindings/"+created.ID, nil); rec.Code != http.StatusNoContent {
			t.Fatalf("DELETE expected %d, got %d", http.StatusNoContent, rec.Code)
		}
		if rec := do(t, handler, http.MethodGet, "/api/bindings/"+created.ID, nil); rec.Code != http.StatusNotFound {
			t.Errorf("GET after delete expected %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}
