package action_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/xraph/runbook/action"
)

func noop(_ context.Context, _ json.RawMessage, _ action.State) (json.RawMessage, error) {
	return nil, nil
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := action.NewRegistry()

	err := reg.Register(&action.Definition{
		Name:        "restart_pod",
		Description: "Delete pod to trigger recreation",
		BlastRadius: "single pod",
		Handler:     noop,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	def, ok := reg.Resolve("restart_pod")
	if !ok {
		t.Fatal("Resolve returned false for registered action")
	}
	if def.Safety != action.SafetySafe {
		t.Errorf("default safety = %q, want %q", def.Safety, action.SafetySafe)
	}

	if _, ok := reg.Resolve("unknown"); ok {
		t.Error("Resolve returned true for unregistered action")
	}
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	reg := action.NewRegistry()

	if err := reg.Register(&action.Definition{Handler: noop}); err == nil {
		t.Error("expected error for definition without a name")
	}
	if err := reg.Register(&action.Definition{Name: "no-handler"}); err == nil {
		t.Error("expected error for definition without a handler")
	}
	// Forbidden actions exist only to be cataloged; they need no handler.
	if err := reg.Register(&action.Definition{Name: "restart_database", Safety: action.SafetyForbidden}); err != nil {
		t.Errorf("forbidden definition without handler rejected: %v", err)
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := action.NewRegistry()
	reg.MustRegister(&action.Definition{Name: "b", Handler: noop})
	reg.MustRegister(&action.Definition{Name: "a", Handler: noop})

	names := reg.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v, want [a b]", names)
	}
}

func TestState_Decode(t *testing.T) {
	st := action.State{"analyze_logs": json.RawMessage(`{"errors":14}`)}

	var out struct {
		Errors int `json:"errors"`
	}
	ok, err := st.Decode("analyze_logs", &out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ok || out.Errors != 14 {
		t.Errorf("Decode = (%v, %+v), want (true, {14})", ok, out)
	}

	ok, err = st.Decode("missing", &out)
	if err != nil || ok {
		t.Errorf("Decode(missing) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestState_CloneIsDeep(t *testing.T) {
	st := action.State{"s": json.RawMessage(`1`)}
	cp := st.Clone()
	cp["s"][0] = '2'
	if string(st["s"]) != "1" {
		t.Error("Clone shares underlying byte slices")
	}
}
