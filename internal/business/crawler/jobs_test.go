package crawler

import (
	"context"
	"testing"
)

func TestJobManager(t *testing.T) {
	jm := NewJobManager()
	if jm.Busy() {
		t.Fatal("fresh manager should be idle")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jm.Register("RUN_1", cancel)
	if !jm.Busy() {
		t.Fatal("manager should report a registered run")
	}

	if jm.Cancel("RUN_unknown") {
		t.Error("canceling an unknown run should report false")
	}
	if !jm.Cancel("RUN_1") {
		t.Fatal("canceling a live run should report true")
	}
	if ctx.Err() == nil {
		t.Fatal("cancel must propagate to the run context")
	}

	jm.Unregister("RUN_1")
	if jm.Busy() {
		t.Fatal("manager should be idle after unregister")
	}
}
