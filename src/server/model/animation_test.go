package model

import "testing"

func TestAnimationStartRequiresEvents(t *testing.T) {
	var a AnimationState

	if a.Start(0) {
		t.Error("Start should refuse an empty filtered list")
	}
	if a.Running {
		t.Error("state should remain stopped")
	}
}

func TestAnimationStartOnlyFromStopped(t *testing.T) {
	var a AnimationState

	if !a.Start(5) {
		t.Fatal("Start from stopped should succeed")
	}
	if a.Start(5) {
		t.Error("Start while running should be refused")
	}
}

func TestAnimationTickAdvancesAndCompletes(t *testing.T) {
	var a AnimationState
	const total = 3

	a.Start(total)
	for i := 1; i < total; i++ {
		a.Tick(total)
		if a.Index != i {
			t.Fatalf("after tick %d index = %d", i, a.Index)
		}
		if !a.Running {
			t.Fatalf("stopped early at tick %d", i)
		}
		if v := a.VisibleCount(total); v != i {
			t.Fatalf("visible count = %d, want %d", v, i)
		}
	}

	// Final tick reaches the end and resets to Stopped(0)
	a.Tick(total)
	if a.Running {
		t.Error("animation should stop at the end of the list")
	}
	if a.Index != 0 {
		t.Errorf("index should reset to 0, got %d", a.Index)
	}
	if v := a.VisibleCount(total); v != total {
		t.Errorf("stopped state should show the full list, got %d", v)
	}
}

func TestAnimationIndexNeverExceedsTotal(t *testing.T) {
	var a AnimationState
	const total = 10

	a.Start(total)
	for i := 0; i < total*2; i++ {
		a.Tick(total)
		if a.Index > total {
			t.Fatalf("index %d exceeded total %d", a.Index, total)
		}
		if v := a.VisibleCount(total); v > total {
			t.Fatalf("visible count %d exceeded total %d", v, total)
		}
	}
}

func TestAnimationExplicitStop(t *testing.T) {
	var a AnimationState

	a.Start(5)
	a.Tick(5)
	a.Tick(5)
	a.Stop()

	if a.Running || a.Index != 0 {
		t.Errorf("explicit stop should reset, got %+v", a)
	}
}

func TestAnimationTickWhileStoppedIsNoop(t *testing.T) {
	var a AnimationState

	a.Tick(5)
	if a.Index != 0 || a.Running {
		t.Errorf("tick while stopped should be a no-op, got %+v", a)
	}
}
