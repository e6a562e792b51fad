package health

import (
	"sync"
	"testing"
)

func TestTracker_StartupNotReady(t *testing.T) {
	tr := NewTracker()

	s := tr.Snapshot()
	if s.Ready {
		t.Error("new tracker should not be ready")
	}
	if s.ModelLoaded || s.ConfigValid {
		t.Error("new tracker should report nothing loaded or validated")
	}
}

func TestTracker_BecomesReady(t *testing.T) {
	tr := NewTracker()
	tr.SetConfigValid(true, "")
	tr.SetModelLoaded(true, "")

	s := tr.Snapshot()
	if !s.Ready {
		t.Error("tracker should be ready after config and model succeed")
	}
	if s.Detail != "" {
		t.Errorf("Detail = %q, want empty", s.Detail)
	}
}

func TestTracker_ModelLoadFailureIsTerminal(t *testing.T) {
	tr := NewTracker()
	tr.SetConfigValid(true, "")
	tr.SetModelLoaded(false, "model files missing")

	s := tr.Snapshot()
	if s.Ready || s.ModelLoaded {
		t.Error("tracker should not be ready after a failed model load")
	}
	if s.Detail != "model files missing" {
		t.Errorf("Detail = %q, want failure detail", s.Detail)
	}

	// A later success must not flip a latched failure back.
	tr.SetModelLoaded(true, "")
	if tr.Snapshot().Ready {
		t.Error("latched NotReady must not transition back to Ready")
	}
}

func TestTracker_ConfigFailureIsTerminal(t *testing.T) {
	tr := NewTracker()
	tr.SetConfigValid(false, "batch_max_texts must be at least 1")
	tr.SetModelLoaded(true, "")

	s := tr.Snapshot()
	if s.Ready {
		t.Error("tracker should not be ready with invalid config")
	}
	if !s.ModelLoaded {
		// SetModelLoaded after the latch is ignored.
		t.Log("model load recorded after latch is ignored")
	}
	if s.ConfigValid {
		t.Error("ConfigValid should stay false")
	}
}

func TestTracker_MarkUnusable(t *testing.T) {
	tr := NewTracker()
	tr.SetConfigValid(true, "")
	tr.SetModelLoaded(true, "")

	if !tr.Snapshot().Ready {
		t.Fatal("precondition: tracker should be ready")
	}

	tr.MarkUnusable("probe encode failed")

	s := tr.Snapshot()
	if s.Ready || s.ModelLoaded {
		t.Error("MarkUnusable should latch NotReady")
	}
	if s.Detail != "probe encode failed" {
		t.Errorf("Detail = %q, want probe failure detail", s.Detail)
	}

	tr.SetModelLoaded(true, "")
	if tr.Snapshot().Ready {
		t.Error("tracker must not self-heal after MarkUnusable")
	}
}

func TestTracker_ConcurrentSnapshots(t *testing.T) {
	tr := NewTracker()
	tr.SetConfigValid(true, "")
	tr.SetModelLoaded(true, "")

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s := tr.Snapshot()
				// Ready implies both fields; a torn read would break this.
				if s.Ready && (!s.ModelLoaded || !s.ConfigValid) {
					t.Error("inconsistent snapshot observed")
					return
				}
			}
		}()
	}
	wg.Wait()
}
