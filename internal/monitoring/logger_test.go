package monitoring

import (
	"fmt"
	"testing"
)

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	Logf("merge progress: %d/%d", 3, 8)
}

func TestSetLogger_Custom(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var captured string
	SetLogger(func(format string, v ...interface{}) {
		captured = fmt.Sprintf(format, v...)
	})

	Logf("processing %s", "grid_4.dx")

	if captured != "processing grid_4.dx" {
		t.Errorf("captured = %q, want %q", captured, "processing grid_4.dx")
	}
}

func TestSetLogger_Nil(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	SetLogger(nil)

	Logf("should be dropped")

	if called {
		t.Error("nil logger should silence output, not forward it")
	}
}
