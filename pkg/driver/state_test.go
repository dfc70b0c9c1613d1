package driver

import (
	"errors"
	"testing"
)

var noop = func() error { return nil }

func TestUpdate1(t *testing.T) {
	s := StateClosed
	s.Update(StateOpened, noop)

	if s != StateOpened {
		t.Fatalf("expected %s, got %s", StateOpened, s)
	}

	s.Update(StateClosed, noop)

	if s != StateClosed {
		t.Fatalf("expected %s, got %s", StateClosed, s)
	}

	s.Update(StateOpened, noop)

	if s != StateOpened {
		t.Fatalf("expected %s, got %s", StateOpened, s)
	}
}

func TestUpdate2(t *testing.T) {
	s := StateClosed
	if err := s.Update(StateTracking, noop); err == nil {
		t.Fatal("expected tracking a closed driver to fail")
	}

	s.Update(StateOpened, noop)
	if err := s.Update(StateTracking, noop); err != nil {
		t.Fatal(err)
	}
	if err := s.Update(StateTracking, noop); err == nil {
		t.Fatal("expected enabling tracking twice to fail")
	}
	if err := s.Update(StateOpened, noop); err == nil {
		t.Fatal("expected reopening a running driver to fail")
	}
}

func TestUpdateKeepsStateOnFailure(t *testing.T) {
	s := StateClosed
	errOpen := errors.New("open failed")
	if err := s.Update(StateOpened, func() error { return errOpen }); !errors.Is(err, errOpen) {
		t.Fatalf("expected %v, got %v", errOpen, err)
	}
	if s != StateClosed {
		t.Fatalf("expected %s, got %s", StateClosed, s)
	}
}
