package prop

import (
	"errors"
	"testing"
)

func TestParseResolution(t *testing.T) {
	testCases := map[string]struct {
		in       string
		expected Resolution
		valid    bool
	}{
		"HD1080":     {"HD1080", HD1080, true},
		"Lowercase":  {"hd2k", HD2K, true},
		"Blanks":     {" VGA ", VGA, true},
		"SVGA":       {"SVGA", SVGA, true},
		"HD1200":     {"HD1200", HD1200, true},
		"Empty":      {"", HD720, false},
		"Unknown":    {"4K", HD720, false},
		"Substring":  {"resolution", HD720, false},
		"Superset":   {"HD1080p", HD720, false},
		"HD720Exact": {"HD720", HD720, true},
	}

	for name, c := range testCases {
		c := c
		t.Run(name, func(t *testing.T) {
			r, ok := ParseResolution(c.in)
			if r != c.expected || ok != c.valid {
				t.Errorf("ParseResolution(%q): expected %s %v, got %s %v", c.in, c.expected, c.valid, r, ok)
			}
		})
	}
}

func TestResolutionSize(t *testing.T) {
	w, h := HD1080.Size()
	if w != 1920 || h != 1080 {
		t.Errorf("Expected 1920x1080, got %dx%d", w, h)
	}
	w, h = Resolution("bogus").Size()
	if w != 1280 || h != 720 {
		t.Errorf("Expected the HD720 fallback, got %dx%d", w, h)
	}
	if fps := VGA.FrameRate(); fps != 60 {
		t.Errorf("Expected 60 fps, got %v", fps)
	}
}

func TestParseStreamAddress(t *testing.T) {
	testCases := map[string]struct {
		in   string
		host string
		port int
		ok   bool
	}{
		"WithPort":    {"192.168.1.20:30002", "192.168.1.20", 30002, true},
		"DefaultPort": {"10.0.0.1", "10.0.0.1", DefaultStreamPort, true},
		"Hostname":    {"camera.local", "", 0, false},
		"ThreeParts":  {"10.0.1:3000", "", 0, false},
		"EmptyPort":   {"10.0.0.1:", "", 0, false},
		"BadPort":     {"10.0.0.1:70000", "", 0, false},
		"Letters":     {"10.0.0.a", "", 0, false},
		"Octet":       {"10.0.0.256", "", 0, false},
		"Empty":       {"", "", 0, false},
	}

	for name, c := range testCases {
		c := c
		t.Run(name, func(t *testing.T) {
			host, port, err := ParseStreamAddress(c.in)
			if !c.ok {
				if err == nil {
					t.Errorf("Expected %q to be rejected", c.in)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if host != c.host || port != c.port {
				t.Errorf("Expected %s:%d, got %s:%d", c.host, c.port, host, port)
			}
		})
	}
}

func TestNewInit(t *testing.T) {
	t.Run("Conflict", func(t *testing.T) {
		_, err := NewInit("session.svo2", "10.0.0.1:30000", "")
		if !errors.Is(err, ErrConflictingInputs) {
			t.Errorf("Expected ErrConflictingInputs, got %v", err)
		}
	})

	t.Run("Live", func(t *testing.T) {
		p, err := NewInit("", "", "")
		if err != nil {
			t.Fatal(err)
		}
		if p.Input != InputLive || p.Resolution != HD720 {
			t.Errorf("Expected live HD720, got %s %s", p.Input, p.Resolution)
		}
		if p.DepthUnit != UnitMeter || p.CoordinateSystem != RightHandedYUp {
			t.Errorf("Unexpected units %s %s", p.DepthUnit, p.CoordinateSystem)
		}
	})

	t.Run("Recording", func(t *testing.T) {
		p, err := NewInit("session.pvrec", "", "HD1080")
		if err != nil {
			t.Fatal(err)
		}
		if p.Input != InputRecording || p.RecordingPath != "session.pvrec" || p.Resolution != HD1080 {
			t.Errorf("Unexpected init %+v", p)
		}
	})

	t.Run("Stream", func(t *testing.T) {
		p, err := NewInit("", "192.168.0.3", "")
		if err != nil {
			t.Fatal(err)
		}
		if p.Input != InputStream || p.StreamHost != "192.168.0.3" || p.StreamPort != DefaultStreamPort {
			t.Errorf("Unexpected init %+v", p)
		}
	})

	t.Run("InvalidAddressFallsBack", func(t *testing.T) {
		p, err := NewInit("", "not-an-ip", "")
		if err != nil {
			t.Fatal(err)
		}
		if p.Input != InputLive {
			t.Errorf("Expected live input, got %s", p.Input)
		}
	})
}

func TestNominalCalibration(t *testing.T) {
	c := NominalCalibration(VGA)
	expected := Calibration{
		FocalLeftX:     672,
		FocalLeftY:     672,
		PrincipalLeftX: 336,
		PrincipalLeftY: 188,
		Baseline:       0.12,
	}
	if c != expected {
		t.Errorf("Expected %v, got %v", expected, c)
	}
}
