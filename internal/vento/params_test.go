package vento

import "testing"

func TestRegistryIntegrity(t *testing.T) {
	seenCodes := make(map[byte]bool)
	seenNames := make(map[string]bool)

	for _, p := range Parameters() {
		if seenCodes[p.Code] {
			t.Errorf("duplicate parameter code 0x%02X", p.Code)
		}
		seenCodes[p.Code] = true

		if seenNames[p.Name] {
			t.Errorf("duplicate parameter name %q", p.Name)
		}
		seenNames[p.Name] = true

		width, ok := responseWidths[p.Code]
		if !ok {
			t.Errorf("parameter %s (0x%02X) missing from width table", p.Name, p.Code)
		}
		if width != 1 {
			t.Errorf("exposed parameter %s has width %d, only 1-byte values are exposed", p.Name, width)
		}
	}
}

func TestParameterLookups(t *testing.T) {
	for _, p := range Parameters() {
		if got := ParameterByCode(p.Code); got != p {
			t.Errorf("ParameterByCode(0x%02X) = %v, want %v", p.Code, got, p)
		}
		if got := ParameterByName(p.Name); got != p {
			t.Errorf("ParameterByName(%q) = %v, want %v", p.Name, got, p)
		}
	}

	if got := ParameterByCode(0x7F); got != nil {
		t.Errorf("ParameterByCode(0x7F) = %v, want nil", got)
	}
	if got := ParameterByName("no-such-parameter"); got != nil {
		t.Errorf("ParameterByName(no-such-parameter) = %v, want nil", got)
	}
}

func TestValidValue(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value int
		want  bool
	}{
		{"bool accepts 0", "state", 0, true},
		{"bool accepts 1", "state", 1, true},
		{"bool rejects 2", "state", 2, false},
		{"bool rejects negative", "boost-mode", -1, false},
		{"speed accepts 1", "fan-speed", 1, true},
		{"speed accepts 3", "fan-speed", 3, true},
		{"speed rejects 0", "fan-speed", 0, false},
		{"speed rejects 4", "fan-speed", 4, false},
		{"airflow accepts 0", "airflow", 0, true},
		{"airflow accepts 2", "airflow", 2, true},
		{"airflow rejects 3", "airflow", 3, false},
		{"threshold accepts lower bound", "humidity-threshold", 40, true},
		{"threshold accepts upper bound", "humidity-threshold", 80, true},
		{"threshold rejects below range", "humidity-threshold", 39, false},
		{"threshold rejects above range", "humidity-threshold", 81, false},
		{"humidity accepts mid-range", "humidity", 55, true},
		{"humidity rejects over 100", "humidity", 101, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParameterByName(tt.param)
			if p == nil {
				t.Fatalf("parameter %q not registered", tt.param)
			}
			if got := p.ValidValue(tt.value); got != tt.want {
				t.Errorf("ValidValue(%d) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestWritability(t *testing.T) {
	writable := map[string]WriteMode{
		"state":              WriteToggle,
		"fan-speed":          WriteDirect,
		"airflow":            WriteDirect,
		"humidity-threshold": WriteDirect,
	}

	for _, p := range Parameters() {
		mode, shouldWrite := writable[p.Name]
		if shouldWrite {
			if p.Mode != mode {
				t.Errorf("%s: mode = %v, want %v", p.Name, p.Mode, mode)
			}
			continue
		}
		if p.Writable() {
			t.Errorf("%s: expected read-only", p.Name)
		}
	}
}
