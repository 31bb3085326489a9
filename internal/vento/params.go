package vento

// ValueKind describes how a parameter's raw byte is interpreted.
type ValueKind int

const (
	// KindBool is an on/off flag (0 or 1 on the wire).
	KindBool ValueKind = iota

	// KindInt is an integer constrained to [Min, Max].
	KindInt

	// KindEnum is an integer restricted to an explicit value set.
	KindEnum
)

// WriteMode describes how a parameter accepts writes.
type WriteMode int

const (
	// ReadOnly parameters are reported by the unit but never written.
	ReadOnly WriteMode = iota

	// WriteDirect parameters take the desired value as the write argument.
	WriteDirect

	// WriteToggle parameters ignore the write argument; the unit flips
	// its current state. Only the on/off parameter behaves this way.
	WriteToggle
)

// Parameter is a named, typed control/status point of the unit.
// The registry of parameters is immutable after package init.
type Parameter struct {
	Code byte      // protocol-level parameter code
	Name string    // kebab-case name used in MQTT topics
	Kind ValueKind // value interpretation
	Mode WriteMode // write capability

	Min, Max int   // valid range for KindInt
	Values   []int // valid set for KindEnum
}

// Writable reports whether the parameter accepts writes.
func (p *Parameter) Writable() bool {
	return p.Mode != ReadOnly
}

// ValidValue reports whether v is acceptable for this parameter.
func (p *Parameter) ValidValue(v int) bool {
	switch p.Kind {
	case KindBool:
		return v == 0 || v == 1
	case KindInt:
		return v >= p.Min && v <= p.Max
	case KindEnum:
		for _, allowed := range p.Values {
			if v == allowed {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// parameters is the exhaustive list of exposed control/status points,
// taken from the vendor protocol's parameter table. Codes the unit emits
// but the bridge does not expose (timers, slave search blocks) appear
// only in responseWidths so the decoder can skip them.
var parameters = []Parameter{
	{Code: 0x03, Name: "state", Kind: KindBool, Mode: WriteToggle},
	{Code: 0x04, Name: "fan-speed", Kind: KindEnum, Mode: WriteDirect, Values: []int{1, 2, 3}},
	{Code: 0x05, Name: "manual-speed", Kind: KindInt, Mode: ReadOnly, Min: 0, Max: 255},
	{Code: 0x06, Name: "airflow", Kind: KindEnum, Mode: WriteDirect, Values: []int{0, 1, 2}},
	{Code: 0x08, Name: "humidity", Kind: KindInt, Mode: ReadOnly, Min: 0, Max: 100},
	{Code: 0x09, Name: "operation-mode", Kind: KindInt, Mode: ReadOnly, Min: 0, Max: 255},
	{Code: 0x0B, Name: "humidity-threshold", Kind: KindInt, Mode: WriteDirect, Min: 40, Max: 80},
	{Code: 0x0C, Name: "alarm", Kind: KindBool, Mode: ReadOnly},
	{Code: 0x0D, Name: "relay-sensor", Kind: KindBool, Mode: ReadOnly},
	{Code: 0x12, Name: "filter-alarm", Kind: KindBool, Mode: ReadOnly},
	{Code: 0x13, Name: "humidity-sensor", Kind: KindBool, Mode: ReadOnly},
	{Code: 0x14, Name: "boost-mode", Kind: KindBool, Mode: ReadOnly},
}

// responseWidths maps every parameter code the unit may emit to the
// number of value bytes that follow it. The decoder needs the full table
// to walk a response without losing framing, even for codes it discards.
var responseWidths = map[byte]int{
	0x03: 1, // state
	0x04: 1, // speed
	0x05: 1, // manual speed
	0x06: 1, // air flow direction
	0x08: 1, // humidity level
	0x09: 1, // operation mode
	0x0B: 1, // humidity sensor threshold
	0x0C: 1, // alarm status
	0x0D: 1, // relay sensor status
	0x0E: 3, // party or night mode countdown
	0x0F: 3, // night mode timer
	0x10: 3, // party mode timer
	0x11: 3, // deactivation timer
	0x12: 1, // filter end-of-life timer
	0x13: 1, // humidity sensor status
	0x14: 1, // boost mode
	0x15: 1, // humidity sensor presence
	0x16: 1, // relay sensor presence
	0x17: 1, // 10V sensor presence
	0x19: 1, // 10V sensor threshold
	0x1A: 1, // 10V sensor status
	0x1B: 32, // slave device search
	0x1C: 4, // response slave search
	0x1F: 1, // cloud activation
	0x25: 1, // 10V sensor current status
}

// Lookup maps built once at init.
var (
	parameterByCode map[byte]*Parameter
	parameterByName map[string]*Parameter
)

func init() {
	parameterByCode = make(map[byte]*Parameter, len(parameters))
	parameterByName = make(map[string]*Parameter, len(parameters))

	for i := range parameters {
		p := &parameters[i]
		if _, dup := parameterByCode[p.Code]; dup {
			panic("vento: duplicate parameter code in registry")
		}
		if _, dup := parameterByName[p.Name]; dup {
			panic("vento: duplicate parameter name in registry")
		}
		if _, known := responseWidths[p.Code]; !known {
			panic("vento: registry parameter missing from width table")
		}
		parameterByCode[p.Code] = p
		parameterByName[p.Name] = p
	}
}

// Parameters returns all registered parameters in registry order.
// The returned slice must not be modified.
func Parameters() []*Parameter {
	out := make([]*Parameter, len(parameters))
	for i := range parameters {
		out[i] = &parameters[i]
	}
	return out
}

// ParameterByCode returns the parameter with the given protocol code,
// or nil if the code is not exposed.
func ParameterByCode(code byte) *Parameter {
	return parameterByCode[code]
}

// ParameterByName returns the parameter with the given name, or nil.
func ParameterByName(name string) *Parameter {
	return parameterByName[name]
}
