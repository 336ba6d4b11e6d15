package pkg

// enum of turn restriction kind
type RestrictionKind uint8

const (
	NO_LEFT_TURN RestrictionKind = iota
	NO_RIGHT_TURN
	NO_STRAIGHT_ON
	NO_U_TURN
	NO_ENTRY
	NO_EXIT
	ONLY_LEFT_TURN
	ONLY_RIGHT_TURN
	ONLY_STRAIGHT_ON
	UNSUPPORTED_RESTRICTION
)

func (k RestrictionKind) String() string {
	switch k {
	case NO_LEFT_TURN:
		return "no_left_turn"
	case NO_RIGHT_TURN:
		return "no_right_turn"
	case NO_STRAIGHT_ON:
		return "no_straight_on"
	case NO_U_TURN:
		return "no_u_turn"
	case NO_ENTRY:
		return "no_entry"
	case NO_EXIT:
		return "no_exit"
	case ONLY_LEFT_TURN:
		return "only_left_turn"
	case ONLY_RIGHT_TURN:
		return "only_right_turn"
	case ONLY_STRAIGHT_ON:
		return "only_straight_on"
	default:
		return "unsupported"
	}
}

// ParseRestrictionKind maps the osm restriction tag value to its kind.
// unknown values map to UNSUPPORTED_RESTRICTION and the relation is discarded.
func ParseRestrictionKind(val string) RestrictionKind {
	switch val {
	case "no_left_turn":
		return NO_LEFT_TURN
	case "no_right_turn":
		return NO_RIGHT_TURN
	case "no_straight_on":
		return NO_STRAIGHT_ON
	case "no_u_turn":
		return NO_U_TURN
	case "no_entry":
		return NO_ENTRY
	case "no_exit":
		return NO_EXIT
	case "only_left_turn":
		return ONLY_LEFT_TURN
	case "only_right_turn":
		return ONLY_RIGHT_TURN
	case "only_straight_on":
		return ONLY_STRAIGHT_ON
	default:
		return UNSUPPORTED_RESTRICTION
	}
}

// enum of vehicle class. one forward + one backward access bit per class
// inside an AccessFlags word.
type VehicleClass uint8

const (
	CAR VehicleClass = iota
	MOTORCYCLE
	BICYCLE
	FOOT
	NUM_VEHICLE_CLASS
)

func (v VehicleClass) String() string {
	switch v {
	case CAR:
		return "motorcar"
	case MOTORCYCLE:
		return "motorcycle"
	case BICYCLE:
		return "bicycle"
	case FOOT:
		return "foot"
	default:
		return "unknown"
	}
}

func ParseVehicleClass(val string) (VehicleClass, bool) {
	switch val {
	case "motorcar", "car":
		return CAR, true
	case "motorcycle":
		return MOTORCYCLE, true
	case "bicycle":
		return BICYCLE, true
	case "foot":
		return FOOT, true
	default:
		return NUM_VEHICLE_CLASS, false
	}
}

// AccessFlags packs per vehicle-class directional access into one word.
// bit 2*c is forward access for class c, bit 2*c+1 is backward access.
type AccessFlags uint32

func forwardBit(c VehicleClass) AccessFlags {
	return 1 << (2 * uint(c))
}

func backwardBit(c VehicleClass) AccessFlags {
	return 1 << (2*uint(c) + 1)
}

// AllAccess returns flags with forward and backward access for every class.
func AllAccess() AccessFlags {
	var f AccessFlags
	for c := VehicleClass(0); c < NUM_VEHICLE_CLASS; c++ {
		f |= forwardBit(c) | backwardBit(c)
	}
	return f
}

func (f AccessFlags) CanForward(c VehicleClass) bool {
	return f&forwardBit(c) != 0
}

func (f AccessFlags) CanBackward(c VehicleClass) bool {
	return f&backwardBit(c) != 0
}

func (f AccessFlags) SetForward(c VehicleClass) AccessFlags {
	return f | forwardBit(c)
}

func (f AccessFlags) SetBackward(c VehicleClass) AccessFlags {
	return f | backwardBit(c)
}

func (f AccessFlags) ClearForward(c VehicleClass) AccessFlags {
	return f &^ forwardBit(c)
}

func (f AccessFlags) ClearBackward(c VehicleClass) AccessFlags {
	return f &^ backwardBit(c)
}

// ClearClass removes both directions for class c.
func (f AccessFlags) ClearClass(c VehicleClass) AccessFlags {
	return f &^ (forwardBit(c) | backwardBit(c))
}

// Classes returns every vehicle class that still has access in either
// direction.
func (f AccessFlags) Classes() []VehicleClass {
	out := make([]VehicleClass, 0, NUM_VEHICLE_CLASS)
	for c := VehicleClass(0); c < NUM_VEHICLE_CLASS; c++ {
		if f.CanForward(c) || f.CanBackward(c) {
			out = append(out, c)
		}
	}
	return out
}

const (
	// MIN_EDGE_DISTANCE_METER is the smallest distance an edge may carry.
	// two tower nodes often end up in nearly identical coordinates; a true
	// zero would collide with intentional barrier edges.
	MIN_EDGE_DISTANCE_METER = 0.001

	// MAX_EDGE_DISTANCE_METER is the largest encodable edge distance.
	MAX_EDGE_DISTANCE_METER = float64(1<<31-2) / 1000.0
)
