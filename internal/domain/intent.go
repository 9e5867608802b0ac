package domain

// What happens at a stop.
type StopAction string

const (
	ActionPickup   StopAction = "pickup"
	ActionDelivery StopAction = "delivery"
)

// A time window as second offsets from departure. Start must be
// strictly less than End for the window to be satisfiable.
type TimeWindow struct {
	StartSeconds int
	EndSeconds   int
}

func (w TimeWindow) Valid() bool {
	return w.StartSeconds >= 0 && w.StartSeconds < w.EndSeconds
}

// A single requested pickup or delivery, as extracted from the command.
// ShipmentID pairs a pickup with its delivery; stops without a shipment
// pairing stand alone. Weight is the load picked up or dropped off.
type StopRequest struct {
	Reference  string
	Action     StopAction
	ShipmentID string
	Weight     int
	Window     *TimeWindow
}

// Global constraints extracted alongside the stop list.
// A zero VehicleCapacity means unconstrained.
type Constraints struct {
	VehicleCapacity int
	AvoidHighways   bool
}

// Structured representation of what the caller wants done, produced by
// the intent extractor and owned by the orchestrator for the duration of
// one request. Stop order is the order stated in the command.
type RouteIntent struct {
	Stops       []StopRequest
	Constraints Constraints
}
