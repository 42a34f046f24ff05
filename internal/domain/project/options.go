package project

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name        string
	Description string
	Status      Status
	Priority    Priority
	Location    string
	Trips       []TripInput
}

// UpdateRequest patches a project. Nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string
	Description *string
	Status      *Status
	Priority    *Priority
	Location    *string
}

// TripInput defines the fields of a new or replaced trip. An empty ID
// means a new trip; a set ID must name a current trip of the project.
// Empty TripNumber and Status take their defaults.
type TripInput struct {
	ID              string     `json:"id,omitempty"`
	TripNumber      string     `json:"trip_number,omitempty"`
	Destination     string     `json:"destination"`
	Pieces          int        `json:"pieces"`
	PieceName       string     `json:"piece_name,omitempty"`
	Status          TripStatus `json:"status,omitempty"`
	DepartureDate   string     `json:"departure_date,omitempty"`
	ExpectedArrival string     `json:"expected_arrival,omitempty"`
	Driver          string     `json:"driver,omitempty"`
	Truck           string     `json:"truck,omitempty"`
	Trailer         string     `json:"trailer,omitempty"`
}

// TripPatch updates a trip. Nil fields are left unchanged.
type TripPatch struct {
	TripNumber      *string     `json:"trip_number,omitempty"`
	Destination     *string     `json:"destination,omitempty"`
	Pieces          *int        `json:"pieces,omitempty"`
	PieceName       *string     `json:"piece_name,omitempty"`
	Status          *TripStatus `json:"status,omitempty"`
	DepartureDate   *string     `json:"departure_date,omitempty"`
	ExpectedArrival *string     `json:"expected_arrival,omitempty"`
	Driver          *string     `json:"driver,omitempty"`
	Truck           *string     `json:"truck,omitempty"`
	Trailer         *string     `json:"trailer,omitempty"`
}
