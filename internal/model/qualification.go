package model

// OwnerType identifies who is offering the land.
type OwnerType string

const (
	OwnerBroker OwnerType = "corretor"
	OwnerDirect OwnerType = "proprietario"
)

// NextStep is the terminal outcome of a qualification.
type NextStep string

const (
	NextStepScheduleMeeting NextStep = "agendar_reuniao"
	NextStepSendStudy       NextStep = "enviar_estudo"
	NextStepDisqualified    NextStep = "disqualified"
)

// Location is a validated neighborhood/city pair.
type Location struct {
	Bairro string `json:"bairro"`
	Cidade string `json:"cidade"`
}

// QualificationInput is the flat payload the model submits once all five
// data points are collected. Completeness is the protocol's responsibility;
// only schema-level validation is applied here.
type QualificationInput struct {
	LeadQualified bool      `json:"lead_qualified"`
	OwnerType     OwnerType `json:"owner_type"`
	Bairro        string    `json:"bairro"`
	Cidade        string    `json:"cidade"`
	LandSizeM2    float64   `json:"land_size_m2"`
	AskingPrice   float64   `json:"asking_price"`
	LegalStatus   string    `json:"legal_status"`
	HasSeaView    bool      `json:"has_sea_view"`
	IsBeachfront  bool      `json:"is_beachfront"`
	NextStep      NextStep  `json:"next_step"`
}

// QualificationRecord is the terminal structured output of a qualification.
// Created exactly once per successful submitQualification call and never
// mutated afterward; a newer call supersedes it for display purposes only.
type QualificationRecord struct {
	LeadQualified     bool      `json:"lead_qualified"`
	OwnerType         OwnerType `json:"owner_type"`
	Location          Location  `json:"location"`
	LandSizeM2        float64   `json:"land_size_m2"`
	AskingPrice       float64   `json:"asking_price"`
	LegalStatus       string    `json:"legal_status"`
	HasSeaView        bool      `json:"has_sea_view"`
	IsBeachfront      bool      `json:"is_beachfront"`
	NeighborhoodFocus string    `json:"neighborhood_focus,omitempty"`
	NextStep          NextStep  `json:"next_step"`
}
