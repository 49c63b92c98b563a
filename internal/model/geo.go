package model

// Country is the top level of the address hierarchy.
type Country struct {
	ID           int     `json:"id" db:"id"`
	Name         string  `json:"name" db:"name" validate:"required,max=100"`
	States       []State `json:"states,omitempty"`
	StatesNumber int     `json:"statesNumber"`
}

// State belongs to a country.
type State struct {
	ID           int      `json:"id" db:"id"`
	Name         string   `json:"name" db:"name" validate:"required,max=100"`
	CountryID    int      `json:"countryId" db:"country_id" validate:"required,gt=0"`
	Country      *Country `json:"country,omitempty"`
	Cities       []City   `json:"cities,omitempty"`
	CitiesNumber int      `json:"citiesNumber"`
}

// City belongs to a state.
type City struct {
	ID      int    `json:"id" db:"id"`
	Name    string `json:"name" db:"name" validate:"required,max=100"`
	StateID int    `json:"stateId" db:"state_id" validate:"required,gt=0"`
	State   *State `json:"state,omitempty"`
}

// Category groups products.
type Category struct {
	ID                      int    `json:"id" db:"id"`
	Name                    string `json:"name" db:"name" validate:"required,max=100"`
	ProductCategoriesNumber int    `json:"productCategoriesNumber"`
}
