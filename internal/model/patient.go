package model

// Patient is the minimal record the scheduling engine needs; full
// patient management lives in the surrounding CRUD layer.
type Patient struct {
	Base
	Name   string `db:"name" json:"name"`
	Email  string `db:"email" json:"email,omitempty"`
	Phone  string `db:"phone" json:"phone,omitempty"`
	Active bool   `db:"active" json:"active"`
}

// Practitioner is the minimal record the scheduling engine needs.
type Practitioner struct {
	Base
	Name      string `db:"name" json:"name"`
	Specialty string `db:"specialty" json:"specialty,omitempty"`
	Active    bool   `db:"active" json:"active"`
}
