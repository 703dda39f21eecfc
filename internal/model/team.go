package model

import "time"

type Team struct {
	Identifier string     `json:"identifier"`
	Name       string     `json:"team_name"`
	Leader     *Member    `json:"team_leader"`
	Members    []*Member  `json:"members"`
	College    string     `json:"college"`
	Track      string     `json:"track"`
	Verified   bool       `json:"is_verified"`
	Qualified  bool       `json:"qualified"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

type Member struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email,institutional"`
}

// Registration is the self-service sign-up payload. The leader plus one or two
// members make a team of two or three.
type Registration struct {
	Name    string    `json:"team_name" validate:"required"`
	Leader  *Member   `json:"team_leader" validate:"required"`
	Members []*Member `json:"members" validate:"required,min=1,max=2,dive,required"`
	College string    `json:"college" validate:"required"`
	Track   string    `json:"track"`
}

// ExportRow is one line of the admin CSV export. Field order is the column order.
type ExportRow struct {
	Name       string `csv:"name"`
	Identifier string `csv:"identifier"`
	College    string `csv:"college"`
	Track      string `csv:"track"`
	Verified   bool   `csv:"verified"`
	Qualified  bool   `csv:"qualified"`
}
