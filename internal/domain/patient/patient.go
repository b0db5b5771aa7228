package patient

import (
	"time"

	"github.com/google/uuid"
)

type PatientStatus string

const (
	StatusActive   PatientStatus = "active"
	StatusInactive PatientStatus = "inactive"
)

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	FirstName   string    `gorm:"column:first_name;type:varchar(100);not null" json:"firstName"`
	LastName    string    `gorm:"column:last_name;type:varchar(100);not null" json:"lastName"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;not null" json:"dateOfBirth"`
	Phone       string    `gorm:"column:phone;type:varchar(30)" json:"phone"`

	// Allergies feed the consultation bootstrap summary shown to the doctor.
	Allergies []string `gorm:"column:allergies;type:text[];serializer:json" json:"allergies"`

	Status PatientStatus `gorm:"column:status;type:varchar(20);not null;default:'active';index" json:"status"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

func (p *Patient) IsActive() bool {
	return p.Status == StatusActive
}

// AgeAt returns the patient's age in whole years at the given moment.
func (p *Patient) AgeAt(at time.Time) int {
	years := at.Year() - p.DateOfBirth.Year()
	birthday := time.Date(at.Year(), p.DateOfBirth.Month(), p.DateOfBirth.Day(), 0, 0, 0, 0, at.Location())
	if at.Before(birthday) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// Summary is the slim patient payload the consultation view bootstraps with.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Allergies []string  `json:"allergies"`
}

func (p *Patient) SummaryAt(at time.Time) Summary {
	return Summary{
		ID:        p.ID,
		Name:      p.FullName(),
		Age:       p.AgeAt(at),
		Allergies: p.Allergies,
	}
}
