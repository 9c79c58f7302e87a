package identity

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. PatientCode is the human-facing
// identifier (P-2025-0001); ID is the primary key.
type Patient struct {
	ID                    uuid.UUID `json:"id"`
	PatientCode           string    `json:"patientId"`
	FirstName             string    `json:"firstName"`
	LastName              string    `json:"lastName"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone"`
	DateOfBirth           string    `json:"dateOfBirth"`
	Age                   int       `json:"age"`
	Gender                string    `json:"gender"`
	BloodGroup            *string   `json:"bloodGroup,omitempty"`
	Height                *float64  `json:"height,omitempty"`
	Weight                *float64  `json:"weight,omitempty"`
	Address               *string   `json:"address,omitempty"`
	EmergencyContactName  *string   `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone *string   `json:"emergencyContactPhone,omitempty"`
	PasswordHash          string    `json:"-"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// PatientInput is the body of patient registration and directory create.
type PatientInput struct {
	FirstName             string   `json:"firstName"`
	LastName              string   `json:"lastName"`
	Email                 string   `json:"email"`
	Phone                 string   `json:"phone"`
	DateOfBirth           string   `json:"dateOfBirth"`
	Gender                string   `json:"gender"`
	BloodGroup            *string  `json:"bloodGroup"`
	Height                *float64 `json:"height"`
	Weight                *float64 `json:"weight"`
	Address               *string  `json:"address"`
	EmergencyContactName  *string  `json:"emergencyContactName"`
	EmergencyContactPhone *string  `json:"emergencyContactPhone"`
	Password              string   `json:"password"`
}

func (in *PatientInput) missingRequired() bool {
	return in.FirstName == "" || in.LastName == "" || in.Email == "" ||
		in.Phone == "" || in.DateOfBirth == "" || in.Gender == ""
}

func (in *PatientInput) toPatient() *Patient {
	return &Patient{
		FirstName:             in.FirstName,
		LastName:              in.LastName,
		Email:                 in.Email,
		Phone:                 in.Phone,
		DateOfBirth:           in.DateOfBirth,
		Gender:                in.Gender,
		BloodGroup:            blankToNil(in.BloodGroup),
		Height:                in.Height,
		Weight:                in.Weight,
		Address:               blankToNil(in.Address),
		EmergencyContactName:  blankToNil(in.EmergencyContactName),
		EmergencyContactPhone: blankToNil(in.EmergencyContactPhone),
	}
}

// PatientPatch holds a partial patient update. Nil fields keep the stored
// value.
type PatientPatch struct {
	FirstName             *string  `json:"firstName"`
	LastName              *string  `json:"lastName"`
	Email                 *string  `json:"email"`
	Phone                 *string  `json:"phone"`
	DateOfBirth           *string  `json:"dateOfBirth"`
	Gender                *string  `json:"gender"`
	BloodGroup            *string  `json:"bloodGroup"`
	Height                *float64 `json:"height"`
	Weight                *float64 `json:"weight"`
	Address               *string  `json:"address"`
	EmergencyContactName  *string  `json:"emergencyContactName"`
	EmergencyContactPhone *string  `json:"emergencyContactPhone"`
}

// Apply merges the patch onto p. Age is not touched; callers recompute it
// when the date of birth changes.
func (pt *PatientPatch) Apply(p *Patient) {
	setString(&p.FirstName, pt.FirstName)
	setString(&p.LastName, pt.LastName)
	setString(&p.Email, pt.Email)
	setString(&p.Phone, pt.Phone)
	setString(&p.DateOfBirth, pt.DateOfBirth)
	setString(&p.Gender, pt.Gender)
	if pt.BloodGroup != nil {
		p.BloodGroup = pt.BloodGroup
	}
	if pt.Height != nil {
		p.Height = pt.Height
	}
	if pt.Weight != nil {
		p.Weight = pt.Weight
	}
	if pt.Address != nil {
		p.Address = pt.Address
	}
	if pt.EmergencyContactName != nil {
		p.EmergencyContactName = pt.EmergencyContactName
	}
	if pt.EmergencyContactPhone != nil {
		p.EmergencyContactPhone = pt.EmergencyContactPhone
	}
}

// Doctor maps to the doctors table. DepartmentName is filled by reads.
type Doctor struct {
	ID             uuid.UUID  `json:"id"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Specialization string     `json:"specialization"`
	Qualification  string     `json:"qualification"`
	Experience     int        `json:"experience"`
	DepartmentID   *uuid.UUID `json:"departmentId"`
	DepartmentName *string    `json:"departmentName,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// DoctorInput is the body of a doctor create. Experience is a pointer so a
// missing value can be told apart from zero years.
type DoctorInput struct {
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Specialization string     `json:"specialization"`
	Qualification  string     `json:"qualification"`
	Experience     *int       `json:"experience"`
	DepartmentID   *uuid.UUID `json:"departmentId"`
}

func (in *DoctorInput) missingRequired() bool {
	return in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Phone == "" ||
		in.Specialization == "" || in.Qualification == "" || in.Experience == nil
}

func (in *DoctorInput) toDoctor() *Doctor {
	d := &Doctor{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Specialization: in.Specialization,
		Qualification:  in.Qualification,
		DepartmentID:   in.DepartmentID,
	}
	if in.Experience != nil {
		d.Experience = *in.Experience
	}
	return d
}

// DoctorPatch holds a partial doctor update.
type DoctorPatch struct {
	FirstName      *string    `json:"firstName"`
	LastName       *string    `json:"lastName"`
	Email          *string    `json:"email"`
	Phone          *string    `json:"phone"`
	Specialization *string    `json:"specialization"`
	Qualification  *string    `json:"qualification"`
	Experience     *int       `json:"experience"`
	DepartmentID   *uuid.UUID `json:"departmentId"`
}

func (pt *DoctorPatch) Apply(d *Doctor) {
	setString(&d.FirstName, pt.FirstName)
	setString(&d.LastName, pt.LastName)
	setString(&d.Email, pt.Email)
	setString(&d.Phone, pt.Phone)
	setString(&d.Specialization, pt.Specialization)
	setString(&d.Qualification, pt.Qualification)
	if pt.Experience != nil {
		d.Experience = *pt.Experience
	}
	if pt.DepartmentID != nil {
		id := *pt.DepartmentID
		d.DepartmentID = &id
		d.DepartmentName = nil
	}
}

// Admin is the single administrator credential record.
type Admin struct {
	AdminID      string    `json:"adminId"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FormatPatientCode renders a patient display code such as P-2025-0007.
func FormatPatientCode(year, seq int) string {
	return fmt.Sprintf("P-%d-%04d", year, seq)
}

// PatientCodePrefix is the LIKE prefix matching every code issued in year.
func PatientCodePrefix(year int) string {
	return fmt.Sprintf("P-%d-", year)
}

const maxAge = 150

// ParseDateOfBirth parses a YYYY-MM-DD date.
func ParseDateOfBirth(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// AgeOn returns the age in whole years of someone born on dob, measured on
// the calendar day of now: floor(elapsed days / 365.25).
func AgeOn(dob, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	born := time.Date(dob.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
	days := today.Sub(born).Hours() / 24
	return int(math.Floor(days / 365.25))
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
