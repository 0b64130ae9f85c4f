package model

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Client struct {
	ID        string
	Name      string
	Email     string
	DNI       string
	Phone     *string
	BirthDate Date
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Age is the number of whole years between the birth date and today.
func (c *Client) Age(today Date) int {
	age := today.Year - c.BirthDate.Year
	if today.Month < c.BirthDate.Month || (today.Month == c.BirthDate.Month && today.Day < c.BirthDate.Day) {
		age--
	}
	return age
}

type ClientPatch struct {
	Name      Field[string]  `json:"name"`
	Email     Field[string]  `json:"email"`
	DNI       Field[string]  `json:"dni"`
	Phone     Field[*string] `json:"phone"`
	BirthDate Field[Date]    `json:"birth_date"`
	Enabled   Field[bool]    `json:"enabled"`
}

func (p ClientPatch) Apply(c *Client) {
	c.Name = p.Name.Or(c.Name)
	c.Email = p.Email.Or(c.Email)
	c.DNI = p.DNI.Or(c.DNI)
	c.Phone = p.Phone.Or(c.Phone)
	c.BirthDate = p.BirthDate.Or(c.BirthDate)
	c.Enabled = p.Enabled.Or(c.Enabled)
}

type Appointment struct {
	ID        string
	Date      Date
	Time      Clock
	Status    string
	ClientID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AppointmentPatch struct {
	Date     Field[Date]   `json:"date"`
	Time     Field[Clock]  `json:"time"`
	Status   Field[string] `json:"status"`
	ClientID Field[string] `json:"client_id"`
}

func (p AppointmentPatch) Apply(a *Appointment) {
	a.Date = p.Date.Or(a.Date)
	a.Time = p.Time.Or(a.Time)
	a.Status = p.Status.Or(a.Status)
	a.ClientID = p.ClientID.Or(a.ClientID)
}

// AppointmentFilter narrows a listing; zero fields match everything.
type AppointmentFilter struct {
	Date     *Date
	ClientID string
}

func (f AppointmentFilter) Match(a *Appointment) bool {
	if f.Date != nil && a.Date != *f.Date {
		return false
	}
	if f.ClientID != "" && a.ClientID != f.ClientID {
		return false
	}
	return true
}
