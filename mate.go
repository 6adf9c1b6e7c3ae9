package mateauth

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Mate represents one account, keyed by email. The email never changes after
// registration; everything else is editable from the profile page.
type Mate struct {
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Password      string    `json:"password"` // normalized form produced by a PasswordPolicy
	Birthdate     string    `json:"birthdate"`
	PhoneNumber   string    `json:"phone_number"`
	Address       string    `json:"address"`
	AddressDetail string    `json:"address_detail"`
	Location      string    `json:"location"`
	Federated     bool      `json:"federated"` // account came from a third-party provider
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a copy so session-held records never alias store-held ones.
func (m *Mate) Clone() *Mate {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}

// FullAddress joins the base address and the detail part the way it is stored.
func (m *Mate) FullAddress() string {
	if m.AddressDetail == "" {
		return m.Address
	}
	return m.Address + " " + m.AddressDetail
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether the value looks like an email address.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// RegistrationForm carries the raw signup fields as the register form submits
// them: birthdate, phone and location arrive split across multiple inputs and
// are joined into their stored shape at creation time.
type RegistrationForm struct {
	Email         string
	Name          string
	Password      string // raw; normalized by the policy before storage
	BirthYear     string
	BirthMonth    string
	BirthDay      string
	Phone1        string
	Phone2        string
	Phone3        string
	Address       string
	AddressDetail string
	City          string
	District      string
}

// Normalize applies the pure creation-time transforms and produces the record
// to persist. The password is left raw here; Auth.Register runs it through the
// configured policy.
func (f *RegistrationForm) Normalize() *Mate {
	return &Mate{
		Email:         strings.TrimSpace(f.Email),
		Name:          strings.TrimSpace(f.Name),
		Password:      f.Password,
		Birthdate:     JoinBirthdate(f.BirthYear, f.BirthMonth, f.BirthDay),
		PhoneNumber:   JoinPhoneNumber(f.Phone1, f.Phone2, f.Phone3),
		Address:       strings.TrimSpace(f.Address),
		AddressDetail: strings.TrimSpace(f.AddressDetail),
		Location:      JoinLocation(f.City, f.District),
	}
}

// JoinBirthdate combines the split birthdate inputs into "YYYY-MM-DD",
// zero-padding month and day.
func JoinBirthdate(year, month, day string) string {
	year = strings.TrimSpace(year)
	month = strings.TrimSpace(month)
	day = strings.TrimSpace(day)
	if year == "" || month == "" || day == "" {
		return ""
	}
	if len(month) == 1 {
		month = "0" + month
	}
	if len(day) == 1 {
		day = "0" + day
	}
	return fmt.Sprintf("%s-%s-%s", year, month, day)
}

// JoinPhoneNumber combines the three phone inputs into "010-1234-5678".
func JoinPhoneNumber(p1, p2, p3 string) string {
	p1 = strings.TrimSpace(p1)
	p2 = strings.TrimSpace(p2)
	p3 = strings.TrimSpace(p3)
	if p1 == "" || p2 == "" || p3 == "" {
		return ""
	}
	return strings.Join([]string{p1, p2, p3}, "-")
}

// JoinLocation combines city and district into the stored region value.
func JoinLocation(city, district string) string {
	city = strings.TrimSpace(city)
	district = strings.TrimSpace(district)
	if city == "" {
		return district
	}
	if district == "" {
		return city
	}
	return city + " " + district
}

// SplitAddress breaks a stored full address back into its base and detail
// parts for the edit form (the inverse of what registration joined).
func SplitAddress(full string) (address, detail string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
