// Package content serves the static copy of the public pages and the
// dashboard fixtures that have no backend endpoint.
package content

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/afresh/afresh-web/internal/model"
)

//go:embed content.yml
var defaultContent []byte

type Company struct {
	Name       string   `yaml:"name"`
	LongName   string   `yaml:"longName"`
	Blurb      string   `yaml:"blurb"`
	Phone      string   `yaml:"phone"`
	PhoneHours string   `yaml:"phoneHours"`
	Emails     []string `yaml:"emails"`
	Address    []string `yaml:"address"`
	Hours      []string `yaml:"hours"`
	QuickLinks []string `yaml:"quickLinks"`
}

type Work struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
	Image       string `yaml:"image"`
}

type CEO struct {
	Name    string `yaml:"name"`
	Image   string `yaml:"image"`
	Message string `yaml:"message"`
}

// About holds the About Us copy. Text fields are markdown.
type About struct {
	Intro   string `yaml:"intro"`
	Story   string `yaml:"story"`
	Mission string `yaml:"mission"`
	Vision  string `yaml:"vision"`
	CEO     CEO    `yaml:"ceo"`
	Works   []Work `yaml:"works"`
}

type Metric struct {
	Title string `yaml:"title"`
	Value string `yaml:"value"`
	Badge string `yaml:"badge"`
	Color string `yaml:"color"`
	Icon  string `yaml:"icon"`
}

type RecentBooking struct {
	Name    string              `yaml:"name"`
	Service string              `yaml:"service"`
	Status  model.BookingStatus `yaml:"status"`
}

type RecentContact struct {
	Name   string `yaml:"name"`
	Reason string `yaml:"reason"`
	Date   string `yaml:"date"`
}

type Overview struct {
	Metrics        []Metric        `yaml:"metrics"`
	RecentBookings []RecentBooking `yaml:"recentBookings"`
	RecentContacts []RecentContact `yaml:"recentContacts"`
}

type Profile struct {
	FullName string `yaml:"fullName" form:"fullName"`
	Email    string `yaml:"email" form:"-"`
	Phone    string `yaml:"phone" form:"phone"`
	Role     string `yaml:"role" form:"-"`
}

type CompanySettings struct {
	CompanyName string `yaml:"companyName" form:"companyName" binding:"required"`
	Industry    string `yaml:"industry" form:"industry"`
	Email       string `yaml:"email" form:"email" binding:"omitempty,email"`
	Phone       string `yaml:"phone" form:"phone"`
	Address     string `yaml:"address" form:"address"`
	About       string `yaml:"about" form:"about"`
}

type Notifications struct {
	EmailNewBookings        bool `yaml:"emailNewBookings" form:"emailNewBookings"`
	EmailContactMessages    bool `yaml:"emailContactMessages" form:"emailContactMessages"`
	EmailAcademyEnrollments bool `yaml:"emailAcademyEnrollments" form:"emailAcademyEnrollments"`
	PushNotifications       bool `yaml:"pushNotifications" form:"pushNotifications"`
	WeeklyReports           bool `yaml:"weeklyReports" form:"weeklyReports"`
}

type Settings struct {
	Profile       Profile         `yaml:"profile"`
	Company       CompanySettings `yaml:"company"`
	Notifications Notifications   `yaml:"notifications"`
	Sessions      []string        `yaml:"sessions"`
}

type Content struct {
	Company  Company                   `yaml:"company"`
	About    About                     `yaml:"about"`
	Team     []model.TeamMember        `yaml:"team"`
	Overview Overview                  `yaml:"overview"`
	Contacts []model.ContactSubmission `yaml:"contacts"`
	Settings Settings                  `yaml:"settings"`
}

// Load reads content from path, or the built in copy when path is empty.
func Load(path string) (*Content, error) {
	data := defaultContent
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read content file: %w", err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	return &c, nil
}
