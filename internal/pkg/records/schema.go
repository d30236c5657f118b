package records

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

//Schema maps record attributes to the datastore field names. Empty optional name means the field is not written
type Schema struct {
	Content             string `yaml:"content"`
	Tenant              string `yaml:"tenant"`
	Type                string `yaml:"type"`
	Category            string `yaml:"category"`
	Priority            string `yaml:"priority"`
	Status              string `yaml:"status"`
	TranscriptionStatus string `yaml:"transcriptionStatus"`
	// optional
	Title      string `yaml:"title"`
	DeviceType string `yaml:"deviceType"`
	VoiceMemo  string `yaml:"voiceMemo"`

	Client   ClientFields   `yaml:"client"`
	Schedule ScheduleFields `yaml:"schedule"`
}

//ClientFields of the clients table
type ClientFields struct {
	Subdomain       string `yaml:"subdomain"`
	Name            string `yaml:"name"`
	Services        string `yaml:"services"`
	Status          string `yaml:"status"`
	ShootFrequency  string `yaml:"shootFrequency"`
	NeedsScheduling string `yaml:"needsScheduling"`
	Notes           string `yaml:"notes"`
}

//ScheduleFields of the schedule table
type ScheduleFields struct {
	Date      string `yaml:"date"`
	Status    string `yaml:"status"`
	ClientRef string `yaml:"clientRef"`
}

//DefaultSchema returns the field names of the portal tables
func DefaultSchema() *Schema {
	return &Schema{
		Content:             "Content",
		Tenant:              "Client Portal Subdomain",
		Type:                "Type",
		Category:            "Topic",
		Priority:            "Priority",
		Status:              "Status",
		TranscriptionStatus: "Transcription Status",
		Client: ClientFields{
			Subdomain:       "Client Portal Subdomain",
			Name:            "Client Name",
			Services:        "Services",
			Status:          "Status",
			ShootFrequency:  "Shoot Frequency",
			NeedsScheduling: "ActionNeeded: Schedule Shoot?",
			Notes:           "Notes",
		},
		Schedule: ScheduleFields{
			Date:      "Shoot Start",
			Status:    "Status",
			ClientRef: "Client Link",
		},
	}
}

//LoadSchema reads the yaml file over the default schema, empty path returns the default one
func LoadSchema(path string) (*Schema, error) {
	res := DefaultSchema()
	if path == "" {
		return res, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read %s", path)
	}
	if err := ParseSchema(data, res); err != nil {
		return nil, errors.Wrapf(err, "Can't parse %s", path)
	}
	return res, nil
}

//ParseSchema decodes yaml into s, the fields not present in data stay unchanged
func ParseSchema(data []byte, s *Schema) error {
	if err := yaml.Unmarshal(data, s); err != nil {
		return err
	}
	return s.Validate()
}

//Validate checks that the required field names are set
func (s *Schema) Validate() error {
	req := map[string]string{"content": s.Content, "tenant": s.Tenant, "type": s.Type, "category": s.Category,
		"priority": s.Priority, "status": s.Status, "transcriptionStatus": s.TranscriptionStatus,
		"client.subdomain": s.Client.Subdomain, "schedule.date": s.Schedule.Date,
		"schedule.status": s.Schedule.Status, "schedule.clientRef": s.Schedule.ClientRef}
	for k, v := range req {
		if v == "" {
			return errors.Errorf("No field name for %s", k)
		}
	}
	return nil
}
