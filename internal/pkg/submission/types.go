package submission

import (
	"path/filepath"
	"strings"
	"time"
)

//DeviceType of the submitter
type DeviceType string

const (
	//DeviceMobile value
	DeviceMobile DeviceType = "mobile"
	//DeviceDesktop value
	DeviceDesktop DeviceType = "desktop"
	//DeviceUnknown value
	DeviceUnknown DeviceType = "unknown"
)

//ParseDeviceType maps free form value to the known device type
func ParseDeviceType(s string) DeviceType {
	switch DeviceType(strings.ToLower(strings.TrimSpace(s))) {
	case DeviceMobile:
		return DeviceMobile
	case DeviceDesktop:
		return DeviceDesktop
	}
	return DeviceUnknown
}

//TranscriptionStatus of the stored record
type TranscriptionStatus string

const (
	//TranscriptionNone - nothing to transcribe, the field is not written
	TranscriptionNone TranscriptionStatus = ""
	//TranscriptionPending - job dispatched or about to be
	TranscriptionPending TranscriptionStatus = "Pending"
	//TranscriptionCompleted - transcript merged into content
	TranscriptionCompleted TranscriptionStatus = "Completed"
	//TranscriptionFailed - job gave up before the write back
	TranscriptionFailed TranscriptionStatus = "Failed"
)

const (
	//TypeRequest is the record type for requests
	TypeRequest = "Request"
	//TypeInsights is the record type for plain feedback
	TypeInsights = "Insights"
	//PriorityUrgent value
	PriorityUrgent = "Urgent"
	//PriorityNormal value
	PriorityNormal = "Normal"
	//StatusNew is the status of all created records
	StatusNew = "New"
)

//AttachmentMeta describes the attached file
type AttachmentMeta struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
	MimeType  string `json:"mimeType"`
	URL       string `json:"url,omitempty"`
}

//Attachment is the meta with the file body, the body is dropped after the upload
type Attachment struct {
	AttachmentMeta
	Data []byte
}

var audioExtensions = map[string]bool{".webm": true, ".mp3": true, ".wav": true, ".m4a": true,
	".ogg": true, ".oga": true, ".mp4": true, ".mpeg": true, ".mpga": true, ".flac": true}

//IsAudio checks by mime type or by file extension if attachment is an audio
func (a *AttachmentMeta) IsAudio() bool {
	mt := strings.ToLower(a.MimeType)
	if strings.HasPrefix(mt, "audio/") {
		return true
	}
	if mt != "" && mt != "application/octet-stream" && mt != "video/webm" && mt != "video/mp4" {
		return false
	}
	return audioExtensions[strings.ToLower(filepath.Ext(a.Name))]
}

//Input is raw submission data as received from the caller
type Input struct {
	Content     string
	Tenant      string
	DeviceType  string
	IsRequest   bool
	IsUrgent    bool
	Attachments []*Attachment
}

//Draft is the validated and classified submission, not yet persisted
type Draft struct {
	Content             string
	Tenant              string
	Title               string
	Category            string
	Type                string
	Priority            string
	DeviceType          DeviceType
	IsRequest           bool
	IsUrgent            bool
	Attachments         []*Attachment
	TranscriptionStatus TranscriptionStatus
}

//AudioURL returns the url of the first uploaded audio attachment
func (d *Draft) AudioURL() string {
	for _, a := range d.Attachments {
		if a.URL != "" && a.IsAudio() {
			return a.URL
		}
	}
	return ""
}

//Record is the persisted submission
type Record struct {
	ID                  string
	Tenant              string
	Content             string
	Category            string
	Type                string
	Priority            string
	Status              string
	TranscriptionStatus TranscriptionStatus
	CreatedAt           time.Time
}

//RecordUpdate holds the fields to change, nil Content leaves it untouched
type RecordUpdate struct {
	Content             *string
	TranscriptionStatus TranscriptionStatus
}
