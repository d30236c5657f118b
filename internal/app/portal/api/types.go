package api

//Attachment in the JSON submission, Data is base64 encoded
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType,omitempty"`
	Type     string `json:"type,omitempty"`
	Data     string `json:"data"`
}

//SubmitRequest is the JSON submission body
type SubmitRequest struct {
	Content     string       `json:"content,omitempty"`
	TextContent string       `json:"textContent,omitempty"`
	Subdomain   string       `json:"subdomain,omitempty"`
	Tenant      string       `json:"tenant,omitempty"`
	DeviceType  string       `json:"deviceType,omitempty"`
	IsRequest   *bool        `json:"isRequest,omitempty"`
	IsUrgent    bool         `json:"isUrgent,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

//SubmitResponse is returned after the record is created
type SubmitResponse struct {
	Success                bool   `json:"success"`
	Message                string `json:"message"`
	Subdomain              string `json:"subdomain"`
	RecordID               string `json:"recordId"`
	Type                   string `json:"type"`
	Category               string `json:"category"`
	Priority               string `json:"priority"`
	TranscriptionTriggered bool   `json:"transcriptionTriggered"`
}

//TranscribeRequest is the transcription job body
type TranscribeRequest struct {
	RecordID       string `json:"recordId"`
	AttachmentURL  string `json:"attachmentUrl,omitempty"`
	VoiceMemoDLURL string `json:"voiceMemoDLUrl,omitempty"`
}

//TranscribeResponse is returned after the record is updated
type TranscribeResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	RecordID       string `json:"recordId"`
	Transcription  string `json:"transcription"`
	UpdatedContent string `json:"updatedContent"`
}

//Client is the tenant's client info
type Client struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Services           []string    `json:"services"`
	Status             string      `json:"status"`
	Subdomain          string      `json:"subdomain"`
	ShootFrequency     interface{} `json:"shootFrequency"`
	LastShootDate      *string     `json:"lastShootDate"`
	NextScheduledShoot string      `json:"nextScheduledShoot"`
	NeedsScheduling    bool        `json:"needsScheduling"`
	Notes              interface{} `json:"notes"`
}

//ClientInfoResponse is the client with the schedule summary
type ClientInfoResponse struct {
	Success       bool    `json:"success"`
	Client        *Client `json:"client"`
	LastEventDate *string `json:"lastEventDate"`
	NextEventDate *string `json:"nextEventDate"`
}

//ErrorResponse is returned on failure
type ErrorResponse struct {
	Error string `json:"error"`
}
