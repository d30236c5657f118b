package messages

//TranscriptionMessage asks to transcribe the record's voice memo
type TranscriptionMessage struct {
	RecordID      string `json:"recordId"`
	AttachmentURL string `json:"attachmentUrl"`
}

//NewTranscriptionMessage creates the message
func NewTranscriptionMessage(recordID, attachmentURL string) *TranscriptionMessage {
	return &TranscriptionMessage{RecordID: recordID, AttachmentURL: attachmentURL}
}

//Valid checks required fields
func (m *TranscriptionMessage) Valid() bool {
	return m != nil && m.RecordID != "" && m.AttachmentURL != ""
}
