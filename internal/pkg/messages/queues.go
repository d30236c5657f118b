package messages

const (
	// Transcribe queue
	Transcribe string = "Transcribe"
)
