package submission

import (
	"fmt"
	"regexp"
	"strings"
)

// The voice memo placeholder is the only link between the submitted record and the transcription job:
// the writer puts `🎤 Voice memo: <name> (<size>KB)` into the content, the worker replaces every such
// line with `🎤 Voice memo transcription: "<text>"`. The replacement must never match the pattern again.
const (
	voiceMemoPrefix    = "🎤 Voice memo: "
	voiceFailedPrefix  = "🎤 Voice memo upload failed: "
	transcriptPrefix   = "🎤 Voice memo transcription: "
	attachmentPrefix   = "📎 Attachment: "
	attachFailedPrefix = "📎 Attachment upload failed: "
)

var placeholderRegexp = regexp.MustCompile(regexp.QuoteMeta(voiceMemoPrefix) + `[^\n]+`)

//Placeholder returns the voice memo marker for the attachment
func Placeholder(a *AttachmentMeta) string {
	return voiceMemoPrefix + describe(a)
}

//UploadFailedNote returns the annotation for the attachment that could not be stored
func UploadFailedNote(a *AttachmentMeta) string {
	if a.IsAudio() {
		return voiceFailedPrefix + describe(a)
	}
	return attachFailedPrefix + describe(a)
}

//AttachmentNote returns the line for stored non audio attachment
func AttachmentNote(a *AttachmentMeta) string {
	return attachmentPrefix + describe(a) + " " + a.URL
}

//TranscriptMarker returns the text that replaces the placeholder
func TranscriptMarker(transcript string) string {
	t := foldLines(strings.TrimSpace(transcript))
	t = strings.ReplaceAll(t, voiceMemoPrefix, strings.TrimSuffix(voiceMemoPrefix, ": ")+" - ")
	return transcriptPrefix + `"` + t + `"`
}

//HasPlaceholder checks if content still waits for a transcript
func HasPlaceholder(content string) bool {
	return placeholderRegexp.MatchString(content)
}

//MergeTranscript replaces all voice memo placeholders with the transcript marker
func MergeTranscript(content, transcript string) string {
	return placeholderRegexp.ReplaceAllLiteralString(content, TranscriptMarker(transcript))
}

//AppendLine adds the line to the content separated by the empty line
func AppendLine(content, line string) string {
	if content == "" {
		return line
	}
	return content + "\n\n" + line
}

func describe(a *AttachmentMeta) string {
	return fmt.Sprintf("%s (%.1fKB)", displayName(a.Name), float64(a.SizeBytes)/1024)
}

func displayName(n string) string {
	n = foldLines(strings.TrimSpace(n))
	if n == "" {
		return "voice-message"
	}
	return n
}

func foldLines(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\r", " ")), " ")
}
