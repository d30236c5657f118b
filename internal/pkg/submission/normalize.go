package submission

import (
	"strings"
	"unicode/utf8"

	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
)

//TitleLength is the max number of runes taken from the content into the title
const TitleLength = 60

const ellipsis = "..."

//category groups are checked in order, the first match wins
var categoryGroups = []struct {
	name     string
	keywords []string
}{
	{name: "Content", keywords: []string{"content", "post", "social", "shoot", "photo", "video"}},
	{name: "Strategy", keywords: []string{"strategy", "plan", "campaign"}},
	{name: "Business Update", keywords: []string{"update", "business", "news"}},
}

//CategoryGeneral is assigned when no keyword group matches
const CategoryGeneral = "General"

//Normalize validates and classifies the input. It does no I/O
func Normalize(in *Input) (*Draft, error) {
	if in == nil {
		return nil, apperr.Validation("empty content")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" && len(in.Attachments) == 0 {
		return nil, apperr.Validation("empty content")
	}
	res := &Draft{Content: content,
		Tenant:      strings.ToLower(strings.TrimSpace(in.Tenant)),
		Title:       Title(content),
		Category:    Classify(content),
		Type:        recordType(in.IsRequest),
		Priority:    priority(in.IsRequest, in.IsUrgent),
		DeviceType:  ParseDeviceType(in.DeviceType),
		IsRequest:   in.IsRequest,
		IsUrgent:    in.IsUrgent,
		Attachments: in.Attachments,
	}
	if res.Tenant == "" {
		return nil, apperr.Validation("tenant is required")
	}
	return res, nil
}

//Classify returns the category of the content
func Classify(content string) string {
	lc := strings.ToLower(content)
	for _, g := range categoryGroups {
		for _, k := range g.keywords {
			if strings.Contains(lc, k) {
				return g.name
			}
		}
	}
	return CategoryGeneral
}

//Title returns first TitleLength runes of the content with the ellipsis if truncated
func Title(content string) string {
	if utf8.RuneCountInString(content) <= TitleLength {
		return content
	}
	r := []rune(content)
	return string(r[:TitleLength]) + ellipsis
}

func recordType(isRequest bool) string {
	if isRequest {
		return TypeRequest
	}
	return TypeInsights
}

func priority(isRequest, isUrgent bool) string {
	if isRequest && isUrgent {
		return PriorityUrgent
	}
	return PriorityNormal
}
