package records

import (
	"context"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/submission"
	"github.com/pkg/errors"
)

//Create writes the draft as a new record with status New
func (c *Client) Create(ctx context.Context, draft *submission.Draft) (string, error) {
	rec, err := c.CreateRecord(ctx, c.cfg.Table, c.draftFields(draft))
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

//Get returns the submission record
func (c *Client) Get(ctx context.Context, id string) (*submission.Record, error) {
	rec, err := c.GetRecord(ctx, c.cfg.Table, id)
	if err != nil {
		return nil, err
	}
	return c.toSubmission(rec), nil
}

//Update writes the changed fields only
func (c *Client) Update(ctx context.Context, id string, upd submission.RecordUpdate) error {
	f := map[string]interface{}{}
	if upd.Content != nil {
		f[c.schema.Content] = *upd.Content
	}
	if upd.TranscriptionStatus != submission.TranscriptionNone {
		f[c.schema.TranscriptionStatus] = string(upd.TranscriptionStatus)
	}
	if len(f) == 0 {
		return errors.New("Nothing to update")
	}
	_, err := c.PatchRecord(ctx, c.cfg.Table, id, f)
	return err
}

func (c *Client) draftFields(d *submission.Draft) map[string]interface{} {
	s := c.schema
	f := map[string]interface{}{
		s.Content:  d.Content,
		s.Tenant:   d.Tenant,
		s.Type:     d.Type,
		s.Category: d.Category,
		s.Priority: d.Priority,
		s.Status:   submission.StatusNew,
	}
	if d.TranscriptionStatus != submission.TranscriptionNone {
		f[s.TranscriptionStatus] = string(d.TranscriptionStatus)
	}
	if s.Title != "" && d.Title != "" {
		f[s.Title] = d.Title
	}
	if s.DeviceType != "" {
		f[s.DeviceType] = string(d.DeviceType)
	}
	if s.VoiceMemo != "" {
		var files []map[string]string
		for _, a := range d.Attachments {
			if a.URL != "" {
				files = append(files, map[string]string{"url": a.URL, "filename": a.Name})
			}
		}
		if len(files) > 0 {
			f[s.VoiceMemo] = files
		}
	}
	return f
}

func (c *Client) toSubmission(r *Record) *submission.Record {
	s := c.schema
	res := &submission.Record{
		ID:                  r.ID,
		Tenant:              str(r.Fields[s.Tenant]),
		Content:             str(r.Fields[s.Content]),
		Category:            str(r.Fields[s.Category]),
		Type:                str(r.Fields[s.Type]),
		Priority:            str(r.Fields[s.Priority]),
		Status:              str(r.Fields[s.Status]),
		TranscriptionStatus: submission.TranscriptionStatus(str(r.Fields[s.TranscriptionStatus])),
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedTime); err == nil {
		res.CreatedAt = t
	}
	return res
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
