package records

import (
	"context"
	"fmt"
	"strings"

	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/schedule"
	"github.com/pkg/errors"
)

//ClientInfo is the tenant's client record
type ClientInfo struct {
	ID              string
	Name            string
	Services        []string
	Status          string
	Subdomain       string
	ShootFrequency  interface{}
	NeedsScheduling bool
	Notes           interface{}
}

//FindClient returns the first client record with the tenant's subdomain
func (c *Client) FindClient(ctx context.Context, tenant string) (*ClientInfo, error) {
	if c.cfg.ClientsTable == "" {
		return nil, apperr.Configuration("No datastore clients table")
	}
	f := fmt.Sprintf(`{%s} = "%s"`, c.schema.Client.Subdomain, escapeFormula(tenant))
	recs, err := c.List(ctx, c.cfg.ClientsTable, f)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, apperr.NotFound("Client not found for this subdomain")
	}
	return c.toClient(recs[0], tenant), nil
}

//ScheduleEvents returns all schedule table records as events
func (c *Client) ScheduleEvents(ctx context.Context) ([]schedule.Event, error) {
	if c.cfg.ScheduleTable == "" {
		return nil, apperr.Configuration("No datastore schedule table")
	}
	recs, err := c.List(ctx, c.cfg.ScheduleTable, "")
	if err != nil {
		return nil, errors.Wrap(err, "Can't load schedule")
	}
	s := c.schema.Schedule
	res := make([]schedule.Event, 0, len(recs))
	for _, r := range recs {
		res = append(res, schedule.Event{
			ID:         r.ID,
			TenantRefs: schedule.NormalizeRefs(r.Fields[s.ClientRef]),
			Date:       schedule.NormalizeDate(r.Fields[s.Date]),
			Status:     str(r.Fields[s.Status]),
		})
	}
	return res, nil
}

func (c *Client) toClient(r *Record, tenant string) *ClientInfo {
	s := c.schema.Client
	res := &ClientInfo{ID: r.ID,
		Name:           strOr(r.Fields[s.Name], "Unknown Client"),
		Services:       schedule.NormalizeRefs(r.Fields[s.Services]),
		Status:         strOr(r.Fields[s.Status], "Active"),
		Subdomain:      strOr(r.Fields[s.Subdomain], tenant),
		ShootFrequency: r.Fields[s.ShootFrequency],
		Notes:          r.Fields[s.Notes],
	}
	if res.Services == nil {
		res.Services = []string{}
	}
	if b, ok := r.Fields[s.NeedsScheduling].(bool); ok {
		res.NeedsScheduling = b
	}
	return res
}

func strOr(v interface{}, def string) string {
	if s := str(v); s != "" {
		return s
	}
	return def
}

var formulaEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeFormula(s string) string {
	return formulaEscaper.Replace(s)
}
