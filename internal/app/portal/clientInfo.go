package portal

import (
	"context"
	"net/http"
	"strings"

	"bitbucket.org/localbzz/portalgo/internal/app/portal/api"
	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/records"
	"bitbucket.org/localbzz/portalgo/internal/pkg/schedule"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const clientInfoFailedMsg = "Failed to fetch client information"

type clientInfoHandler struct {
	data *ServiceData
}

func (h clientInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.data.Clients == nil {
		writeError(w, apperr.Configuration("No datastore"), clientInfoFailedMsg)
		return
	}
	tenant := strings.ToLower(strings.TrimSpace(firstNonEmpty(r.URL.Query().Get(api.PrmSubdomain),
		r.URL.Query().Get(api.PrmTenant))))
	if tenant == "" {
		writeError(w, apperr.Validation("Subdomain parameter is required"), clientInfoFailedMsg)
		return
	}
	cmdapp.Log.Infof("Client info for %s", tenant)

	client, events, err := h.load(r.Context(), tenant)
	if err != nil {
		writeError(w, err, clientInfoFailedMsg)
		return
	}
	s := schedule.NearestEvents(client.ID, events, schedule.Today(h.data.Now()))
	res := api.ClientInfoResponse{Success: true, Client: toAPIClient(client, s),
		LastEventDate: optional(s.Last), NextEventDate: optional(s.Next)}
	writeJSON(w, http.StatusOK, res)
}

// load reads client and schedule concurrently, schedule failure gives no events
func (h clientInfoHandler) load(ctx context.Context, tenant string) (*records.ClientInfo, []schedule.Event, error) {
	var client *records.ClientInfo
	var events []schedule.Event
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		client, err = h.data.Clients.FindClient(gctx, tenant)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = h.data.Clients.ScheduleEvents(gctx)
		if err != nil {
			if gctx.Err() == nil {
				cmdapp.Log.Error(errors.Wrap(err, "Can't load schedule"))
			}
			events = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return client, events, nil
}

func toAPIClient(c *records.ClientInfo, s schedule.Summary) *api.Client {
	res := &api.Client{ID: c.ID, Name: c.Name, Services: c.Services, Status: c.Status, Subdomain: c.Subdomain,
		ShootFrequency: c.ShootFrequency, LastShootDate: optional(s.Last), NextScheduledShoot: s.Next,
		NeedsScheduling: c.NeedsScheduling, Notes: c.Notes}
	if res.NextScheduledShoot == "" {
		res.NextScheduledShoot = "None"
	}
	return res
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
