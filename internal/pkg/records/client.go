package records

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/utils"
	"github.com/pkg/errors"
)

//DefaultURL of the datastore REST API
const DefaultURL = "https://api.airtable.com/v0"

var (
	//ErrUnauthorized - token is wrong or has no access to the base or table
	ErrUnauthorized = errors.New("Datastore access denied")
	//ErrNotFound - base, table or record does not exist
	ErrNotFound = errors.New("Datastore entity not found")
)

//Config of the datastore client
type Config struct {
	URL           string
	BaseID        string
	Token         string
	Table         string
	ClientsTable  string
	ScheduleTable string
	Timeout       time.Duration
	Schema        *Schema
}

//Validate checks the required settings
func (c *Config) Validate() error {
	if c.BaseID == "" {
		return apperr.Configuration("No datastore base ID")
	}
	if c.Token == "" {
		return apperr.Configuration("No datastore token")
	}
	if c.Table == "" {
		return apperr.Configuration("No datastore table")
	}
	if _, err := utils.ValidateURL(c.URL, "datastore.url"); err != nil {
		return &apperr.Error{Kind: apperr.KindConfiguration, Msg: "Wrong datastore url", Err: err}
	}
	return nil
}

//Record is a raw datastore record
type Record struct {
	ID          string                 `json:"id,omitempty"`
	CreatedTime string                 `json:"createdTime,omitempty"`
	Fields      map[string]interface{} `json:"fields"`
}

type listResponse struct {
	Records []*Record `json:"records"`
	Offset  string    `json:"offset,omitempty"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

//Client talks to the datastore REST API
type Client struct {
	httpclient *http.Client
	cfg        Config
	schema     *Schema
}

//NewClient creates the datastore client
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	res := &Client{cfg: cfg, schema: cfg.Schema}
	if res.schema == nil {
		res.schema = DefaultSchema()
	}
	res.httpclient = &http.Client{Timeout: cfg.Timeout}
	cmdapp.Log.Infof("Datastore: %s, base: %s, table: %s, token: %s", cfg.URL, cfg.BaseID, cfg.Table,
		utils.HideSecret(cfg.Token))
	return res, nil
}

//List returns all records of the table matching the formula, follows the pagination offset
func (c *Client) List(ctx context.Context, table, formula string) ([]*Record, error) {
	var res []*Record
	offset := ""
	for {
		q := url.Values{}
		if formula != "" {
			q.Set("filterByFormula", formula)
		}
		if offset != "" {
			q.Set("offset", offset)
		}
		urlStr := c.tableURL(table)
		if len(q) > 0 {
			urlStr = urlStr + "?" + q.Encode()
		}
		var resp listResponse
		if err := c.do(ctx, http.MethodGet, urlStr, nil, &resp); err != nil {
			return nil, errors.Wrapf(err, "Can't list %s", table)
		}
		res = append(res, resp.Records...)
		if resp.Offset == "" || resp.Offset == offset {
			return res, nil
		}
		offset = resp.Offset
	}
}

//GetRecord returns the record by ID
func (c *Client) GetRecord(ctx context.Context, table, id string) (*Record, error) {
	var res Record
	if err := c.do(ctx, http.MethodGet, utils.URLJoin(c.tableURL(table), url.PathEscape(id)), nil, &res); err != nil {
		return nil, errors.Wrapf(err, "Can't get %s", id)
	}
	return &res, nil
}

//CreateRecord creates new record
func (c *Client) CreateRecord(ctx context.Context, table string, fields map[string]interface{}) (*Record, error) {
	var res Record
	if err := c.do(ctx, http.MethodPost, c.tableURL(table), &Record{Fields: fields}, &res); err != nil {
		return nil, errors.Wrap(err, "Can't create record")
	}
	if res.ID == "" {
		return nil, errors.New("No record ID in response")
	}
	return &res, nil
}

//PatchRecord updates the provided fields only
func (c *Client) PatchRecord(ctx context.Context, table, id string, fields map[string]interface{}) (*Record, error) {
	var res Record
	if err := c.do(ctx, http.MethodPatch, utils.URLJoin(c.tableURL(table), url.PathEscape(id)), &Record{Fields: fields}, &res); err != nil {
		return nil, errors.Wrapf(err, "Can't update %s", id)
	}
	return &res, nil
}

func (c *Client) tableURL(table string) string {
	return utils.URLJoin(c.cfg.URL, url.PathEscape(c.cfg.BaseID), url.PathEscape(table))
}

func (c *Client) do(ctx context.Context, method, urlStr string, body interface{}, result interface{}) error {
	var rb *bytes.Buffer
	if body != nil {
		rb = &bytes.Buffer{}
		if err := json.NewEncoder(rb).Encode(body); err != nil {
			return errors.Wrap(err, "Can't encode request")
		}
	}
	var req *http.Request
	var err error
	if rb != nil {
		req, err = http.NewRequestWithContext(ctx, method, urlStr, rb)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, urlStr, nil)
	}
	if err != nil {
		return errors.Wrap(err, "Can't prepare request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if rb != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cmdapp.Log.Debugf("Datastore call: %s %s", method, utils.URLToLog(urlStr))
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return apperr.Upstream(err, "Datastore call failed")
	}
	defer resp.Body.Close()
	if err := utils.ValidateResponse(resp); err != nil {
		if t := errorType(err); t != "" {
			cmdapp.Log.Warnf("Datastore error type: %s", t)
		}
		return apperr.Upstream(classify(err), "Datastore call failed")
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return apperr.Upstream(err, "Can't decode datastore response")
	}
	return nil
}

func classify(err error) error {
	switch utils.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrap(ErrUnauthorized, err.Error())
	case http.StatusNotFound:
		return errors.Wrap(ErrNotFound, err.Error())
	}
	return err
}

func errorType(err error) string {
	var he *utils.HTTPError
	if !errors.As(err, &he) {
		return ""
	}
	var er errorResponse
	if json.Unmarshal([]byte(he.Body), &er) != nil {
		return ""
	}
	return er.Error.Type
}
