package tenant

import (
	"net"
	"net/http"
	"strings"
)

//DefaultTenant is used when host does not identify any client
const DefaultTenant = "demo"

//DefaultSkipHosts are the host markers of local and preview deployments
var DefaultSkipHosts = []string{"localhost", "vercel.app"}

//AliasMap maps full host names to tenants
type AliasMap interface {
	Get(host string) (string, bool)
}

//Resolver maps request host names to tenant identifiers
type Resolver struct {
	Default   string
	SkipHosts []string
	Aliases   AliasMap
}

//NewResolver creates resolver with defaults for empty values
func NewResolver(def string, skipHosts []string, aliases AliasMap) *Resolver {
	res := &Resolver{Default: normalize(def), SkipHosts: skipHosts, Aliases: aliases}
	if res.Default == "" {
		res.Default = DefaultTenant
	}
	if len(res.SkipHosts) == 0 {
		res.SkipHosts = DefaultSkipHosts
	}
	return res
}

//Resolve returns tenant for the host. It never fails
func (r *Resolver) Resolve(host string) string {
	h := stripPort(normalize(host))
	if h == "" || net.ParseIP(h) != nil {
		return r.def()
	}
	if r.Aliases != nil {
		if t, ok := r.Aliases.Get(h); ok && t != "" {
			return normalize(t)
		}
	}
	for _, s := range r.SkipHosts {
		if s != "" && strings.Contains(h, s) {
			return r.def()
		}
	}
	parts := strings.Split(h, ".")
	if len(parts) >= 3 && parts[0] != "" {
		return parts[0]
	}
	return r.def()
}

//ResolveRequest returns override if provided, else resolves tenant from request host
func (r *Resolver) ResolveRequest(req *http.Request, override string) string {
	if o := normalize(override); o != "" {
		return o
	}
	for _, p := range []string{"subdomain", "tenant"} {
		if o := normalize(req.URL.Query().Get(p)); o != "" {
			return o
		}
	}
	return r.Resolve(req.Host)
}

func (r *Resolver) def() string {
	if r.Default == "" {
		return DefaultTenant
	}
	return r.Default
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func stripPort(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		return host
	}
	return h
}
