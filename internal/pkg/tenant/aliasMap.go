package tenant

import (
	"strings"
	"sync"

	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type alias struct {
	Host   string `mapstructure:"host"`
	Tenant string `mapstructure:"tenant"`
}

// FileAliasMap loads custom domain aliases from the yaml file and reloads them on change
//
//	aliases:
//	  - host: ideas.acme-corp.com
//	    tenant: acme
type FileAliasMap struct {
	File string
	v    *viper.Viper

	lock  sync.RWMutex
	hosts map[string]string
}

//NewFileAliasMap creates FileAliasMap instance, empty path returns nil map without error
func NewFileAliasMap(file string) (*FileAliasMap, error) {
	if file == "" {
		cmdapp.Log.Info("No tenant alias map configured")
		return nil, nil
	}
	cmdapp.Log.Infof("Init tenant alias map from: %s", file)
	f := FileAliasMap{File: file}
	f.v = viper.New()
	f.v.SetConfigFile(file)
	f.v.SetConfigType("yml")
	err := f.v.ReadInConfig()
	if err != nil {
		return nil, errors.Wrap(err, "Can't read tenant alias file: "+file)
	}
	if err = f.load(); err != nil {
		return nil, err
	}

	f.v.WatchConfig()
	f.v.OnConfigChange(func(e fsnotify.Event) {
		if err := f.load(); err != nil {
			cmdapp.Log.Error(errors.Wrap(err, "Can't reload tenant aliases"))
			return
		}
		cmdapp.Log.Infof("Tenant aliases reloaded from: %s", file)
	})
	return &f, nil
}

func (f *FileAliasMap) load() error {
	var as []alias
	if err := f.v.UnmarshalKey("aliases", &as); err != nil {
		return errors.Wrap(err, "Can't parse aliases")
	}
	f.set(as)
	return nil
}

func (f *FileAliasMap) set(as []alias) {
	hosts := make(map[string]string, len(as))
	for _, a := range as {
		h, t := normalize(a.Host), normalize(a.Tenant)
		if h == "" || t == "" {
			continue
		}
		hosts[h] = t
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.hosts = hosts
}

// Get returns tenant by host
func (f *FileAliasMap) Get(host string) (string, bool) {
	if f == nil {
		return "", false
	}
	f.lock.RLock()
	defer f.lock.RUnlock()
	t, ok := f.hosts[strings.ToLower(host)]
	return t, ok
}
