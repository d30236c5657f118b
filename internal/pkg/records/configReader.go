package records

import (
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
)

//ReadConfig reads the datastore config from viper, the schema is loaded from datastore.schema file if set
func ReadConfig() (Config, error) {
	res := Config{
		URL:           cmdapp.Config.GetString("datastore.url"),
		BaseID:        cmdapp.Config.GetString("datastore.base"),
		Token:         cmdapp.Config.GetString("datastore.token"),
		Table:         cmdapp.Config.GetString("datastore.table"),
		ClientsTable:  cmdapp.Config.GetString("datastore.clientsTable"),
		ScheduleTable: cmdapp.Config.GetString("datastore.scheduleTable"),
		Timeout:       cmdapp.Config.GetDuration("datastore.timeout"),
	}
	s, err := LoadSchema(cmdapp.Config.GetString("datastore.schema"))
	if err != nil {
		return res, err
	}
	res.Schema = s
	return res, nil
}
