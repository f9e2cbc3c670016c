package ovsdbapi

import (
	"fmt"
	"os"
	"time"

	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	packageName = "ovsdbmanager"
	appName     = "ovsdbapi"
)

/*
SetConfigDefaults defines the command-line flags and the defaults for
every configuration key. Call it before pflag.Parse.
*/
func SetConfigDefaults() {
	pflag.IntP("port", "p", -1, "HTTP listen port")
	pflag.StringP("address", "a", "", "HTTP listen address")
	pflag.StringP("endpoint", "e", "", "OVSDB server: tcp:HOST[:PORT] or unix:PATH")
	pflag.StringP("database", "d", ovsdbclient.DefaultDatabase, "OVSDB database")
	pflag.Duration("connect-timeout", 5*time.Second, "Timeout to connect to OVSDB")
	pflag.Duration("call-timeout", 5*time.Second, "Timeout for each OVSDB call")
	pflag.Duration("schema-ttl", 5*time.Minute, "How long to cache schemas (0 for ever)")
	pflag.String("tmpdir", "", "Directory for SQLite snapshots")
	pflag.BoolP("config", "C", false,
		fmt.Sprintf("Use a config file named '%s' located in either /etc/%s/, ~/.%s or ./", appName, packageName, packageName))
	pflag.BoolP("debug", "D", false, "Turn on debugging")

	viper.SetDefault("port", -1)
	viper.SetDefault("address", "")
	viper.SetDefault("endpoint", "")
	viper.SetDefault("database", ovsdbclient.DefaultDatabase)
	viper.SetDefault("connectTimeout", 5*time.Second)
	viper.SetDefault("callTimeout", 5*time.Second)
	viper.SetDefault("schemaTTL", 5*time.Minute)
	viper.SetDefault("tempDir", "")
	viper.SetDefault("debug", false)
}

// getConfig binds the parsed flags, the config file and the environment.
func getConfig() error {
	viper.BindPFlag("port", pflag.Lookup("port"))
	viper.BindPFlag("address", pflag.Lookup("address"))
	viper.BindPFlag("endpoint", pflag.Lookup("endpoint"))
	viper.BindPFlag("database", pflag.Lookup("database"))
	viper.BindPFlag("connectTimeout", pflag.Lookup("connect-timeout"))
	viper.BindPFlag("callTimeout", pflag.Lookup("call-timeout"))
	viper.BindPFlag("schemaTTL", pflag.Lookup("schema-ttl"))
	viper.BindPFlag("tempDir", pflag.Lookup("tmpdir"))
	viper.BindPFlag("configFile", pflag.Lookup("config"))
	viper.BindPFlag("debug", pflag.Lookup("debug"))

	if viper.GetBool("configFile") {
		viper.SetConfigName(appName)
		viper.AddConfigPath(fmt.Sprintf("/etc/%s/", packageName))
		viper.AddConfigPath(fmt.Sprintf("%s/.%s", os.Getenv("HOME"), packageName))
		viper.AddConfigPath(".")
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	}

	// OVSDBAPI_PORT, OVSDBAPI_ENDPOINT and so on
	viper.SetEnvPrefix(appName)
	viper.AutomaticEnv()

	return nil
}
