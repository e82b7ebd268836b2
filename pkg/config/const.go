package config

// EnvPrefix is applied by envconfig when resolving variables.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "KIVA_DB_DSN"
	EnvDBHost = "KIVA_DB_HOST"
	EnvDBUser = "KIVA_DB_USER"
	EnvDBName = "KIVA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
