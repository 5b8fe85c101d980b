package config

// EnvPrefix is passed to envconfig; individual fields carry full names so the
// prefix mainly guards against accidental collisions.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "MARKETLOFT_APP_ENV"
	EnvDBDSN  = "MARKETLOFT_DB_DSN"
	EnvDBHost = "MARKETLOFT_DB_HOST"
	EnvDBUser = "MARKETLOFT_DB_USER"
	EnvDBName = "MARKETLOFT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
