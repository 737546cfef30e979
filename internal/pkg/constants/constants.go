package constants

// Viper configuration keys. All values are read from the environment,
// see cmd/analytics-api.
const (
	ViperKeyListenAddr    = "listen_addr"
	ViperKeyDatabaseDSN   = "database_dsn"
	ViperKeyJWTSecret     = "jwt_secret"
	ViperKeyDefaultRoleID = "default_role_id"
	ViperKeyLogLevel      = "log_level"
	ViperKeyQueryTimeout  = "query_timeout"
	ViperKeyQueryAttempts = "query_attempts"
)

// Echo/request context keys.
const (
	CtxKeyAuthorizedAreas = "authorized_areas"
	CtxKeyRequestID       = "request_id"
)

// JWT claim names carried by caller tokens. The authorized-area list in the
// token is already descendant-expanded and deny-subtracted by the identity
// service; this process never re-derives it.
const (
	ClaimAuthorizedAreaIDs = "authorized_area_ids"
	ClaimGeoRestricted     = "geo_restricted"
)
