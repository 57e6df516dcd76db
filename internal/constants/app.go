package constants

// Application Information
const (
	AppName    = "Inventory Service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// Cache Key Prefixes
const (
	CacheKeyPrefix      = "inv:"
	CacheKeyReport      = CacheKeyPrefix + "report:"
	CacheKeyOTPAttempts = CacheKeyPrefix + "otp:attempts:"
)

// Cookie Names
const (
	CookieRefreshToken = "refresh_token"
	CookieRefreshPath  = "/api/v1/auth"
)
