package constants

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

const (
	DEVELOPMENT = "development"
	PRODUCTION  = "production"
)
