package api

type Config struct {
	Host       string `env:"SERVER_HOST,default=localhost"`
	Port       uint16 `env:"SERVER_PORT,default=8080"`
	CORSOrigin string `env:"CORS_ORIGIN,default=*"`
}
