package config

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
}

func New() Config {
	return mainConfig{}
}
