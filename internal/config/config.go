package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL"`

	AI       AIGateway `envPrefix:"AI_"`
	Resend   Resend    `envPrefix:"RESEND_"`
	WhatsApp WhatsApp  `envPrefix:"WHATSAPP_"`
	S3       S3        `envPrefix:"S3_"`
	Admin    Admin     `envPrefix:"ADMIN_"`
}

type AIGateway struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.openai.com"`
	APIKey     string `env:"API_KEY"`
	Model      string `env:"MODEL" envDefault:"gpt-4o-mini"`
}

// Resend holds env-level email provider credentials. When set they take
// precedence over the settings table (see service.SettingsLoader).
type Resend struct {
	APIKey string `env:"API_KEY"`
	From   string `env:"FROM"`
}

type WhatsApp struct {
	BaseApiURL  string `env:"BASE_API_URL" envDefault:"https://graph.facebook.com/v17.0"`
	Token       string `env:"TOKEN"`
	PhoneID     string `env:"PHONE_ID"`
	CountryCode string `env:"COUNTRY_CODE" envDefault:"52"`
}

type S3 struct {
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Bucket    string `env:"BUCKET"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Endpoint  string `env:"ENDPOINT"`
}

type Admin struct {
	Password  string `env:"PASSWORD"`
	JWTSecret string `env:"JWT_SECRET"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
