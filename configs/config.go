package config

import "os"

type R2 struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
}

type Instagram struct {
	UserID      string
	AccessToken string
}

type Config struct {
	PostgresURI      string
	RedisURI         string
	FrontendURL      string
	SecretKey        string
	CookieName       string
	OperatorPassword string
	GeminiAPIKey     string
	CaptionModel     string
	TransformAPIURL  string
	TransformAPIKey  string
	CompareModelA    string
	CompareModelB    string
	Instagram        Instagram
	R2               R2
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:      getEnv("POSTGRES_URI", ""),
		RedisURI:         getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:        getEnv("SECRET_KEY", ""),
		CookieName:       getEnv("COOKIE_NAME", "boothflow_session"),
		OperatorPassword: getEnv("OPERATOR_PASSWORD", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		CaptionModel:     getEnv("CAPTION_MODEL", "gemini-2.0-flash"),
		TransformAPIURL:  getEnv("TRANSFORM_API_URL", ""),
		TransformAPIKey:  getEnv("TRANSFORM_API_KEY", ""),
		CompareModelA:    getEnv("COMPARE_MODEL_A", "styleforge-v2"),
		CompareModelB:    getEnv("COMPARE_MODEL_B", "photomuse-xl"),
		Instagram: Instagram{
			UserID:      getEnv("INSTAGRAM_USER_ID", ""),
			AccessToken: getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
		},
		R2: R2{
			AccountID:     getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:     getEnv("R2_ACCESS_KEY", ""),
			SecretKey:     getEnv("R2_SECRET_KEY", ""),
			BucketName:    getEnv("R2_BUCKET_NAME", ""),
			PublicBaseURL: getEnv("R2_PUBLIC_BASE_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
