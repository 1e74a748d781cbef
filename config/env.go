package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variable names read by the harness
const (
	EnvBaseURL        = "NEXT_PUBLIC_BASE_URL"
	EnvSupabaseURL    = "NEXT_PUBLIC_SUPABASE_URL"
	EnvAnonKey        = "NEXT_PUBLIC_SUPABASE_ANON_KEY"
	EnvServiceRoleKey = "SUPABASE_SERVICE_ROLE_KEY"

	// EnvSettingsFile overrides the location of the dotenv settings file
	EnvSettingsFile = "BACKEND_TEST_ENV_FILE"
)

const (
	DefaultBaseURL      = "https://motodealer-app.preview.emergentagent.com"
	DefaultSettingsFile = "/app/.env"
)

// RequiredVars lists the variables the environment check expects, in report order
var RequiredVars = []string{
	EnvSupabaseURL,
	EnvAnonKey,
	EnvServiceRoleKey,
	EnvBaseURL,
}

// Settings holds the connection parameters of the system under test
type Settings struct {
	BaseURL        string
	APIURL         string
	SupabaseURL    string
	AnonKey        string
	ServiceRoleKey string
}

// SettingsFilePath returns the dotenv file to load before reading the environment
func SettingsFilePath() string {
	if p := os.Getenv(EnvSettingsFile); p != "" {
		return p
	}
	return DefaultSettingsFile
}

// LoadSettingsFile exports the variables of a dotenv file, replacing values
// already present in the environment. A missing file is not an error.
func LoadSettingsFile(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "stat settings file %s", path)
	}
	if err := godotenv.Overload(path); err != nil {
		return false, errors.Wrapf(err, "load settings file %s", path)
	}
	return true, nil
}

// SettingsFromEnv builds Settings from the current environment
func SettingsFromEnv() Settings {
	base := strings.TrimRight(os.Getenv(EnvBaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return Settings{
		BaseURL:        base,
		APIURL:         base + "/api",
		SupabaseURL:    strings.TrimRight(os.Getenv(EnvSupabaseURL), "/"),
		AnonKey:        os.Getenv(EnvAnonKey),
		ServiceRoleKey: os.Getenv(EnvServiceRoleKey),
	}
}

// MissingVars reports which required variables are unset or empty.
// The raw environment is inspected, so a defaulted base URL still counts as missing.
func MissingVars() []string {
	var missing []string
	for _, name := range RequiredVars {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
