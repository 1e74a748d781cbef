package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every harness option read from the environment
const EnvPrefix = "BACKEND_TEST"

const (
	keyResultsFile    = "results_file"
	keyRequestTimeout = "request_timeout"
	keyPageTimeout    = "page_timeout"
	keyLogLevel       = "log_level"
	keyStrictExit     = "strict_exit"
	keyFixturesFile   = "fixtures_file"
	keyStorageBuckets = "storage_buckets"
)

// Options controls how the harness runs, as opposed to what it talks to
type Options struct {
	ResultsFile    string
	RequestTimeout time.Duration
	PageTimeout    time.Duration
	LogLevel       logrus.Level
	StrictExit     bool
	FixturesFile   string
	StorageBuckets []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyResultsFile, "/app/backend_test_results.json")
	v.SetDefault(keyRequestTimeout, 10*time.Second)
	v.SetDefault(keyPageTimeout, 15*time.Second)
	v.SetDefault(keyLogLevel, "warn")
	v.SetDefault(keyStrictExit, false)
	v.SetDefault(keyFixturesFile, "")
	v.SetDefault(keyStorageBuckets, "motorcycles,site-assets")
}

// LoadOptions reads harness options from BACKEND_TEST_* environment variables
func LoadOptions() (*Options, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)
	return optionsFrom(v)
}

func optionsFrom(v *viper.Viper) (*Options, error) {
	level, err := logrus.ParseLevel(v.GetString(keyLogLevel))
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}

	opts := &Options{
		ResultsFile:    v.GetString(keyResultsFile),
		RequestTimeout: v.GetDuration(keyRequestTimeout),
		PageTimeout:    v.GetDuration(keyPageTimeout),
		LogLevel:       level,
		StrictExit:     v.GetBool(keyStrictExit),
		FixturesFile:   v.GetString(keyFixturesFile),
		StorageBuckets: splitList(v.GetString(keyStorageBuckets)),
	}

	if opts.RequestTimeout <= 0 {
		return nil, errors.Errorf("request timeout must be positive, got %s", opts.RequestTimeout)
	}
	if opts.PageTimeout <= 0 {
		return nil, errors.Errorf("page timeout must be positive, got %s", opts.PageTimeout)
	}
	if opts.ResultsFile == "" {
		return nil, errors.New("results file path is empty")
	}

	return opts, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
