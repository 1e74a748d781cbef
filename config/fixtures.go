package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TestUser is a fixture credential pair bound to one dealership
type TestUser struct {
	Email          string `yaml:"email"`
	Password       string `yaml:"password"`
	DealershipSlug string `yaml:"dealership_slug"`
	DealershipID   string `yaml:"dealership_id"`
}

type fixturesFile struct {
	Users []TestUser `yaml:"users"`
}

// DefaultUsers returns the seeded tenants of the preview environment
func DefaultUsers() []TestUser {
	return []TestUser{
		{
			Email:          "motostachira@gmail.com",
			Password:       "password123",
			DealershipSlug: "motostachira",
			DealershipID:   "d1111111-1111-1111-1111-111111111111",
		},
		{
			Email:          "eklasvegas@gmail.com",
			Password:       "password123",
			DealershipSlug: "eklasvegas",
			DealershipID:   "d2222222-2222-2222-2222-222222222222",
		},
	}
}

// LoadUsers reads fixture users from a YAML file, or returns the defaults when path is empty
func LoadUsers(path string) ([]TestUser, error) {
	if path == "" {
		return DefaultUsers(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read fixtures file %s", path)
	}

	var f fixturesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse fixtures file %s", path)
	}

	if len(f.Users) == 0 {
		return nil, errors.Errorf("fixtures file %s defines no users", path)
	}
	for i, u := range f.Users {
		if err := validateUser(u); err != nil {
			return nil, errors.Wrapf(err, "user %d", i)
		}
	}
	return f.Users, nil
}

func validateUser(u TestUser) error {
	switch {
	case u.Email == "":
		return errors.New("email is required")
	case u.Password == "":
		return errors.New("password is required")
	case u.DealershipSlug == "":
		return errors.New("dealership_slug is required")
	case u.DealershipID == "":
		return errors.New("dealership_id is required")
	}
	return nil
}
