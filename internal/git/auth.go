package git

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Auth describes optional HTTP credentials for a project repository.
type Auth struct {
	Type     string `yaml:"type"` // "token" or "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
}

// method returns the go-git AuthMethod for a, or nil when a is nil.
func (a *Auth) method() (transport.AuthMethod, error) {
	if a == nil {
		return nil, nil
	}
	switch a.Type {
	case "token":
		if a.Token == "" {
			return nil, fmt.Errorf("token auth requires a token")
		}
		user := a.Username
		if user == "" {
			user = "token"
		}
		return &http.BasicAuth{Username: user, Password: a.Token}, nil
	case "basic":
		if a.Username == "" {
			return nil, fmt.Errorf("basic auth requires a username")
		}
		return &http.BasicAuth{Username: a.Username, Password: a.Password}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %q", a.Type)
	}
}
