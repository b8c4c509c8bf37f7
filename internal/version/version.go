// Package version reports the build version and compares it against the
// latest published release.
package version

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/nulzo/epoch/internal/httpclient"
)

// Version is overridden at build time with -ldflags "-X ...version.Version=v1.2.3".
var Version = "v0.1.0"

const (
	DefaultAPIBase = "https://api.github.com"
	Repository     = "nulzo/epoch"
)

type release struct {
	TagName string `json:"tag_name"`
}

// Update describes the outcome of a release check.
type Update struct {
	Current   string
	Latest    string
	Available bool
}

// Checker queries the GitHub releases API.
type Checker struct {
	Client  httpclient.HTTPClient
	APIBase string
	Repo    string
}

func NewChecker() *Checker {
	return &Checker{
		Client:  &http.Client{Timeout: 5 * time.Second},
		APIBase: DefaultAPIBase,
		Repo:    Repository,
	}
}

// Check compares current against the latest release tag.
func (c *Checker) Check(ctx context.Context, current string) (*Update, error) {
	cur, err := goversion.NewVersion(current)
	if err != nil {
		return nil, fmt.Errorf("invalid current version %q: %w", current, err)
	}

	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.APIBase, c.Repo)
	headers := map[string]string{"Accept": "application/vnd.github+json"}

	var rel release
	if err := httpclient.SendRequest(ctx, c.Client, http.MethodGet, url, headers, nil, &rel); err != nil {
		return nil, err
	}

	latest, err := goversion.NewVersion(rel.TagName)
	if err != nil {
		return nil, fmt.Errorf("invalid release tag %q: %w", rel.TagName, err)
	}

	return &Update{
		Current:   cur.Original(),
		Latest:    latest.Original(),
		Available: cur.LessThan(latest),
	}, nil
}
