// Package releases lists and downloads disk images published as GitHub
// release assets.
package releases

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v55/github"
	"github.com/rs/zerolog"
)

// Asset is a downloadable file attached to a release.
type Asset struct {
	Version string `json:"version"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Size    int64  `json:"size"`
}

// Client fetches release listings and keeps a cached copy on disk.
type Client struct {
	gh       *github.Client
	http     *http.Client
	cacheDir string
	ttl      time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewClient(gh *github.Client, cacheDir string, ttl time.Duration, log zerolog.Logger) *Client {
	if gh == nil {
		gh = github.NewClient(nil)
	}
	return &Client{
		gh:       gh,
		http:     http.DefaultClient,
		cacheDir: cacheDir,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

// Fetch lists the assets of every stable release of owner/repo. Release
// candidates, betas and tags that are not semantic versions are skipped.
func (c *Client) Fetch(ctx context.Context, owner, repo string) ([]Asset, error) {
	var assets []Asset
	opts := &github.ListOptions{PerPage: 100}
	for {
		releases, resp, err := c.gh.Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list releases of %s/%s: %w", owner, repo, err)
		}
		for _, rel := range releases {
			version := rel.GetTagName()
			if rel.GetDraft() || rel.GetPrerelease() || unstable(version) {
				continue
			}
			if _, err := semver.NewVersion(version); err != nil {
				continue
			}
			for _, a := range rel.Assets {
				assets = append(assets, Asset{
					Version: version,
					Name:    a.GetName(),
					URL:     a.GetBrowserDownloadURL(),
					Size:    int64(a.GetSize()),
				})
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	c.log.Debug().Str("repo", owner+"/"+repo).Int("assets", len(assets)).Msg("Fetched release assets")
	return assets, nil
}

func unstable(version string) bool {
	v := strings.ToLower(version)
	return strings.Contains(v, "rc") || strings.Contains(v, "beta") || strings.Contains(v, "alpha")
}

type cacheFile struct {
	FetchedAt time.Time `json:"fetched_at"`
	Assets    []Asset   `json:"assets"`
}

func (c *Client) cachePath(owner, repo string) string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("releases-%s-%s.json", owner, repo))
}

// Cached returns the cached listing while it is younger than the TTL and
// fetches (and stores) a fresh one otherwise or when refresh is set. Failing
// to write the cache is not an error.
func (c *Client) Cached(ctx context.Context, owner, repo string, refresh bool) ([]Asset, error) {
	path := c.cachePath(owner, repo)
	if !refresh && c.cacheDir != "" {
		if data, err := os.ReadFile(path); err == nil {
			var cf cacheFile
			if err := json.Unmarshal(data, &cf); err == nil && c.now().Sub(cf.FetchedAt) < c.ttl {
				c.log.Debug().Str("path", path).Msg("Using cached release listing")
				return cf.Assets, nil
			}
		}
	}

	assets, err := c.Fetch(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	if c.cacheDir == "" {
		return assets, nil
	}
	data, err := json.Marshal(cacheFile{FetchedAt: c.now(), Assets: assets})
	if err == nil {
		if err = os.MkdirAll(c.cacheDir, 0755); err == nil {
			err = os.WriteFile(path, data, 0644)
		}
	}
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("Failed to write release cache")
	}
	return assets, nil
}

// Versions returns the distinct versions in assets, newest first.
func Versions(assets []Asset) []string {
	seen := make(map[string]bool)
	var versions []*semver.Version
	for _, a := range assets {
		if seen[a.Version] {
			continue
		}
		seen[a.Version] = true
		if v, err := semver.NewVersion(a.Version); err == nil {
			versions = append(versions, v)
		}
	}
	sort.Sort(sort.Reverse(semver.Collection(versions)))
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		out = append(out, v.Original())
	}
	return out
}

var imageSuffixes = []string{".iso", ".img", ".raw"}

// Images returns the disk image assets of version sorted by name.
func Images(assets []Asset, version string) []Asset {
	var out []Asset
	for _, a := range assets {
		if a.Version != version {
			continue
		}
		name := strings.ToLower(a.Name)
		for _, suffix := range imageSuffixes {
			if strings.HasSuffix(name, suffix) {
				out = append(out, a)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
