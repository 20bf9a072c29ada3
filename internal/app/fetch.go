package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/google/go-github/v55/github"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"must-burn/internal/burn"
	"must-burn/internal/logging"
	"must-burn/internal/releases"
	"must-burn/internal/userdir"
)

type fetchFlags struct {
	owner   string
	repo    string
	version string
	asset   string
	dir     string
	refresh bool
	list    bool
}

func (a *app) newFetchCommand() *cobra.Command {
	var f fetchFlags
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a released disk image",
		Long: "Download a disk image attached to a GitHub release. Without --version the newest\n" +
			"stable release is used; without --asset the first image of that release.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.owner == "" {
				f.owner = a.cfg.Releases.Owner
			}
			if f.repo == "" {
				f.repo = a.cfg.Releases.Repo
			}
			if f.dir == "" {
				f.dir = userdir.Downloads()
			}

			gh := github.NewClient(nil)
			if token := os.Getenv("GITHUB_TOKEN"); token != "" {
				gh = gh.WithAuthToken(token)
			}
			client := releases.NewClient(gh, filepath.Join(xdg.CacheHome, "must-burn"), a.cfg.Releases.CacheTTL, logging.Component("releases"))

			assets, err := client.Cached(cmd.Context(), f.owner, f.repo, f.refresh)
			if err != nil {
				return err
			}
			versions := releases.Versions(assets)
			if len(versions) == 0 {
				return fmt.Errorf("no stable releases found for %s/%s", f.owner, f.repo)
			}

			version := f.version
			if version == "" {
				version = versions[0]
			}
			images := releases.Images(assets, version)
			if f.list {
				for _, img := range images {
					pterm.Println(img.Name)
				}
				return nil
			}
			if len(images) == 0 {
				return fmt.Errorf("release %s has no disk images", version)
			}

			asset := images[0]
			if f.asset != "" {
				found := false
				for _, img := range images {
					if img.Name == f.asset {
						asset, found = img, true
						break
					}
				}
				if !found {
					return fmt.Errorf("release %s has no asset %q", version, f.asset)
				}
			}

			pterm.Info.Printfln("Downloading %s (%s) to %s", asset.Name, version, f.dir)
			samples := make(chan burn.Sample, 1)
			done := make(chan struct{})
			go func() {
				render(samples)
				close(done)
			}()
			path, err := client.Download(cmd.Context(), asset, f.dir, samples)
			close(samples)
			<-done
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Saved %s", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.owner, "owner", "", "GitHub owner (default from config)")
	cmd.Flags().StringVar(&f.repo, "repo", "", "GitHub repository (default from config)")
	cmd.Flags().StringVar(&f.version, "version", "", "release tag (default newest stable)")
	cmd.Flags().StringVar(&f.asset, "asset", "", "asset name (default first image of the release)")
	cmd.Flags().StringVar(&f.dir, "dir", "", "download directory (default the user's Downloads folder)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore the cached release listing")
	cmd.Flags().BoolVar(&f.list, "list", false, "only list the images of the release")
	return cmd
}
