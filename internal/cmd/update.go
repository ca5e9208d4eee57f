package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkirkendall/prompt-perfect/internal/version"
)

const (
	repoOwner = "rkirkendall"
	repoName  = "prompt-perfect"
)

var releasesURL = fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName)

// release is the part of the GitHub release payload we read.
type release struct {
	Tag string `json:"tag_name"`
}

// updateStatus compares the running version against the latest release.
type updateStatus struct {
	Current string
	Latest  string
}

func (s updateStatus) Newer() bool {
	return s.Latest != "" && s.Latest != s.Current
}

func checkForUpdate(ctx context.Context, url string) (updateStatus, error) {
	st := updateStatus{Current: version.Version}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return st, err
	}
	req.Header.Set("User-Agent", repoName+"/"+version.Version)
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("release lookup: %s", resp.Status)
	}
	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return st, fmt.Errorf("decode release: %w", err)
	}
	st.Latest = strings.TrimSpace(rel.Tag)
	return st, nil
}

// updateHint returns the install one-liner for goos, or "" when none exists.
func updateHint(goos string) string {
	base := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/main/scripts", repoOwner, repoName)
	switch goos {
	case "darwin", "linux":
		return "curl -fsSL " + base + "/install.sh | bash"
	case "windows":
		return `powershell -ExecutionPolicy Bypass -c "iwr ` + base + `/install.ps1 -UseB | iex"`
	}
	return ""
}

func printUpdateStatus(w io.Writer, st updateStatus, goos string) {
	if !st.Newer() {
		fmt.Fprintf(w, "%s %s is up to date\n", repoName, st.Current)
		return
	}
	fmt.Fprintf(w, "%s %s is available (running %s)\n", repoName, st.Latest, st.Current)
	if hint := updateHint(goos); hint != "" {
		fmt.Fprintln(w, "  "+hint)
	}
}

// notifyUpdate prints a hint on w when a release build is behind. Lookup
// failures are silent and the binary is never replaced.
func notifyUpdate(ctx context.Context, w io.Writer) {
	if version.Version == "dev" {
		return
	}
	st, err := checkForUpdate(ctx, releasesURL)
	if err != nil || !st.Newer() {
		return
	}
	printUpdateStatus(w, st, runtime.GOOS)
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Check GitHub for a newer release",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := checkForUpdate(cmd.Context(), releasesURL)
			if err != nil {
				return fmt.Errorf("check for updates: %w", err)
			}
			printUpdateStatus(cmd.OutOrStdout(), st, runtime.GOOS)
			return nil
		},
	}
}

func init() { rootCmd.AddCommand(newUpdateCmd()) }
