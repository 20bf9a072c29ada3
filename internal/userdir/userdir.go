// Package userdir finds the invoking user's directories when the process
// runs elevated, where $HOME usually points at root's home.
package userdir

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
)

// Home returns the real user's home directory even under sudo or pkexec.
func Home() string {
	switch runtime.GOOS {
	case "linux":
		if home := linuxElevatedHome(); home != "" {
			return home
		}
	case "darwin":
		if home := macElevatedHome(); home != "" {
			return home
		}
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	for _, env := range []string{"HOME", "USERPROFILE"} {
		if home := os.Getenv(env); home != "" {
			return home
		}
	}
	return os.TempDir()
}

// Downloads returns the user's download directory, falling back to home.
func Downloads() string {
	home := Home()
	if current, err := os.UserHomeDir(); err == nil && current == home && xdg.UserDirs.Download != "" {
		if isDir(xdg.UserDirs.Download) {
			return xdg.UserDirs.Download
		}
	}
	if dl := filepath.Join(home, "Downloads"); isDir(dl) {
		return dl
	}
	return home
}

func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// linuxElevatedHome resolves SUDO_USER or PKEXEC_UID through the passwd
// database.
func linuxElevatedHome() string {
	for _, key := range []string{"SUDO_USER", "PKEXEC_UID"} {
		id := os.Getenv(key)
		if id == "" || id == "root" || id == "0" {
			continue
		}
		out, err := exec.Command("getent", "passwd", id).Output()
		if err != nil {
			continue
		}
		if home := passwdHome(string(out)); home != "" {
			return home
		}
	}
	return ""
}

// passwdHome returns the home field of the first passwd line that belongs to
// a regular user (uid >= 1000).
func passwdHome(out string) string {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, ":")
		if len(fields) < 6 {
			continue
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil || uid < 1000 || fields[5] == "/root" {
			continue
		}
		return fields[5]
	}
	return ""
}

func macElevatedHome() string {
	sudoUser := os.Getenv("SUDO_USER")
	if sudoUser == "" || sudoUser == "root" {
		return ""
	}
	out, err := exec.Command("dscl", ".", "read", "/Users/"+sudoUser, "NFSHomeDirectory").Output()
	if err != nil {
		return ""
	}
	parts := strings.Fields(string(out))
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
