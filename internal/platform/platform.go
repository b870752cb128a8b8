// Package platform identifies the host operating system for the Docker
// bootstrap scripts shipped with Mythic.
package platform

import (
	"bufio"
	"context"
	"io"
	"os"
	goruntime "runtime"
	"strings"

	"github.com/firefly-engineering/mythic-ctl/internal/logging"
	"github.com/firefly-engineering/mythic-ctl/internal/system"
)

// OS identifies a host platform.
type OS string

const (
	Debian  OS = "debian"
	Ubuntu  OS = "ubuntu"
	Kali    OS = "kali"
	Darwin  OS = "darwin"
	Unknown OS = "unknown"
)

// osReleaseFiles are read in order; the first readable one wins.
var osReleaseFiles = []string{"/etc/os-release", "/usr/lib/os-release"}

// Release holds the identifying fields of os-release(5).
type Release struct {
	ID         string
	IDLike     []string
	PrettyName string
}

// ParseRelease decodes os-release content. Values may be quoted.
func ParseRelease(r io.Reader) Release {
	var rel Release
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		switch key {
		case "ID":
			rel.ID = strings.ToLower(value)
		case "ID_LIKE":
			rel.IDLike = strings.Fields(strings.ToLower(value))
		case "PRETTY_NAME":
			rel.PrettyName = value
		}
	}
	return rel
}

// Classify maps a release to a supported OS. The distribution's own ID
// takes precedence over ID_LIKE, so Kali (ID_LIKE=debian) is Kali.
func (r Release) Classify() OS {
	for _, id := range append([]string{r.ID}, r.IDLike...) {
		switch {
		case strings.Contains(id, "kali"):
			return Kali
		case strings.Contains(id, "ubuntu"):
			return Ubuntu
		case strings.Contains(id, "debian"):
			return Debian
		}
	}
	return Unknown
}

// Detector determines the host OS.
type Detector struct {
	exec  system.CommandExecutor
	goos  string
	files []string
}

// NewDetector creates a Detector for the running host.
func NewDetector(exec system.CommandExecutor) *Detector {
	return &Detector{exec: exec, goos: goruntime.GOOS, files: osReleaseFiles}
}

// Detect returns the host OS. On Linux it reads os-release and falls back
// to lsb_release when the release file names an unsupported distribution.
func (d *Detector) Detect(ctx context.Context) OS {
	logging.Debug("detecting platform", "os", d.goos)

	switch d.goos {
	case "darwin":
		return Darwin
	case "linux":
	default:
		return Unknown
	}

	for _, path := range d.files {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		rel := ParseRelease(f)
		f.Close()
		if detected := rel.Classify(); detected != Unknown {
			logging.Debug("detected distribution", "id", rel.ID, "name", rel.PrettyName)
			return detected
		}
		break
	}

	output, err := d.exec.Execute(ctx, "lsb_release", "-is")
	if err != nil {
		return Unknown
	}
	return Release{ID: strings.ToLower(strings.TrimSpace(string(output)))}.Classify()
}

// Fixed is a detector that always reports the same OS.
type Fixed OS

func (f Fixed) Detect(context.Context) OS {
	return OS(f)
}

// DockerInstallScript returns the Mythic script that installs Docker on host.
func DockerInstallScript(host OS) (string, bool) {
	switch host {
	case Debian, Ubuntu, Kali:
		return "install_docker_" + string(host) + ".sh", true
	}
	return "", false
}

// Guidance explains how to get a container engine on an unsupported OS.
func Guidance(host OS) string {
	if host == Darwin {
		return "install OrbStack instead of Docker, see https://docs.mythic-c2.net/installation"
	}
	return "install Docker manually, then re-run mythic-ctl"
}
