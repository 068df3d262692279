package product

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kevensen/frtsdk/redteam/store"
)

// the architectures rpm builds for, plus source packages
var archPattern = regexp.MustCompile(`\.(i386|i486|i586|i686|athlon|geode|pentium3|pentium4|x86_64|amd64|ia64|` +
	`alpha|alphaev5|alphaev56|alphapca56|alphaev6|alphaev67|sparc|sparcv8|sparcv9|sparc64|sparc64v|sun4|sun4c|sun4d|` +
	`sun4m|sun4u|armv3l|armv4b|armv4l|armv5tel|armv5tejl|armv6l|armv7l|armv7hl|aarch64|mips|mipsel|ppc|ppciseries|` +
	`ppcpseries|ppc64|ppc64le|ppc8260|ppc8560|ppc32dy4|m68k|m68kmint|atarist|atariste|ataritt|falcon|atariclone|milan|` +
	`hades|Sgi|rs6000|i370|s390x|s390|noarch|src)$`)

// RPM is a package build coordinate: name, epoch, version, release and architecture.
type RPM struct {
	Name    string `json:"name"`
	Epoch   string `json:"epoch,omitempty"`
	Version string `json:"version"`
	Release string `json:"release"`
	Arch    string `json:"arch"`
}

// FullName is the name-version-release.arch file name of the build, without the ".rpm" suffix.
func (r RPM) FullName() string {
	name := r.Name + "-" + r.Version + "-" + r.Release
	if r.Arch != "" {
		name += "." + r.Arch
	}
	return name
}

// Package is the coordinate the advisory documents use for the same build. The architecture is not part of it.
func (r RPM) Package() store.Package {
	num, target, _ := strings.Cut(r.Release, ".")
	return store.Package{
		Name:           r.Name,
		Version:        r.Version,
		ReleaseNum:     num,
		ReleaseProduct: target,
	}
}

// ParseNEVRA reads a build coordinate from a package file name such as "bash-5.0.11-1.fc31.x86_64.rpm". The epoch
// may be given in front of the version ("bash-1:5.0.11-1.fc31.x86_64"). A name without a known architecture is
// read as name-version-release.
func ParseNEVRA(s string) (RPM, error) {
	rest := strings.TrimSuffix(strings.TrimSpace(s), ".rpm")

	var r RPM
	if m := archPattern.FindStringSubmatchIndex(rest); m != nil {
		r.Arch = rest[m[2]:m[3]]
		rest = rest[:m[0]]
	}

	releaseAt := strings.LastIndex(rest, "-")
	if releaseAt < 0 {
		return RPM{}, fmt.Errorf("invalid package coordinate %q: no release", s)
	}
	r.Release = rest[releaseAt+1:]
	rest = rest[:releaseAt]

	versionAt := strings.LastIndex(rest, "-")
	if versionAt < 0 {
		return RPM{}, fmt.Errorf("invalid package coordinate %q: no version", s)
	}
	r.Name = rest[:versionAt]
	r.Version = rest[versionAt+1:]

	if epoch, version, found := strings.Cut(r.Version, ":"); found {
		r.Epoch, r.Version = epoch, version
	}

	if r.Name == "" || r.Version == "" || r.Release == "" {
		return RPM{}, fmt.Errorf("invalid package coordinate %q", s)
	}
	return r, nil
}
