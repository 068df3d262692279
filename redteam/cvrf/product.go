package cvrf

import (
	"fmt"
	"strings"

	"github.com/facebookincubator/nvdtools/wfn"
	"github.com/package-url/packageurl-go"

	"github.com/kevensen/frtsdk/redteam/store"
)

type platform struct {
	vendor    string
	product   string
	namespace string
}

var platforms = map[string]platform{
	"Fedora Linux":             {vendor: "fedoraproject", product: "fedora", namespace: "fedora"},
	"CentOS":                   {vendor: "centos", product: "centos", namespace: "centos"},
	"Red Hat Enterprise Linux": {vendor: "redhat", product: "enterprise_linux", namespace: "redhat"},
}

func platformFor(family string) platform {
	if p, ok := platforms[family]; ok {
		return p
	}
	name := strings.ToLower(strings.ReplaceAll(family, " ", "_"))
	return platform{vendor: name, product: name, namespace: name}
}

// productCPE binds the operating system release a package was published for (e.g.
// cpe:2.3:o:fedoraproject:fedora:31:*:*:*:*:*:*:*).
func productCPE(family, version string) (string, error) {
	p := platformFor(family)
	return bindCPE("o", p.vendor, p.product, version)
}

// packageCPE binds the package itself under the vendor of the distribution that built it.
func packageCPE(family string, pkg store.Package) (string, error) {
	p := platformFor(family)
	return bindCPE("a", p.vendor, pkg.Name, pkg.Version)
}

func bindCPE(part, vendor, product, version string) (string, error) {
	attrs := wfn.Attributes{
		Part:      part,
		Update:    wfn.Any,
		Edition:   wfn.Any,
		SWEdition: wfn.Any,
		TargetSW:  wfn.Any,
		TargetHW:  wfn.Any,
		Other:     wfn.Any,
		Language:  wfn.Any,
	}

	var err error
	if attrs.Vendor, err = wfnValue(vendor); err != nil {
		return "", err
	}
	if attrs.Product, err = wfnValue(product); err != nil {
		return "", err
	}
	if attrs.Version, err = wfnValue(version); err != nil {
		return "", err
	}
	return attrs.BindToFmtString(), nil
}

func wfnValue(v string) (string, error) {
	if v == "" {
		return wfn.Any, nil
	}
	out, err := wfn.WFNize(v)
	if err != nil {
		return "", fmt.Errorf("unable to bind %q to a cpe: %w", v, err)
	}
	return out, nil
}

// packageURL identifies the package build, e.g. pkg:rpm/fedora/bash@5.0-1.fc31.
func packageURL(family string, pkg store.Package) string {
	release := pkg.ReleaseNum
	if pkg.ReleaseProduct != "" {
		release += "." + pkg.ReleaseProduct
	}
	version := pkg.Version
	if release != "" {
		version += "-" + release
	}
	return packageurl.NewPackageURL(packageurl.TypeRPM, platformFor(family).namespace, pkg.Name, version, nil, "").ToString()
}
