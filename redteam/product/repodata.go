package product

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/resource"
)

type repodataPackage struct {
	Type    string `xml:"type,attr"`
	Name    string `xml:"name"`
	Arch    string `xml:"arch"`
	Version struct {
		Epoch   string `xml:"epoch,attr"`
		Version string `xml:"ver,attr"`
		Release string `xml:"rel,attr"`
	} `xml:"version"`
}

// ReadRepodata lists the rpm packages of a repository "primary" metadata document. Entries of any other type are
// ignored.
func ReadRepodata(r io.Reader) ([]RPM, error) {
	var rpms []RPM
	decoder := xml.NewDecoder(r)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &redteamerr.MalformedInputError{Field: "repodata", Err: err}
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "package" {
			continue
		}

		var p repodataPackage
		if err := decoder.DecodeElement(&p, &start); err != nil {
			return nil, &redteamerr.MalformedInputError{Field: "package", Err: err}
		}
		if p.Type != "rpm" {
			continue
		}

		epoch := p.Version.Epoch
		if epoch == "0" {
			epoch = ""
		}
		rpms = append(rpms, RPM{
			Name:    strings.TrimSpace(p.Name),
			Epoch:   epoch,
			Version: p.Version.Version,
			Release: p.Version.Release,
			Arch:    strings.TrimSpace(p.Arch),
		})
	}
	return rpms, nil
}

// primaryPattern finds the (possibly checksum-prefixed) primary metadata file within a repository tree.
const primaryPattern = "**/*primary.xml*"

// Repodata fetches and reads the repository metadata at the given location. The location is either the metadata
// document itself or a local repository directory holding it. Compressed metadata is inflated by the resource layer.
func Repodata(ctx context.Context, location string, cfg resource.Config) ([]RPM, error) {
	conn, err := resource.NewConnector(location, cfg)
	if err != nil {
		return nil, err
	}
	if dir, ok := conn.(*resource.DirectoryConnector); ok {
		matches, err := dir.Glob(primaryPattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no repository metadata found under %q", location)
		}
		location = matches[0]
	}

	r, err := resource.New(location, cfg)
	if err != nil {
		return nil, err
	}
	payload, err := r.Read(ctx)
	if err != nil {
		return nil, err
	}

	rpms, err := ReadRepodata(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("unable to read repository metadata %q: %w", location, err)
	}
	log.WithFields("location", location, "packages", len(rpms)).Debug("read repository metadata")
	return rpms, nil
}

// Filter keeps the packages whose full name contains the given text. An empty text keeps everything.
func Filter(rpms []RPM, text string) []RPM {
	if text == "" {
		return rpms
	}
	var out []RPM
	for _, r := range rpms {
		if strings.Contains(r.FullName(), text) {
			out = append(out, r)
		}
	}
	return out
}
