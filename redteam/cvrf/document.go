package cvrf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/scylladb/go-set/strset"

	"github.com/kevensen/frtsdk/redteam/nvd"
	"github.com/kevensen/frtsdk/redteam/store"
)

const (
	defaultComponentOf = "Default Component Of"
	productVersionType = "Product Version"
	productNameType    = "Product Name"
)

// DocumentStore is what document assembly joins against: the advisory documents and the vulnerability records
// their references are derived from.
type DocumentStore interface {
	store.CVRFStoreReader
	store.CveItemStoreReader
}

type Document struct {
	AdvisoryID         string              `json:"advisory_id"`
	Title              string              `json:"document_title,omitempty"`
	Version            string              `json:"version"`
	RevisionHistory    []Revision          `json:"revision_history"`
	InitialReleaseDate time.Time           `json:"initial_release_date"`
	CurrentReleaseDate time.Time           `json:"current_release_date"`
	Vulnerabilities    []string            `json:"vulnerabilities"`
	DocumentReferences []DocumentReference `json:"document_references"`
	ProductTree        ProductTree         `json:"product_tree"`
}

type Revision struct {
	Number      string    `json:"number"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

type DocumentReference struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

type ProductTree struct {
	Relationships []Relationship `json:"relationship"`
	Branches      []Branch       `json:"branch"`
}

type Relationship struct {
	FullProductName           string `json:"full_product_name"`
	ProductReference          string `json:"product_reference"`
	RelationType              string `json:"relation_type"`
	RelatesToProductReference string `json:"relates_to_product_reference"`
}

type Branch struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	FullProductName string `json:"full_product_name"`
	ProductID       string `json:"product_id,omitempty"`
	CPE             string `json:"cpe,omitempty"`
}

// Assemble renders the stored advisory document. References are joined against the vulnerability records present
// at the time of the call, so a record synced after aggregation still shows up here.
func Assemble(ctx context.Context, s DocumentStore, advisoryID string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := s.GetCVRF(advisoryID)
	if err != nil {
		return nil, err
	}

	refs, err := nvd.ReferencesFor(s, c.CVEs)
	if err != nil {
		return nil, fmt.Errorf("unable to derive references for %q: %w", advisoryID, err)
	}

	tree, err := productTree(*c)
	if err != nil {
		return nil, fmt.Errorf("unable to build product tree for %q: %w", advisoryID, err)
	}

	return &Document{
		AdvisoryID:         c.AdvisoryID,
		Title:              c.Summary,
		Version:            strconv.Itoa(c.Revision),
		RevisionHistory:    revisionHistory(*c),
		InitialReleaseDate: c.InitialReleaseDate.UTC(),
		CurrentReleaseDate: c.RevisionDate.UTC(),
		Vulnerabilities:    append([]string{}, c.CVEs...),
		DocumentReferences: documentReferences(refs, c.Bugzillas),
		ProductTree:        *tree,
	}, nil
}

// revisionHistory lists every revision up to the current one. Only the date of the latest revision is retained by
// the store; earlier revisions are dated at the initial release.
func revisionHistory(c store.CVRF) []Revision {
	history := make([]Revision, 0, c.Revision)
	for i := 1; i <= c.Revision; i++ {
		r := Revision{
			Number:      strconv.Itoa(i),
			Date:        c.InitialReleaseDate.UTC(),
			Description: "Revised with newly announced facts",
		}
		if i == 1 {
			r.Description = "Initial release"
		}
		if i == c.Revision {
			r.Date = c.RevisionDate.UTC()
		}
		history = append(history, r)
	}
	return history
}

// documentReferences lists the vulnerability record references followed by the announced bugzilla trackers.
func documentReferences(refs []nvd.Reference, bugs []store.Bugzilla) []DocumentReference {
	seen := strset.New()
	out := make([]DocumentReference, 0, len(refs)+len(bugs))
	add := func(url, description string) {
		if seen.Has(url) {
			return
		}
		seen.Add(url)
		out = append(out, DocumentReference{URL: url, Description: description})
	}

	for _, r := range refs {
		add(r.URL, "Reference for "+r.CVEID)
	}
	for _, b := range bugs {
		add(b.URL, "Bug #"+b.ID+" - "+b.Description)
	}
	return out
}

func productTree(c store.CVRF) (*ProductTree, error) {
	family := store.ProductFamily(c.AdvisoryID)
	tree := &ProductTree{
		Relationships: []Relationship{},
		Branches:      []Branch{},
	}

	for _, r := range c.Relationships {
		rpm := r.Package.FullName()
		tree.Relationships = append(tree.Relationships, Relationship{
			FullProductName:           rpm + " as a component of " + fullProductName(family, r.ProductName),
			ProductReference:          rpm,
			RelationType:              defaultComponentOf,
			RelatesToProductReference: productReference(r.ProductName),
		})
	}

	for _, p := range c.Packages {
		cpe, err := packageCPE(family, p)
		if err != nil {
			return nil, err
		}
		rpm := p.FullName()
		tree.Branches = append(tree.Branches, Branch{
			Name:            rpm,
			Type:            productVersionType,
			FullProductName: rpm + ".src.rpm",
			ProductID:       packageURL(family, p),
			CPE:             cpe,
		})
	}

	for _, p := range c.ProductNames {
		cpe, err := productCPE(family, p.VersionNumber())
		if err != nil {
			return nil, err
		}
		name := fullProductName(family, p)
		tree.Branches = append(tree.Branches, Branch{
			Name:            name,
			Type:            productNameType,
			FullProductName: name,
			ProductID:       productReference(p),
			CPE:             cpe,
		})
	}

	return tree, nil
}

func fullProductName(family string, p store.ProductName) string {
	return family + " (v. " + p.VersionNumber() + ")"
}

// productReference is the compact id of a product release, e.g. "31Fedora".
func productReference(p store.ProductName) string {
	return p.VersionNumber() + p.SimpleName()
}
