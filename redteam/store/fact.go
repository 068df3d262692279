package store

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/hashstructure/v2"
)

// FactKind names one of the accumulated sets on an advisory document.
type FactKind string

const (
	CVEFactKind          FactKind = "cve"
	ProductNameFactKind  FactKind = "product_name"
	PackageFactKind      FactKind = "package"
	RelationshipFactKind FactKind = "relationship"
	BugzillaFactKind     FactKind = "bugzilla"
	MessageFactKind      FactKind = "message"
)

// Revises reports whether a newly added fact of this kind warrants a new document revision. Message ids are
// bookkeeping only.
func (k FactKind) Revises() bool {
	return k != MessageFactKind
}

// Fact is a single member of one of the advisory document sets. Two facts with the same kind and key are the same
// set member.
type Fact struct {
	Kind  FactKind
	Key   string
	Value json.RawMessage
}

func CVEFact(id string) Fact {
	return stringFact(CVEFactKind, id)
}

func MessageFact(id string) Fact {
	return stringFact(MessageFactKind, id)
}

func ProductNameFact(p ProductName) (Fact, error) {
	return structFact(ProductNameFactKind, p)
}

func PackageFact(p Package) (Fact, error) {
	return structFact(PackageFactKind, p)
}

func RelationshipFact(r ProductRelationship) (Fact, error) {
	return structFact(RelationshipFactKind, r)
}

func BugzillaFact(b Bugzilla) (Fact, error) {
	return structFact(BugzillaFactKind, b)
}

func stringFact(kind FactKind, value string) Fact {
	// a json string literal cannot fail to marshal
	raw, _ := json.Marshal(value)
	return Fact{Kind: kind, Key: value, Value: raw}
}

func structFact(kind FactKind, value interface{}) (Fact, error) {
	hash, err := hashstructure.Hash(value, hashstructure.FormatV2, nil)
	if err != nil {
		return Fact{}, fmt.Errorf("unable to hash %s fact: %w", kind, err)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return Fact{}, fmt.Errorf("unable to encode %s fact: %w", kind, err)
	}
	return Fact{Kind: kind, Key: fmt.Sprintf("%016x", hash), Value: raw}, nil
}

// FactsFor derives every fact an advisory message contributes to its advisory document.
func FactsFor(m AdvisoryMessage) ([]Fact, error) {
	var facts []Fact
	for _, c := range m.CVEs {
		facts = append(facts, CVEFact(c))
	}

	productName, err := ProductNameFact(m.ProductNameEntry())
	if err != nil {
		return nil, err
	}
	pkg, err := PackageFact(m.Package())
	if err != nil {
		return nil, err
	}
	relationship, err := RelationshipFact(m.Relationship())
	if err != nil {
		return nil, err
	}

	facts = append(facts, productName, pkg, relationship)

	for _, b := range m.Bugzillas {
		f, err := BugzillaFact(b)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}

	return append(facts, MessageFact(m.MessageID)), nil
}

// ApplyFacts decodes the given facts into the matching sets on the document.
func ApplyFacts(c *CVRF, facts []Fact) error {
	for _, f := range facts {
		switch f.Kind {
		case CVEFactKind:
			var v string
			if err := json.Unmarshal(f.Value, &v); err != nil {
				return fmt.Errorf("unable to decode cve fact for %q: %w", c.AdvisoryID, err)
			}
			c.CVEs = append(c.CVEs, v)
		case MessageFactKind:
			var v string
			if err := json.Unmarshal(f.Value, &v); err != nil {
				return fmt.Errorf("unable to decode message fact for %q: %w", c.AdvisoryID, err)
			}
			c.MessageIDs = append(c.MessageIDs, v)
		case ProductNameFactKind:
			var v ProductName
			if err := json.Unmarshal(f.Value, &v); err != nil {
				return fmt.Errorf("unable to decode product name fact for %q: %w", c.AdvisoryID, err)
			}
			c.ProductNames = append(c.ProductNames, v)
		case PackageFactKind:
			var v Package
			if err := json.Unmarshal(f.Value, &v); err != nil {
				return fmt.Errorf("unable to decode package fact for %q: %w", c.AdvisoryID, err)
			}
			c.Packages = append(c.Packages, v)
		case RelationshipFactKind:
			var v ProductRelationship
			if err := json.Unmarshal(f.Value, &v); err != nil {
				return fmt.Errorf("unable to decode relationship fact for %q: %w", c.AdvisoryID, err)
			}
			c.Relationships = append(c.Relationships, v)
		case BugzillaFactKind:
			var v Bugzilla
			if err := json.Unmarshal(f.Value, &v); err != nil {
				return fmt.Errorf("unable to decode bugzilla fact for %q: %w", c.AdvisoryID, err)
			}
			c.Bugzillas = append(c.Bugzillas, v)
		default:
			return fmt.Errorf("unknown fact kind %q", f.Kind)
		}
	}
	return nil
}
