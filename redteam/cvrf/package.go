package cvrf

import (
	"sort"

	"github.com/scylladb/go-set/strset"

	"github.com/kevensen/frtsdk/redteam/store"
)

// AdvisoriesForPackage returns the ids of the advisory documents that carry a package with the given name. Versions
// are not compared.
func AdvisoriesForPackage(s store.CVRFStoreReader, name string) ([]string, error) {
	ids, err := s.AdvisoryIDs()
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, id := range ids {
		c, err := s.GetCVRF(id)
		if err != nil {
			return nil, err
		}
		if c.HasPackage(name) {
			matches = append(matches, id)
		}
	}
	return matches, nil
}

// CVEsForPackage returns the sorted vulnerability ids of every advisory document carrying the named package.
func CVEsForPackage(s store.CVRFStoreReader, name string) ([]string, error) {
	ids, err := AdvisoriesForPackage(s, name)
	if err != nil {
		return nil, err
	}

	cves := strset.New()
	for _, id := range ids {
		c, err := s.GetCVRF(id)
		if err != nil {
			return nil, err
		}
		cves.Add(c.CVEs...)
	}

	out := cves.List()
	sort.Strings(out)
	return out, nil
}
