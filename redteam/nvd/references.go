package nvd

import (
	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

// Reference is an external link about a vulnerability.
type Reference struct {
	CVEID string
	URL   string
}

// ReferencesFor joins the given vulnerability ids against the records currently stored. Ids without a stored record
// contribute nothing, since feeds and mailing lists are synced independently.
func ReferencesFor(s store.CveItemStoreReader, ids []string) ([]Reference, error) {
	var refs []Reference
	for _, id := range ids {
		item, err := s.GetCveItem(id)
		if redteamerr.IsNotFound(err) {
			log.WithFields("id", id).Trace("no stored record for vulnerability; no references")
			continue
		}
		if err != nil {
			return nil, err
		}

		details, err := DetailsFor(*item)
		if err != nil {
			log.WithFields("id", id).Warnf("unable to derive references: %v", err)
			continue
		}
		for _, u := range details.References {
			refs = append(refs, Reference{CVEID: id, URL: u})
		}
	}
	return refs, nil
}
