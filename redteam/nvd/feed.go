package nvd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/facebookincubator/nvdtools/cvefeed/nvd/schema"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

// TimeLayout is the layout of the published and last-modified timestamps in the feed.
const TimeLayout = "2006-01-02T15:04Z"

// DecodeFeed parses a JSON 1.0 vulnerability feed.
func DecodeFeed(payload []byte) (*schema.NVDCVEFeedJSON10, error) {
	var feed schema.NVDCVEFeedJSON10
	if err := json.Unmarshal(payload, &feed); err != nil {
		return nil, fmt.Errorf("unable to decode vulnerability feed: %w", err)
	}
	return &feed, nil
}

// ItemID returns the vulnerability id of a feed item, or an empty string when the item does not carry one.
func ItemID(item *schema.NVDCVEFeedJSON10DefCVEItem) string {
	if item == nil || item.CVE == nil || item.CVE.CVEDataMeta == nil {
		return ""
	}
	return strings.TrimSpace(item.CVE.CVEDataMeta.ID)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(TimeLayout, strings.TrimSpace(value))
}

// toCveItem converts a feed item into its stored form, keeping the cve, configurations and impact blocks as JSON.
func toCveItem(item *schema.NVDCVEFeedJSON10DefCVEItem) (store.CveItem, error) {
	id := ItemID(item)
	if id == "" {
		return store.CveItem{}, &redteamerr.MalformedInputError{Field: "cve.CVE_data_meta.ID"}
	}

	lastModified, err := parseTime(item.LastModifiedDate)
	if err != nil {
		return store.CveItem{}, &redteamerr.MalformedInputError{ID: id, Field: "lastModifiedDate", Err: err}
	}

	out := store.CveItem{
		CVEID:            id,
		LastModifiedDate: lastModified,
	}

	if item.PublishedDate != "" {
		published, err := parseTime(item.PublishedDate)
		if err != nil {
			return store.CveItem{}, &redteamerr.MalformedInputError{ID: id, Field: "publishedDate", Err: err}
		}
		out.PublishedDate = published
	}

	if out.CVE, err = encodeBlock(item.CVE); err != nil {
		return store.CveItem{}, &redteamerr.MalformedInputError{ID: id, Field: "cve", Err: err}
	}
	if item.Configurations != nil {
		if out.Configurations, err = encodeBlock(item.Configurations); err != nil {
			return store.CveItem{}, &redteamerr.MalformedInputError{ID: id, Field: "configurations", Err: err}
		}
	}
	if item.Impact != nil {
		if out.Impact, err = encodeBlock(item.Impact); err != nil {
			return store.CveItem{}, &redteamerr.MalformedInputError{ID: id, Field: "impact", Err: err}
		}
	}

	return out, nil
}

func encodeBlock(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
