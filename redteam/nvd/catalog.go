package nvd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kevensen/frtsdk/redteam/store"
)

const (
	DefaultFeedBase = "https://static.nvd.nist.gov/feeds/json/cve/1.0/"
	firstFeedYear   = 2002

	RecentStream   = "recent"
	ModifiedStream = "modified"
)

// Stream is one of the published feed files along with its metadata file.
type Stream struct {
	Name string
	URL  string
	Meta string
}

// Section is the source section a stream is registered under.
func (s Stream) Section() string {
	return fmt.Sprintf("source:%s:cve:%s", store.NVDSourceType, s.Name)
}

// Catalog enumerates the published feed streams.
type Catalog struct {
	Base      string
	FirstYear int
	Now       func() time.Time
}

func NewCatalog() Catalog {
	return Catalog{
		Base:      DefaultFeedBase,
		FirstYear: firstFeedYear,
		Now:       time.Now,
	}
}

func (c Catalog) Stream(name string) Stream {
	prefix := c.Base + "nvdcve-1.0-" + name
	return Stream{
		Name: name,
		URL:  prefix + ".json.gz",
		Meta: prefix + ".meta",
	}
}

// Years returns one stream per year from the first published year through the current year.
func (c Catalog) Years() []Stream {
	var streams []Stream
	for year := c.FirstYear; year <= c.Now().Year(); year++ {
		streams = append(streams, c.Stream(strconv.Itoa(year)))
	}
	return streams
}

// Streams selects every yearly stream when all is set (otherwise only the recent stream), adding the modified
// stream when update is set.
func (c Catalog) Streams(all, update bool) []Stream {
	var streams []Stream
	if all {
		streams = c.Years()
	} else {
		streams = append(streams, c.Stream(RecentStream))
	}
	if update {
		streams = append(streams, c.Stream(ModifiedStream))
	}
	return streams
}

func (c Catalog) URLs(all, update bool) []string {
	var urls []string
	for _, s := range c.Streams(all, update) {
		urls = append(urls, s.URL)
	}
	return urls
}
