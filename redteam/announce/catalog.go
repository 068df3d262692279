package announce

import (
	"fmt"
	"time"

	"github.com/kevensen/frtsdk/redteam/store"
)

const (
	FedoraList = "fedora"
	CentOSList = "centos"

	fedoraArchiveFormat = "https://lists.fedoraproject.org/archives/list/package-announce@lists.fedoraproject.org/export/announce@lists.fedoraproject.org-%02d-%d.mbox.gz?start=%s&end=%s"
	centosArchiveFormat = "https://lists.centos.org/pipermail/centos-announce/%d-%s.txt.gz"
)

// Window is a span of one month, [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Archive is the monthly export of a mailing list.
type Archive struct {
	List   string
	Window Window
	URL    string
}

// Section is the source section an archive is registered under.
func (a Archive) Section() string {
	return fmt.Sprintf("source:%s:%s:%s", store.AnnounceSourceType, a.List, a.Window.Start.Format("2006-01"))
}

// Catalog enumerates the monthly mailing list archives.
type Catalog struct {
	// FirstArchive is where a full listing starts.
	FirstArchive time.Time
	Now          func() time.Time
}

func NewCatalog() Catalog {
	return Catalog{
		FirstArchive: time.Date(2006, time.May, 1, 0, 0, 0, 0, time.UTC),
		Now:          time.Now,
	}
}

func (c Catalog) bounds(all bool) (time.Time, time.Time) {
	now := c.Now().UTC()
	start := now.AddDate(0, 0, -30)
	if all {
		start = c.FirstArchive
	}
	return dateOf(start), addMonths(dateOf(now), 1)
}

func (c Catalog) Fedora(all bool) []Archive {
	start, stop := c.bounds(all)
	var archives []Archive
	for _, w := range Months(start, stop) {
		archives = append(archives, Archive{
			List:   FedoraList,
			Window: w,
			URL: fmt.Sprintf(fedoraArchiveFormat, int(w.Start.Month()), w.Start.Year(),
				w.Start.Format(advisoryDateLayout), w.End.Format(advisoryDateLayout)),
		})
	}
	return archives
}

func (c Catalog) CentOS(all bool) []Archive {
	start, stop := c.bounds(all)
	var archives []Archive
	for _, w := range Months(start, stop) {
		archives = append(archives, Archive{
			List:   CentOSList,
			Window: w,
			URL:    fmt.Sprintf(centosArchiveFormat, w.Start.Year(), w.Start.Month().String()),
		})
	}
	return archives
}

// Months splits [start, stop] into consecutive one month windows, keeping only windows that end by stop.
func Months(start, stop time.Time) []Window {
	var windows []Window
	for end := addMonths(start, 1); !end.After(stop); end = addMonths(start, 1) {
		windows = append(windows, Window{Start: start, End: end})
		start = end
	}
	return windows
}

// addMonths moves forward by whole months, clamping the day to the length of the target month.
func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
