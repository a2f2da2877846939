package client

// Group describes a catalog data group.
type Group struct {
	GroupID     string `json:"group-id"`
	GroupName   string `json:"group-name"`
	Description string `json:"description,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Premium     bool   `json:"premium,omitempty"`
}

// GroupList is one page of groups with pagination links.
type GroupList struct {
	Items  int                 `json:"items,omitempty"`
	Groups []Group             `json:"groups"`
	Links  []map[string]string `json:"links,omitempty"`
}

// NextLink returns the next-page link, or "" on the last page.
func (g GroupList) NextLink() string {
	for _, link := range g.Links {
		if next, ok := link["next"]; ok && next != "" {
			return next
		}
	}
	return ""
}

// FileInfo describes one file group within a data group.
type FileInfo struct {
	FileGroupID   string   `json:"file-group-id"`
	FileType      string   `json:"file-type,omitempty"`
	Description   string   `json:"description,omitempty"`
	FileDatetimes []string `json:"file-datetimes,omitempty"`
}

type FileList struct {
	GroupID      string     `json:"group-id"`
	FileGroupIDs []FileInfo `json:"file-group-ids"`
	FileCount    int        `json:"file-count"`
}

// AvailabilityInfo reports whether a file exists for a given datetime.
type AvailabilityInfo struct {
	FileDatetime   string `json:"file-datetime"`
	IsAvailable    bool   `json:"is-available"`
	FileName       string `json:"file-name,omitempty"`
	FirstCreatedOn string `json:"first-created-on,omitempty"`
	LastModified   string `json:"last-modified,omitempty"`
}

type availabilityResponse struct {
	Availability []AvailabilityInfo `json:"availability"`
}

// AvailableFile is one entry from the available-files listing.
type AvailableFile struct {
	FileGroupID  string `json:"file-group-id"`
	FileDatetime string `json:"file-datetime"`
	IsAvailable  bool   `json:"is-available"`
	FileName     string `json:"file-name,omitempty"`
}

type availableFilesResponse struct {
	AvailableFiles []AvailableFile `json:"available-files"`
}

type Instrument struct {
	InstrumentID   string `json:"instrument-id"`
	InstrumentName string `json:"instrument-name,omitempty"`
}

type InstrumentsResponse struct {
	Items       int                 `json:"items,omitempty"`
	Instruments []Instrument        `json:"instruments"`
	Links       []map[string]string `json:"links,omitempty"`
}

// TimeSeriesAttribute holds one attribute's series as [date, value] pairs.
// Values are passed through untyped; the vendor mixes numerics and nulls.
type TimeSeriesAttribute struct {
	AttributeID string  `json:"attribute-id"`
	Expression  string  `json:"expression,omitempty"`
	Label       string  `json:"label,omitempty"`
	TimeSeries  [][]any `json:"time-series"`
}

type TimeSeriesInstrument struct {
	InstrumentID   string                `json:"instrument-id,omitempty"`
	InstrumentName string                `json:"instrument-name,omitempty"`
	Attributes     []TimeSeriesAttribute `json:"attributes"`
}

type TimeSeriesResponse struct {
	Items       int                    `json:"items,omitempty"`
	Instruments []TimeSeriesInstrument `json:"instruments"`
	Links       []map[string]string    `json:"links,omitempty"`
}

type GroupFilter struct {
	FilterName  string `json:"filter-name"`
	Description string `json:"description,omitempty"`
}

type FiltersResponse struct {
	Items   int                 `json:"items,omitempty"`
	Filters []GroupFilter       `json:"filters"`
	Links   []map[string]string `json:"links,omitempty"`
}

type InstrumentAttributes struct {
	InstrumentID   string                `json:"instrument-id"`
	InstrumentName string                `json:"instrument-name,omitempty"`
	Attributes     []TimeSeriesAttribute `json:"attributes"`
}

type AttributesResponse struct {
	Items       int                    `json:"items,omitempty"`
	Instruments []InstrumentAttributes `json:"instruments"`
	Links       []map[string]string    `json:"links,omitempty"`
}

type GridDataResponse struct {
	Expr   string           `json:"expr,omitempty"`
	GridID string           `json:"gridId,omitempty"`
	Date   string           `json:"date,omitempty"`
	Series []map[string]any `json:"series,omitempty"`
}
