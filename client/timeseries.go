package client

import (
	"context"
	"net/url"
	"strings"
)

// TimeSeriesOptions carries the retrieval conventions shared by the
// time-series endpoints. Zero values fall back to the API defaults.
type TimeSeriesOptions struct {
	Data         string // REFERENCE_DATA, NO_REFERENCE_DATA, ALL
	Format       string // JSON only
	StartDate    string // YYYYMMDD, TODAY, TODAY-Nx
	EndDate      string
	Calendar     string
	Frequency    string
	Conversion   string
	NanTreatment string
	Page         string
}

const maxInstrumentsPerRequest = 20

func (o TimeSeriesOptions) apply(query url.Values) {
	setOrDefault := func(key, value, fallback string) {
		if value == "" {
			value = fallback
		}
		query.Set(key, value)
	}
	setOrDefault("data", o.Data, "REFERENCE_DATA")
	setOrDefault("format", o.Format, "JSON")
	setOrDefault("calendar", o.Calendar, "CAL_USBANK")
	setOrDefault("frequency", o.Frequency, "FREQ_DAY")
	setOrDefault("conversion", o.Conversion, "CONV_LASTBUS_ABS")
	setOrDefault("nan-treatment", o.NanTreatment, "NA_NOTHING")
	if o.StartDate != "" {
		query.Set("start-date", o.StartDate)
	}
	if o.EndDate != "" {
		query.Set("end-date", o.EndDate)
	}
	if o.Page != "" {
		query.Set("page", o.Page)
	}
}

// GetInstrumentTimeSeries retrieves series for an explicit instrument list.
func (c *Client) GetInstrumentTimeSeries(ctx context.Context, instruments, attributes []string, opts TimeSeriesOptions) (*TimeSeriesResponse, error) {
	if len(instruments) == 0 || len(instruments) > maxInstrumentsPerRequest {
		return nil, &ValidationError{Message: "instruments list must contain between 1 and 20 entries"}
	}
	if len(attributes) == 0 {
		return nil, &ValidationError{Message: "attributes list must not be empty"}
	}
	u, err := c.buildURL("instruments/time-series")
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	for _, id := range instruments {
		query.Add("instruments", id)
	}
	for _, attr := range attributes {
		query.Add("attributes", attr)
	}
	opts.apply(query)
	var resp TimeSeriesResponse
	if err := c.getJSON(ctx, u, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetExpressionsTimeSeries retrieves series for traditional DataQuery
// expressions.
func (c *Client) GetExpressionsTimeSeries(ctx context.Context, expressions []string, opts TimeSeriesOptions) (*TimeSeriesResponse, error) {
	if len(expressions) == 0 {
		return nil, &ValidationError{Message: "expressions list must not be empty"}
	}
	u, err := c.buildURL("expressions/time-series")
	if err != nil {
		return nil, err
	}
	query := url.Values{"expressions": {strings.Join(expressions, ",")}}
	opts.apply(query)
	var resp TimeSeriesResponse
	if err := c.getJSON(ctx, u, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetGroupTimeSeries retrieves series across a dataset, optionally filtered
// (e.g. "currency(USD)").
func (c *Client) GetGroupTimeSeries(ctx context.Context, groupID string, attributes []string, filter string, opts TimeSeriesOptions) (*TimeSeriesResponse, error) {
	if len(attributes) == 0 {
		return nil, &ValidationError{Message: "attributes list must not be empty"}
	}
	u, err := c.buildURL("group/time-series")
	if err != nil {
		return nil, err
	}
	query := url.Values{"group-id": {groupID}}
	for _, attr := range attributes {
		query.Add("attributes", attr)
	}
	if filter != "" {
		query.Set("filter", filter)
	}
	opts.apply(query)
	var resp TimeSeriesResponse
	if err := c.getJSON(ctx, u, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetGroupFilters lists the filter dimensions available for a dataset.
func (c *Client) GetGroupFilters(ctx context.Context, groupID, page string) (*FiltersResponse, error) {
	u, err := c.buildURL("group/filters")
	if err != nil {
		return nil, err
	}
	query := url.Values{"group-id": {groupID}}
	if page != "" {
		query.Set("page", page)
	}
	var resp FiltersResponse
	if err := c.getJSON(ctx, u, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetGroupAttributes lists the analytic attributes per instrument.
func (c *Client) GetGroupAttributes(ctx context.Context, groupID, instrumentID, page string) (*AttributesResponse, error) {
	u, err := c.buildURL("group/attributes")
	if err != nil {
		return nil, err
	}
	query := url.Values{"group-id": {groupID}}
	if instrumentID != "" {
		query.Set("instrument-id", instrumentID)
	}
	if page != "" {
		query.Set("page", page)
	}
	var resp AttributesResponse
	if err := c.getJSON(ctx, u, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetGridData retrieves grid data for an expression or grid id; exactly one
// of the two must be given.
func (c *Client) GetGridData(ctx context.Context, expr, gridID, date string) (*GridDataResponse, error) {
	if expr != "" && gridID != "" {
		return nil, &ValidationError{Message: "cannot specify both expr and gridId"}
	}
	if expr == "" && gridID == "" {
		return nil, &ValidationError{Message: "must specify either expr or gridId"}
	}
	u, err := c.buildURL("grid-data")
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	if expr != "" {
		query.Set("expr", expr)
	}
	if gridID != "" {
		query.Set("gridId", gridID)
	}
	if date != "" {
		query.Set("date", date)
	}
	var resp GridDataResponse
	if err := c.getJSON(ctx, u, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
