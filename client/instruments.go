package client

import (
	"context"
	"net/url"
)

// ListInstruments returns the instruments and identifiers of a dataset.
func (c *Client) ListInstruments(ctx context.Context, groupID, instrumentID, page string) (*InstrumentsResponse, error) {
	u, err := c.buildURL("group/instruments")
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
	var resp InstrumentsResponse
	if err := c.getJSON(ctx, u, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchInstruments narrows a dataset's instruments by keywords.
func (c *Client) SearchInstruments(ctx context.Context, groupID, keywords, page string) (*InstrumentsResponse, error) {
	u, err := c.buildURL("group/instruments/search")
	if err != nil {
		return nil, err
	}
	query := url.Values{"group-id": {groupID}, "keywords": {keywords}}
	if page != "" {
		query.Set("page", page)
	}
	var resp InstrumentsResponse
	if err := c.getJSON(ctx, u, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
