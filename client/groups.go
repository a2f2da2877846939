package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// ListGroups returns one page of data groups, optionally limited.
func (c *Client) ListGroups(ctx context.Context, limit int) ([]Group, error) {
	u, err := c.buildURL("groups")
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var list GroupList
	if err := c.getJSON(ctx, u, query, &list); err != nil {
		c.log.Error().Err(err).Msg("Failed to list groups")
		return nil, err
	}
	c.log.Info().Int("count", len(list.Groups)).Msg("Groups listed")
	return list.Groups, nil
}

// ListAllGroups follows pagination links until the catalog is exhausted.
func (c *Client) ListAllGroups(ctx context.Context) ([]Group, error) {
	nextURL, err := c.buildURL("groups")
	if err != nil {
		return nil, err
	}
	var all []Group
	page := 0
	for nextURL != "" {
		page++
		var list GroupList
		if err := c.getJSON(ctx, nextURL, nil, &list); err != nil {
			c.log.Error().Err(err).Int("page", page).Msg("Failed to fetch groups page")
			return nil, err
		}
		all = append(all, list.Groups...)
		nextURL = list.NextLink()
		if nextURL != "" && !strings.HasPrefix(nextURL, "http://") && !strings.HasPrefix(nextURL, "https://") {
			nextURL, err = c.buildURL(nextURL)
			if err != nil {
				return nil, err
			}
		}
	}
	c.log.Info().Int("totalGroups", len(all)).Int("pages", page).Msg("All groups fetched")
	return all, nil
}

// SearchGroups filters the group catalog by keywords.
func (c *Client) SearchGroups(ctx context.Context, keywords string, limit, offset int) ([]Group, error) {
	u, err := c.buildURL("groups/search")
	if err != nil {
		return nil, err
	}
	query := url.Values{"keywords": {keywords}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	var list GroupList
	if err := c.getJSON(ctx, u, query, &list); err != nil {
		c.log.Error().Err(err).Str("keywords", keywords).Msg("Failed to search groups")
		return nil, err
	}
	c.log.Info().Str("keywords", keywords).Int("count", len(list.Groups)).Msg("Groups searched")
	return list.Groups, nil
}
