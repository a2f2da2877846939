package client

import (
	"context"
	"net/url"

	"github.com/dataquery-sdk/dataquery/download"
	"github.com/dataquery-sdk/dataquery/utils"
)

// ListFiles returns all files in a group, optionally filtered to one
// file-group id.
func (c *Client) ListFiles(ctx context.Context, groupID, fileGroupID string) (*FileList, error) {
	query := url.Values{"group-id": {groupID}}
	if fileGroupID != "" {
		query.Set("file-group-id", fileGroupID)
	}
	var list FileList
	if err := c.getJSON(ctx, c.buildFilesURL("group/files"), query, &list); err != nil {
		c.log.Error().Err(err).Str("groupId", groupID).Msg("Failed to list files")
		return nil, err
	}
	c.log.Info().Str("groupId", groupID).Int("count", list.FileCount).Msg("Files listed")
	return &list, nil
}

// GetFileInfo returns metadata for one file group.
func (c *Client) GetFileInfo(ctx context.Context, groupID, fileGroupID string) (*FileInfo, error) {
	list, err := c.ListFiles(ctx, groupID, fileGroupID)
	if err != nil {
		return nil, err
	}
	if len(list.FileGroupIDs) == 0 {
		return nil, &NotFoundError{Resource: "file", ID: fileGroupID}
	}
	return &list.FileGroupIDs[0], nil
}

// ListAvailableFiles lists files available for download in a date range.
func (c *Client) ListAvailableFiles(ctx context.Context, groupID, fileGroupID, startDate, endDate string) ([]AvailableFile, error) {
	query := url.Values{"group-id": {groupID}}
	if fileGroupID != "" {
		query.Set("file-group-id", fileGroupID)
	}
	if startDate != "" {
		query.Set("start-date", startDate)
	}
	if endDate != "" {
		query.Set("end-date", endDate)
	}
	var resp availableFilesResponse
	if err := c.getJSON(ctx, c.buildFilesURL("group/files/available-files"), query, &resp); err != nil {
		c.log.Error().Err(err).Str("groupId", groupID).Msg("Failed to list available files")
		return nil, err
	}
	c.log.Info().Str("groupId", groupID).Int("count", len(resp.AvailableFiles)).Msg("Available files listed")
	return resp.AvailableFiles, nil
}

// CheckAvailability reports whether a file exists for a specific datetime.
// The entry matching the requested datetime wins; otherwise the first entry
// is returned, or a not-available stub when the server sends none.
func (c *Client) CheckAvailability(ctx context.Context, fileGroupID, fileDatetime string) (*AvailabilityInfo, error) {
	if err := utils.ValidateFileDatetime(fileDatetime); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	query := url.Values{
		"file-group-id": {fileGroupID},
		"file-datetime": {fileDatetime},
	}
	var resp availabilityResponse
	if err := c.getJSON(ctx, c.buildFilesURL("group/file/availability"), query, &resp); err != nil {
		c.log.Error().Err(err).Str("fileGroupId", fileGroupID).Msg("Failed to check availability")
		return nil, err
	}
	var selected *AvailabilityInfo
	for i := range resp.Availability {
		if resp.Availability[i].FileDatetime == fileDatetime {
			selected = &resp.Availability[i]
			break
		}
	}
	if selected == nil && len(resp.Availability) > 0 {
		selected = &resp.Availability[0]
	}
	if selected == nil {
		selected = &AvailabilityInfo{FileDatetime: fileDatetime, IsAvailable: false}
	}
	c.log.Info().Str("fileGroupId", fileGroupID).Bool("isAvailable", selected.IsAvailable).Msg("Availability checked")
	return selected, nil
}

// DownloadFile downloads one file with parallel range requests, bounded by
// the client's cross-file concurrency limit. Expected failures surface in
// the Result; the error return covers context cancellation while queued.
func (c *Client) DownloadFile(ctx context.Context, fileGroupID, fileDatetime string, opts download.Options, numParts int, callback download.Callback) (download.Result, error) {
	if fileDatetime != "" {
		if err := utils.ValidateFileDatetime(fileDatetime); err != nil {
			return download.Result{}, &ValidationError{Message: err.Error()}
		}
	}
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return download.Result{}, ctx.Err()
	}
	return c.downloader.Download(ctx, c.downloadRequest(fileGroupID, fileDatetime), opts, numParts, callback), nil
}

// DownloadFileSingleStream bypasses the parallel splitter, for explicit
// sub-range fetches or callers that want one connection.
func (c *Client) DownloadFileSingleStream(ctx context.Context, fileGroupID, fileDatetime string, opts download.Options, callback download.Callback) (download.Result, error) {
	if fileDatetime != "" {
		if err := utils.ValidateFileDatetime(fileDatetime); err != nil {
			return download.Result{}, &ValidationError{Message: err.Error()}
		}
	}
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return download.Result{}, ctx.Err()
	}
	return c.downloader.DownloadSingleStream(ctx, c.downloadRequest(fileGroupID, fileDatetime), opts, callback), nil
}

func (c *Client) downloadRequest(fileGroupID, fileDatetime string) download.Request {
	params := map[string]string{"file-group-id": fileGroupID}
	if fileDatetime != "" {
		params["file-datetime"] = fileDatetime
	}
	return download.Request{
		URL:          c.buildFilesURL("group/file/download"),
		Params:       params,
		FileGroupID:  fileGroupID,
		FileDatetime: fileDatetime,
	}
}
