package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hakim/tagcube/internal/models"
)

// ResultMode selects how a filter query's result list is reduced.
type ResultMode int

const (
	// OneResult expects zero or one match; more is an AmbiguousResultError.
	OneResult ResultMode = iota + 1
	// LatestResult picks the match with the highest id.
	LatestResult
	// AllResults returns every match.
	AllResults
)

func (m ResultMode) String() string {
	switch m {
	case OneResult:
		return "one"
	case LatestResult:
		return "latest"
	case AllResults:
		return "all"
	default:
		return fmt.Sprintf("ResultMode(%d)", int(m))
	}
}

// Filter issues one GET against collection with filters as the query string
// and reduces the matches according to mode. OneResult and LatestResult return
// at most one resource and an empty slice when nothing matched.
func (c *Client) Filter(ctx context.Context, collection string, filters url.Values, mode ResultMode) ([]models.Resource, error) {
	u := c.fullURL(fmt.Sprintf("/%s/?%s", collection, filters.Encode()))
	_, data, err := c.sender.Send(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	objects, err := decodeObjects(data)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", collection, err)
	}

	switch mode {
	case OneResult:
		switch len(objects) {
		case 0:
			return nil, nil
		case 1:
			return objects, nil
		default:
			return nil, &AmbiguousResultError{Collection: collection, Filters: filters, Count: len(objects)}
		}
	case LatestResult:
		latest := latestByID(objects)
		if latest == nil {
			return nil, nil
		}
		return []models.Resource{latest}, nil
	case AllResults:
		return objects, nil
	default:
		return nil, fmt.Errorf("filter %s: unknown result mode %v", collection, mode)
	}
}

// filterOne returns the single match, or nil when there is none.
func (c *Client) filterOne(ctx context.Context, collection string, filters url.Values) (models.Resource, error) {
	return first(c.Filter(ctx, collection, filters, OneResult))
}

// filterLatest returns the match with the highest id, or nil when there is none.
func (c *Client) filterLatest(ctx context.Context, collection string, filters url.Values) (models.Resource, error) {
	return first(c.Filter(ctx, collection, filters, LatestResult))
}

func first(objects []models.Resource, err error) (models.Resource, error) {
	if err != nil || len(objects) == 0 {
		return nil, err
	}
	return objects[0], nil
}

// latestByID returns the resource with the numerically highest id. The API
// does not guarantee ordering, so ties go to the later element.
func latestByID(objects []models.Resource) models.Resource {
	var latest models.Resource
	for _, obj := range objects {
		if latest == nil || obj.ID() >= latest.ID() {
			latest = obj
		}
	}
	return latest
}

// create POSTs body to collection and returns the created resource. Anything
// but a 201 carrying an id and href is a *ResourceCreationError.
func (c *Client) create(ctx context.Context, collection string, body any) (models.Resource, error) {
	u := c.fullURL(fmt.Sprintf("/%s/", collection))
	status, data, err := c.sender.Send(ctx, http.MethodPost, u, body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, &ResourceCreationError{
				Collection: collection,
				StatusCode: apiErr.StatusCode,
				Messages:   apiErr.Messages,
			}
		}
		return nil, err
	}

	res, decodeErr := decodeObject(data)

	if status != http.StatusCreated {
		return nil, &ResourceCreationError{
			Collection: collection,
			StatusCode: status,
			Messages:   errorMessages(res),
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("create %s: %w", collection, decodeErr)
	}
	if !res.HasIdentity() {
		messages := errorMessages(res)
		if len(messages) == 0 {
			messages = []string{"response is missing id or href"}
		}
		return nil, &ResourceCreationError{Collection: collection, StatusCode: status, Messages: messages}
	}

	c.logger.Debug("created resource", "collection", collection, "id", res.ID(), "href", res.Href())
	return res, nil
}

// get fetches a single resource by URL.
func (c *Client) get(ctx context.Context, u string) (models.Resource, error) {
	_, data, err := c.sender.Send(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return decodeObject(data)
}

// decodeObject decodes a JSON object keeping numbers exact.
func decodeObject(data []byte) (models.Resource, error) {
	var res models.Resource
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding resource: %w", err)
	}
	return res, nil
}

// decodeObjects accepts both the paginated form
//
//	{"meta": {...}, "objects": [{...}]}
//
// and a bare JSON array. An object carrying an "error" key is an *APIError,
// e.g. {"error": "Invalid resource lookup data provided (mismatched type)."}
func decodeObjects(data []byte) ([]models.Resource, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []models.Resource
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&list); err != nil {
			return nil, fmt.Errorf("decoding resource list: %w", err)
		}
		return list, nil
	}

	var page struct {
		Objects []models.Resource `json:"objects"`
		Error   json.RawMessage   `json:"error"`
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding resource list: %w", err)
	}
	if len(page.Error) > 0 {
		if messages := flattenMessages(page.Error); len(messages) > 0 {
			return nil, &APIError{StatusCode: http.StatusOK, Messages: messages}
		}
	}
	return page.Objects, nil
}

// errorMessages extracts {"error": [...]} or {"error": "..."} from a body.
func errorMessages(res models.Resource) []string {
	switch v := res["error"].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}
