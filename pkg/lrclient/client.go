package lrclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type (
	// A Client defines all interactions that can be performed on a lorepo server.
	Client interface {
		// BearerToken returns the ownership token sent to the lorepo server.
		BearerToken() string
		// SetBearerToken sets the ownership token sent to the lorepo server.
		SetBearerToken(token string)
		// List returns the items matching the given filter.
		List(filter Filter) ([]*Item, error)
		// Create registers a new item owned by the bearer token.
		Create(params Params) (*Item, error)
		// Get returns the item for the given name.
		Get(name string) (*Item, error)
		// Update partially updates the item for the given name.
		Update(name string, patch Patch) (*Item, error)
	}

	client struct {
		http     *http.Client
		endpoint string
		bearer   string
	}
)

// NewDefaultClient returns a new Client with default HTTP client.
func NewDefaultClient(endpoint string) (Client, error) {
	return NewClient(http.DefaultClient, endpoint)
}

// NewClient returns a new Client.
func NewClient(c *http.Client, endpoint string) (Client, error) {
	_, err := url.Parse(endpoint)
	return &client{endpoint: endpoint, http: c}, errors.Wrap(err, "could not parse endpoint")
}

func (c *client) BearerToken() string {
	return c.bearer
}

func (c *client) SetBearerToken(token string) {
	c.bearer = token
}

func (c *client) List(filter Filter) ([]*Item, error) {
	query := url.Values{}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if len(filter.Tags) > 0 {
		query.Set("tags", strings.Join(filter.Tags, ","))
	}
	if filter.Name != "" {
		query.Set("name", filter.Name)
	}

	var items []*Item
	err := c.do(http.MethodGet, "", query, nil, &items)
	return items, err
}

func (c *client) Create(params Params) (*Item, error) {
	var item Item
	err := c.do(http.MethodPost, "", nil, params, &item)
	return &item, err
}

func (c *client) Get(name string) (*Item, error) {
	var item Item
	err := c.do(http.MethodGet, name, nil, nil, &item)
	return &item, err
}

func (c *client) Update(name string, patch Patch) (*Item, error) {
	var item Item
	err := c.do(http.MethodPost, name, nil, patch, &item)
	return &item, err
}

// do performs the request on the collection when name is empty, on the named item otherwise.
func (c *client) do(method, name string, query url.Values, payload, v any) error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return errors.Wrap(err, "could not parse endpoint")
	}
	// The name is a single segment, it is escaped rather than cleaned.
	base := strings.TrimSuffix(u.EscapedPath(), "/")
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + name
	u.RawPath = base + "/" + url.PathEscape(name)
	u.RawQuery = query.Encode()

	//
	// Build request
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "could not serialize payload")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	req.Close = true
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	if c.bearer != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.bearer))
	}

	//
	// Perform request
	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "could not perform request")
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return parseLRError(res.Body, res.StatusCode)
	}

	//
	// Process response
	dec := json.NewDecoder(res.Body)
	return errors.Wrap(dec.Decode(v), "could not parse response")
}
