package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lorepo/lorepo/internal/database"
	"github.com/lorepo/lorepo/internal/lrerror"
	"github.com/lorepo/lorepo/internal/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type (
	// A CreateParams is used when a client registers an item.
	CreateParams struct {
		Name    string      `json:"name"`
		Desc    *string     `json:"desc"`
		File    string      `json:"file"`
		Image   *string     `json:"image"`
		Service string      `json:"service"`
		Deps    []Reference `json:"deps"`
		Tags    []string    `json:"tags"`
	}

	// An UpdateParams is used when a client partially updates an item.
	// Only the fields present in the payload are applied.
	UpdateParams struct {
		Name    *string     `json:"name"`
		Desc    *string     `json:"desc"`
		File    *string     `json:"file"`
		Image   *string     `json:"image"`
		Service *string     `json:"service"`
		Deps    []Reference `json:"deps"`
		Tags    []string    `json:"tags"`

		present map[string]bool
	}

	// A ListParams filters the item listing.
	ListParams struct {
		Page int
		Tags string
		Name string
	}

	// An ItemService holds the item rules for one unit of work.
	ItemService struct {
		db  database.Session
		log logrus.FieldLogger
	}
)

// UnmarshalJSON implements json.Unmarshaler and records which fields are present.
func (p *UpdateParams) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	type plain UpdateParams
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}

	p.present = make(map[string]bool, len(fields))
	for field := range fields {
		p.present[field] = true
	}
	return nil
}

// Has returns true if the given JSON field was sent.
func (p *UpdateParams) Has(field string) bool {
	return p.present[field]
}

// Query returns the database query for the given page size.
func (p ListParams) Query(pageSize int) (database.ItemQuery, error) {
	if p.Page < 0 {
		return database.ItemQuery{}, lrerror.InvalidParameters("page must be a positive integer")
	}

	return database.ItemQuery{
		Tags:   split(p.Tags),
		Name:   p.Name,
		Offset: p.Page * pageSize,
		Limit:  pageSize,
	}, nil
}

// NewItem instantiates a new item service bound to the given session.
func NewItem(db database.Session) *ItemService {
	return &ItemService{
		db:  db,
		log: logrus.StandardLogger(),
	}
}

// ResolveKey returns the key for the given token.
// An unknown token gives a new key that is only persisted when an item is attached to it.
func (s *ItemService) ResolveKey(token string) (*model.Key, error) {
	key, err := s.db.FindKeyByToken(token)
	if err != nil {
		if s.db.IsNotFound(err) {
			return model.NewKey(token), nil
		}
		return nil, errors.Wrap(err, "could not get key")
	}

	if !key.Active {
		return nil, lrerror.Unauthorized()
	}
	return key, nil
}

// List returns the items matching the given params.
func (s *ItemService) List(params ListParams, pageSize int) ([]*model.Item, error) {
	query, err := params.Query(pageSize)
	if err != nil {
		return nil, err
	}
	return s.db.FindItemsByParams(query)
}

// Find returns the item for the given name if the key owns it.
func (s *ItemService) Find(key *model.Key, name string) (*model.Item, error) {
	item, err := s.db.FindItemByName(name)
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, lrerror.NotFound()
		}
		return nil, errors.Wrap(err, "could not get item")
	}

	if !key.Owns(item) {
		return nil, lrerror.Unauthorized()
	}
	return item, nil
}

// Create registers a new item owned by the given key.
func (s *ItemService) Create(key *model.Key, params CreateParams) (*model.Item, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, lrerror.InvalidParameters("name is required")
	}
	if params.Desc == nil {
		return nil, lrerror.InvalidParameters("desc is required")
	}
	if strings.TrimSpace(params.File) == "" {
		return nil, lrerror.InvalidParameters("file is required")
	}

	if err := s.db.SaveKey(key); err != nil {
		if s.db.IsAlreadyExists(err) {
			return nil, lrerror.UniqueConstraintViolation("This token is already registered.")
		}
		return nil, err
	}

	tags, err := s.db.FindOrCreateTags(names(params.Tags))
	if err != nil {
		return nil, err
	}

	item := model.NewItem()
	item.Name = params.Name
	item.Description = *params.Desc
	item.File = params.File
	item.Image = params.Image
	if params.Service != "" {
		item.Service = params.Service
	}
	item.KeyID = &key.ID
	item.Tags = tags
	item.Deps, err = s.resolve(item, params.Deps)
	if err != nil {
		return nil, err
	}

	if err = s.db.CreateItem(item); err != nil {
		if s.db.IsAlreadyExists(err) {
			return nil, alreadyExists(item.Name)
		}
		return nil, err
	}

	return s.db.FindItem(item.ID)
}

// Update applies the given params on the item.
func (s *ItemService) Update(item *model.Item, params UpdateParams) (*model.Item, error) {
	if params.Has("name") {
		if params.Name == nil || strings.TrimSpace(*params.Name) == "" {
			return nil, lrerror.InvalidParameters("name can't be blank")
		}
		item.Name = *params.Name
	}
	if params.Has("desc") {
		if params.Desc == nil {
			return nil, lrerror.InvalidParameters("desc can't be null")
		}
		item.Description = *params.Desc
	}
	if params.Has("file") {
		if params.File == nil || strings.TrimSpace(*params.File) == "" {
			return nil, lrerror.InvalidParameters("file can't be blank")
		}
		item.File = *params.File
	}
	if params.Has("service") {
		if params.Service == nil {
			return nil, lrerror.InvalidParameters("service can't be null")
		}
		item.Service = *params.Service
	}
	if params.Has("image") {
		item.Image = params.Image
	}

	// Always saved to stamp the update date.
	if err := s.db.UpdateItem(item); err != nil {
		if s.db.IsAlreadyExists(err) {
			return nil, alreadyExists(item.Name)
		}
		return nil, err
	}

	if params.Has("deps") {
		deps, err := s.resolve(item, params.Deps)
		if err != nil {
			return nil, err
		}
		s.log.Debugf("Dependencies of %s: %v", item.Name, model.ItemNames(deps))

		if err = s.db.ReplaceItemDeps(item, deps); err != nil {
			return nil, err
		}
	}

	if params.Has("tags") {
		tags, err := s.db.FindOrCreateTags(names(params.Tags))
		if err != nil {
			return nil, err
		}

		if err = s.db.ReplaceItemTags(item, tags); err != nil {
			return nil, err
		}
	}

	return s.db.FindItem(item.ID)
}

// resolve returns the items designated by refs.
// Unknown references are skipped with a warning, so are references to the item itself.
func (s *ItemService) resolve(item *model.Item, refs []Reference) ([]*model.Item, error) {
	deps := make([]*model.Item, 0, len(refs))
	seen := make(map[uint]bool, len(refs))

	for _, ref := range refs {
		var (
			dep *model.Item
			err error
		)
		switch {
		case ref.Name != "":
			dep, err = s.db.FindItemByName(ref.Name)
		case ref.ID != 0:
			dep, err = s.db.FindItem(ref.ID)
		default:
			continue
		}

		if err != nil {
			if s.db.IsNotFound(err) {
				s.log.WithField("item", item.Name).Warnf("The dependency '%s' from %s doesn't exist.", ref, item.Name)
				continue
			}
			return nil, errors.Wrap(err, "could not resolve dependency")
		}

		if dep.ID == item.ID || seen[dep.ID] {
			if dep.ID == item.ID {
				s.log.WithField("item", item.Name).Warn("An item can't depend on itself.")
			}
			continue
		}
		seen[dep.ID] = true
		deps = append(deps, dep)
	}

	return deps, nil
}

func alreadyExists(name string) error {
	return lrerror.UniqueConstraintViolation(fmt.Sprintf("An item named '%s' already exists.", name))
}

// names drops blank names.
func names(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		result = append(result, v)
	}
	return result
}

func split(list string) []string {
	if list == "" {
		return nil
	}

	values := strings.Split(list, ",")
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}
	return names(values)
}
