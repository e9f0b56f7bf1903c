package database

import (
	"context"

	"github.com/lorepo/lorepo/internal/model"
)

type (
	// A Client can interacts with the database.
	Client interface {
		// Transaction runs fn inside a database transaction.
		// The transaction is committed when fn returns nil and rolled back otherwise.
		Transaction(ctx context.Context, fn func(Session) error) error
		// Query runs a raw statement returning rows.
		Query(ctx context.Context, sql string) ([]map[string]any, error)
		// Exec runs a raw statement and returns the number of affected rows.
		Exec(ctx context.Context, sql string) (int64, error)
		// Ping checks the database connectivity.
		Ping(ctx context.Context) error
		// Close the database.
		Close() error
	}

	// A Session is a unit of work bound to a transaction.
	Session interface {
		// IsNotFound returns true if err is a not found error.
		IsNotFound(err error) bool
		// IsAlreadyExists returns true if err is a unique constraint violation.
		IsAlreadyExists(err error) bool

		KeyInteraction
		TagInteraction
		ItemInteraction
	}

	// A KeyInteraction defines all the methods used to interact with a key record.
	KeyInteraction interface {
		// FindKeyByToken returns the key for the given token.
		FindKeyByToken(token string) (*model.Key, error)
		// SaveKey inserts the given key when it is new.
		SaveKey(key *model.Key) error
	}

	// A TagInteraction defines all the methods used to interact with tag records.
	TagInteraction interface {
		// FindOrCreateTags returns the tags for the given names, creating the unknown ones.
		// The result follows the order of names, duplicates removed.
		FindOrCreateTags(names []string) ([]*model.Tag, error)
	}

	// An ItemInteraction defines all the methods used to interact with item record(s).
	ItemInteraction interface {
		// FindItem returns the item for the given id.
		FindItem(id uint) (*model.Item, error)
		// FindItemByName returns the item for the given name.
		FindItemByName(name string) (*model.Item, error)
		// FindItemsByParams returns all the matching records for the given parameters.
		FindItemsByParams(params ItemQuery) ([]*model.Item, error)
		// CreateItem inserts the given item along its tags and dependencies.
		CreateItem(item *model.Item) error
		// UpdateItem updates the columns of the given item. Associations are left untouched.
		UpdateItem(item *model.Item) error
		// ReplaceItemTags replaces the tags of the given item.
		ReplaceItemTags(item *model.Item, tags []*model.Tag) error
		// ReplaceItemDeps replaces the dependencies of the given item.
		ReplaceItemDeps(item *model.Item, deps []*model.Item) error
	}

	// An ItemQuery filters the item listing.
	ItemQuery struct {
		// Tags are substrings; an item must have a matching tag for each of them.
		Tags []string
		// Name is a substring of the item name.
		Name   string
		Offset int
		Limit  int
	}
)
