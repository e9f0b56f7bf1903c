package database

import (
	"context"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/lorepo/lorepo/internal/config"
	"github.com/lorepo/lorepo/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type (
	orm struct {
		db *gorm.DB
	}

	session struct {
		db *gorm.DB
	}
)

var models = []any{
	&model.Key{},
	&model.Tag{},
	&model.Item{},
}

// Open returns a new database connection for the given settings.
func Open(cfg config.Database) (Client, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, err
	}

	return &orm{db: db}, nil
}

// CreateSchema creates all the tables. Existing tables are kept and completed.
func CreateSchema(dsn string) error {
	return withDatabase(dsn, func(db *gorm.DB) error {
		err := db.AutoMigrate(models...)
		return errors.Wrap(err, "could not create schema")
	})
}

// DropSchema drops all the tables.
func DropSchema(dsn string) error {
	return withDatabase(dsn, func(db *gorm.DB) error {
		// Edge tables first, they reference items and tags.
		err := db.Migrator().DropTable(
			model.ItemDependenciesTable,
			model.ItemTagsTable,
			&model.Item{},
			&model.Tag{},
			&model.Key{},
		)
		return errors.Wrap(err, "could not drop schema")
	})
}

func withDatabase(dsn string, fn func(*gorm.DB) error) error {
	db, err := open(config.Database{DSN: dsn})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "could not get database instance")
	}
	defer sqlDB.Close()

	return fn(db)
}

func open(cfg config.Database) (*gorm.DB, error) {
	level, err := logLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(SQLiteDSN(cfg.DSN)), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "could not get database instance")
	}

	// SQLite only supports one writer.
	conns := cfg.MaxOpenConns
	if conns <= 0 {
		conns = 1
	}
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// SQLiteDSN converts the given connection string to a SQLite driver DSN.
// It accepts `sqlite:///relative/path`, `sqlite:////absolute/path`, `sqlite://path`,
// `file:` URIs, bare paths and `:memory:`.
func SQLiteDSN(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "sqlite:///"):
		dsn = strings.TrimPrefix(dsn, "sqlite:///")
	case strings.HasPrefix(dsn, "sqlite://"):
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}

	if dsn == "" || dsn == ":memory:" {
		dsn = "file::memory:"
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func logLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "", "silent":
		return logger.Silent, nil
	case "error":
		return logger.Error, nil
	case "warn", "warning":
		return logger.Warn, nil
	case "info", "debug":
		return logger.Info, nil
	default:
		return 0, errors.Errorf("unknown database log level: %s", level)
	}
}

// Transaction runs fn inside a database transaction.
func (c *orm) Transaction(ctx context.Context, fn func(Session) error) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&session{db: tx})
	})
}

// Query runs a raw statement returning rows.
func (c *orm) Query(ctx context.Context, sql string) ([]map[string]any, error) {
	rows := make([]map[string]any, 0)
	err := c.db.WithContext(ctx).Raw(sql).Scan(&rows).Error
	return rows, errors.Wrap(err, "could not perform query")
}

// Exec runs a raw statement and returns the number of affected rows.
func (c *orm) Exec(ctx context.Context, sql string) (int64, error) {
	tx := c.db.WithContext(ctx).Exec(sql)
	return tx.RowsAffected, errors.Wrap(tx.Error, "could not execute statement")
}

// Ping checks the database connectivity.
func (c *orm) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return errors.Wrap(err, "could not get database instance")
	}
	return sqlDB.PingContext(ctx)
}

// Close the database.
func (c *orm) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return errors.Wrap(err, "could not get database instance")
	}
	return sqlDB.Close()
}

// IsNotFound returns true if err is a not found error.
func (s *session) IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsAlreadyExists returns true if err is a unique constraint violation.
func (s *session) IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	// The driver message is checked in case the dialector did not translate the error.
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// FindKeyByToken returns the key for the given token.
func (s *session) FindKeyByToken(token string) (*model.Key, error) {
	var key model.Key
	if err := s.db.Where("token = ?", token).First(&key).Error; err != nil {
		return nil, errors.Wrap(err, "find key by token")
	}
	return &key, nil
}

// SaveKey inserts the given key when it is new.
func (s *session) SaveKey(key *model.Key) error {
	if !key.IsNew() {
		return nil
	}
	return errors.Wrap(s.db.Create(key).Error, "could not save key")
}

// FindOrCreateTags returns the tags for the given names, creating the unknown ones.
func (s *session) FindOrCreateTags(names []string) ([]*model.Tag, error) {
	seen := make(map[string]bool, len(names))
	tags := make([]*model.Tag, 0, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		tag := &model.Tag{}
		if err := s.db.Where(model.Tag{Name: name}).FirstOrCreate(tag).Error; err != nil {
			return nil, errors.Wrapf(err, "could not find or create tag %s", name)
		}
		tags = append(tags, tag)
	}

	return tags, nil
}

// FindItem returns the item for the given id.
func (s *session) FindItem(id uint) (*model.Item, error) {
	var item model.Item
	if err := s.preloaded().First(&item, id).Error; err != nil {
		return nil, errors.Wrap(err, "find item by id")
	}
	return &item, nil
}

// FindItemByName returns the item for the given name.
func (s *session) FindItemByName(name string) (*model.Item, error) {
	var item model.Item
	if err := s.preloaded().Where("items.name = ?", name).First(&item).Error; err != nil {
		return nil, errors.Wrap(err, "find item by name")
	}
	return &item, nil
}

// FindItemsByParams returns all the matching records for the given parameters.
func (s *session) FindItemsByParams(params ItemQuery) ([]*model.Item, error) {
	stmt := s.preloaded().Model(&model.Item{})

	for _, tag := range params.Tags {
		tagged := s.db.Table(model.ItemTagsTable).
			Select("item_tags.item_id").
			Joins("JOIN tags ON tags.id = item_tags.tag_id").
			Where("tags.name GLOB ?", contains(tag))
		stmt = stmt.Where("items.id IN (?)", tagged)
	}

	if params.Name != "" {
		stmt = stmt.Where("items.name GLOB ?", contains(params.Name))
	}

	stmt = stmt.Order("items.id")
	if params.Offset > 0 {
		stmt = stmt.Offset(params.Offset)
	}
	if params.Limit > 0 {
		stmt = stmt.Limit(params.Limit)
	}

	items := make([]*model.Item, 0)
	if err := stmt.Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "could not find items")
	}
	return items, nil
}

// CreateItem inserts the given item along its tags and dependencies.
// Tags and dependencies must already be persisted, only the edges are written.
func (s *session) CreateItem(item *model.Item) error {
	err := s.db.Omit("Key", "RequiredBy", "Tags.*", "Deps.*").Create(item).Error
	return errors.Wrap(err, "could not create item")
}

// UpdateItem updates the columns of the given item.
func (s *session) UpdateItem(item *model.Item) error {
	err := s.db.Omit("Key", "Tags", "Deps", "RequiredBy").Save(item).Error
	return errors.Wrap(err, "could not update item")
}

// ReplaceItemTags replaces the tags of the given item.
func (s *session) ReplaceItemTags(item *model.Item, tags []*model.Tag) error {
	association := s.db.Model(item).Omit("Tags.*").Association("Tags")
	if len(tags) == 0 {
		return errors.Wrap(association.Clear(), "could not clear item tags")
	}
	return errors.Wrap(association.Replace(tags), "could not replace item tags")
}

// ReplaceItemDeps replaces the dependencies of the given item.
func (s *session) ReplaceItemDeps(item *model.Item, deps []*model.Item) error {
	association := s.db.Model(item).Omit("Deps.*").Association("Deps")
	if len(deps) == 0 {
		return errors.Wrap(association.Clear(), "could not clear item dependencies")
	}
	return errors.Wrap(association.Replace(deps), "could not replace item dependencies")
}

func (s *session) preloaded() *gorm.DB {
	byID := func(table string) func(*gorm.DB) *gorm.DB {
		return func(db *gorm.DB) *gorm.DB {
			return db.Order(table + ".id")
		}
	}

	return s.db.
		Preload("Key").
		Preload("Tags", byID("tags")).
		Preload("Deps", byID("items")).
		Preload("RequiredBy", byID("items"))
}

// contains returns a case-sensitive GLOB pattern matching values containing s.
// Wildcards of s are wrapped in a character class to be matched literally.
func contains(s string) string {
	r := strings.NewReplacer(`*`, `[*]`, `?`, `[?]`, `[`, `[[]`)
	return "*" + r.Replace(s) + "*"
}
