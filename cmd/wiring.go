package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-portfolio/internal/web/contact"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/library/db/mongo"
	"github.com/Laisky/laisky-portfolio/library/db/postgres"
	"github.com/Laisky/laisky-portfolio/library/db/sql/gormdb"
	"github.com/Laisky/laisky-portfolio/library/log"
	"github.com/Laisky/laisky-portfolio/library/objstore"
	"github.com/Laisky/laisky-portfolio/library/storage"
	"github.com/Laisky/laisky-portfolio/library/throttle"
)

const (
	defaultSaveDebounce   = time.Second
	defaultLoadCeiling    = 1500 * time.Millisecond
	defaultContactTimeout = 20 * time.Second
	defaultCVDir          = "./data/cv"
	defaultInboxDB        = "./contact.db"

	defaultContactPerIPPerHour = 5
	defaultContactTotalPerHour = 60
)

// storageConfig reads settings.db.* into a storage.Config
func storageConfig() storage.Config {
	s := gconfig.Shared
	return storage.Config{
		Type:         s.GetString("settings.db.type"),
		SQLitePath:   s.GetString("settings.db.sqlite.path"),
		SQLiteDriver: s.GetString("settings.db.sqlite.driver"),
		Postgres: postgres.DialInfo{
			Addr:   s.GetString("settings.db.postgres.addr"),
			DBName: s.GetString("settings.db.postgres.db"),
			User:   s.GetString("settings.db.postgres.user"),
			Pwd:    s.GetString("settings.db.postgres.pwd"),
		},
		RedisAddr: s.GetString("settings.db.redis.addr"),
		RedisPwd:  s.GetString("settings.db.redis.pwd"),
		RedisDB:   s.GetInt("settings.db.redis.db"),
		Mongo: mongo.DialInfo{
			Addr:   s.GetString("settings.db.mongo.addr"),
			DBName: s.GetString("settings.db.mongo.db"),
			User:   s.GetString("settings.db.mongo.user"),
			Pwd:    s.GetString("settings.db.mongo.pwd"),
		},
		MongoCollection:         s.GetString("settings.db.mongo.collection"),
		FirestoreProjectID:      s.GetString("settings.db.firestore.project_id"),
		FirestoreCredentialFile: s.GetString("settings.db.firestore.credential_file"),
		FirestoreCollection:     s.GetString("settings.db.firestore.collection"),
	}
}

// msSetting reads an optional millisecond setting
func msSetting(key string, def time.Duration) time.Duration {
	if ms := gconfig.Shared.GetInt(key); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

// openStore connects the configured backend and builds the content store.
// The store is not started, callers decide whether to hydrate.
func openStore(ctx context.Context) (*dao.Store, storage.Backend, error) {
	backend, err := storage.Open(ctx, storageConfig())
	if err != nil {
		return nil, nil, errors.Wrap(err, "open storage")
	}

	opts := []dao.Option{
		dao.WithSaveDebounce(msSetting("settings.store.save_debounce_ms", defaultSaveDebounce)),
		dao.WithLoadCeiling(msSetting("settings.store.load_ceiling_ms", defaultLoadCeiling)),
		dao.WithLogger(log.Logger.Named("store")),
	}
	if seed := gconfig.Shared.GetString("settings.store.seed_file"); seed != "" {
		defaults, err := model.LoadSeedFile(seed)
		if err != nil {
			_ = backend.Close(ctx)
			return nil, nil, errors.Wrapf(err, "load seed file %q", seed)
		}
		opts = append(opts, dao.WithDefaults(defaults))
	}

	store, err := dao.New(backend, opts...)
	if err != nil {
		_ = backend.Close(ctx)
		return nil, nil, errors.Wrap(err, "new store")
	}

	return store, backend, nil
}

// openHydratedStore opens the store and loads persisted content.
// Commands run on a fully loaded store with persistence on, or not at all.
func openHydratedStore(ctx context.Context) (*dao.Store, storage.Backend, error) {
	store, backend, err := openStore(ctx)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	if err = store.Hydrate(ctx); err != nil {
		_ = store.Close(ctx)
		_ = backend.Close(ctx)
		return nil, nil, errors.Wrap(err, "hydrate store")
	}

	return store, backend, nil
}

// openFiles picks s3 when an endpoint is configured, local disk otherwise
func openFiles() (objstore.Store, error) {
	s := gconfig.Shared
	if endpoint := strings.TrimSpace(s.GetString("settings.cv.s3.endpoint")); endpoint != "" {
		files, err := objstore.NewS3(objstore.S3Config{
			Endpoint:  endpoint,
			AccessKey: s.GetString("settings.cv.s3.access_key"),
			SecretKey: s.GetString("settings.cv.s3.secret_key"),
			Bucket:    s.GetString("settings.cv.s3.bucket"),
			Prefix:    s.GetString("settings.cv.s3.prefix"),
			Secure:    s.GetBool("settings.cv.s3.secure"),
		})
		return files, errors.Wrap(err, "new s3 store")
	}

	dir := s.GetString("settings.cv.dir")
	if dir == "" {
		dir = defaultCVDir
	}
	files, err := objstore.NewLocal(dir)
	return files, errors.Wrap(err, "new local store")
}

// openInbox opens the gorm database holding contact messages
func openInbox(ctx context.Context) (*contact.Inbox, error) {
	path := gconfig.Shared.GetString("settings.contact.inbox_db")
	if path == "" {
		path = defaultInboxDB
	}

	db, err := gormdb.Open(ctx, gconfig.Shared.GetString("settings.db.sqlite.driver"), path, gconfig.Shared.GetBool("debug"))
	if err != nil {
		return nil, errors.Wrap(err, "open inbox db")
	}

	inbox, err := contact.NewInbox(db)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err = inbox.Migrate(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	return inbox, nil
}

// openContact builds the contact service. It returns nil when no relay
// endpoint is configured, which disables the form.
func openContact(ctx context.Context) (*contact.Service, error) {
	s := gconfig.Shared
	endpoint := strings.TrimSpace(s.GetString("settings.contact.endpoint"))
	if endpoint == "" {
		log.Logger.Warn("settings.contact.endpoint is empty, contact form disabled")
		return nil, nil
	}

	timeout := defaultContactTimeout
	if sec := s.GetInt("settings.contact.timeout_seconds"); sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}
	relay, err := contact.NewRelay(endpoint, timeout)
	if err != nil {
		return nil, errors.Wrap(err, "new contact relay")
	}

	inbox, err := openInbox(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	opts := []contact.Option{
		contact.WithRelay(relay),
		contact.WithInbox(inbox),
		contact.WithLogger(log.Logger.Named("contact")),
	}
	if token := s.GetString("settings.contact.telegram.token"); token != "" {
		tg, err := contact.NewTelegram(token, int64(s.GetInt("settings.contact.telegram.chat_id")),
			s.GetString("settings.contact.telegram.api"))
		if err != nil {
			// notifications are optional, the form still works without them
			log.Logger.Error("new telegram notifier", zap.Error(err))
		} else {
			opts = append(opts, contact.WithNotifier(tg))
		}
	}

	svc, err := contact.New(opts...)
	return svc, errors.Wrap(err, "new contact service")
}

// newContactThrottle limits contact submissions per client ip and in total
func newContactThrottle() (*throttle.Throttle, error) {
	each := gconfig.Shared.GetInt("settings.contact.throttle.per_ip_per_hour")
	if each <= 0 {
		each = defaultContactPerIPPerHour
	}
	total := gconfig.Shared.GetInt("settings.contact.throttle.total_per_hour")
	if total <= 0 {
		total = defaultContactTotalPerHour
	}

	t, err := throttle.New(throttle.Config{
		TotalPerHour: total,
		TotalBurst:   total,
		EachPerHour:  each,
		EachBurst:    each,
	})
	return t, errors.Wrap(err, "new contact throttle")
}
