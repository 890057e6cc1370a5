package cmd

import (
	"fmt"
	"math"
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
)

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

var (
	supportedDBTypes       = []string{"sqlite", "postgres", "redis", "mongo", "firestore", "memory"}
	supportedSQLiteDrivers = []string{"sqlite3", "sqlite"}
)

// validateStartupConfig validates startup configuration from the shared config source.
// It returns an error when any configured value is malformed or violates constraints.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.Shared.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// Every problem is collected so a bad config file fails once with the full list.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateDBConfig(get, &validationErrs)
	validateStoreConfig(get, &validationErrs)
	validateSessionConfig(get, &validationErrs)
	validateContactConfig(get, &validationErrs)
	validateCVConfig(get, &validationErrs)
	validateWebConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateAPIConfig checks the keys the http server cannot start without.
func validateAPIConfig(get configGetter) error {
	validationErrs := make([]string, 0)
	validateRequiredString(get, "settings.secret", &validationErrs)
	validateRequiredString(get, "settings.admin.password", &validationErrs)
	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

func validateDBConfig(get configGetter, errs *[]string) {
	validateOptionalEnum(get, "settings.db.type", supportedDBTypes, errs)
	validateOptionalEnum(get, "settings.db.sqlite.driver", supportedSQLiteDrivers, errs)
	validateOptionalStringNonEmpty(get, "settings.db.sqlite.path", errs)
	validateOptionalIntMin(get, "settings.db.redis.db", 0, errs)
	validateOptionalStringNonEmpty(get, "settings.db.mongo.collection", errs)
	validateOptionalStringNonEmpty(get, "settings.db.firestore.collection", errs)

	switch dbType, _ := parseStrictString(get("settings.db.type")); strings.ToLower(strings.TrimSpace(dbType)) {
	case "postgres":
		validateRequiredString(get, "settings.db.postgres.addr", errs)
		validateRequiredString(get, "settings.db.postgres.db", errs)
	case "redis":
		validateRequiredString(get, "settings.db.redis.addr", errs)
	case "mongo":
		validateRequiredString(get, "settings.db.mongo.addr", errs)
		validateRequiredString(get, "settings.db.mongo.db", errs)
	case "firestore":
		validateRequiredString(get, "settings.db.firestore.project_id", errs)
	}
}

func validateStoreConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.store.save_debounce_ms", 1, errs)
	validateOptionalIntMin(get, "settings.store.load_ceiling_ms", 1, errs)
	validateOptionalStringNonEmpty(get, "settings.store.seed_file", errs)
}

func validateSessionConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.session.ttl_hours", 1, errs)
	validateOptionalBool(get, "settings.session.secure", errs)
	if raw := get("settings.session.cookie_domain"); raw != nil {
		domain, err := parseStrictString(raw)
		if err != nil || (strings.TrimSpace(domain) != "" && !isValidHost(domain)) {
			appendValidationError(errs, "settings.session.cookie_domain must be a host name")
		}
	}
}

// validateContactConfig also requires the chat id once a telegram token is set.
func validateContactConfig(get configGetter, errs *[]string) {
	validateOptionalURL(get, "settings.contact.endpoint", errs)
	validateOptionalIntMin(get, "settings.contact.timeout_seconds", 1, errs)
	validateOptionalStringNonEmpty(get, "settings.contact.inbox_db", errs)
	validateOptionalIntMin(get, "settings.contact.throttle.per_ip_per_hour", 1, errs)
	validateOptionalIntMin(get, "settings.contact.throttle.total_per_hour", 1, errs)

	if raw := get("settings.contact.telegram.chat_id"); raw != nil {
		if _, err := parseStrictInt(raw); err != nil {
			appendValidationError(errs, "settings.contact.telegram.chat_id must be an integer")
		}
	}
	if token, _ := parseStrictString(get("settings.contact.telegram.token")); strings.TrimSpace(token) != "" {
		if get("settings.contact.telegram.chat_id") == nil {
			appendValidationError(errs, "settings.contact.telegram.chat_id is required when a token is set")
		}
	}
}

func validateCVConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.cv.dir", errs)
	validateOptionalBool(get, "settings.cv.s3.secure", errs)

	endpoint := get("settings.cv.s3.endpoint")
	if endpoint == nil {
		return
	}
	if host, err := parseStrictString(endpoint); err != nil || !isValidHost(host) {
		appendValidationError(errs, "settings.cv.s3.endpoint must be host[:port] without scheme")
	}
	validateRequiredString(get, "settings.cv.s3.bucket", errs)
	validateRequiredString(get, "settings.cv.s3.access_key", errs)
	validateRequiredString(get, "settings.cv.s3.secret_key", errs)
}

func validateWebConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.web.templates_dir", errs)
	validateOptionalStringNonEmpty(get, "settings.web.admin_dist", errs)
	validateOptionalBool(get, "settings.mcp.enabled", errs)

	raw := get("settings.web.allowed_origins")
	if raw == nil {
		return
	}
	origins, ok := parseStringList(raw)
	if !ok {
		appendValidationError(errs, "settings.web.allowed_origins must be a list of strings")
		return
	}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if strings.Contains(origin, "/") {
			if _, err := netip.ParsePrefix(origin); err != nil {
				appendValidationError(errs, "settings.web.allowed_origins entry %q is not a valid CIDR", origin)
			}
			continue
		}
		if !isValidHost(strings.TrimPrefix(origin, "*.")) {
			appendValidationError(errs, "settings.web.allowed_origins entry %q must be a domain", origin)
		}
	}
}

// validateRequiredString reports a missing or blank string key.
func validateRequiredString(get configGetter, key string, errs *[]string) {
	value, err := parseStrictString(get(key))
	if err != nil || strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s is required", key)
	}
}

// validateOptionalEnum validates an optionally configured key against allowed values, ignoring case.
func validateOptionalEnum(get configGetter, key string, allowed []string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, err := parseStrictString(raw)
	if err == nil {
		value = strings.ToLower(strings.TrimSpace(value))
		for _, v := range allowed {
			if v == value {
				return
			}
		}
	}
	appendValidationError(errs, "%s must be one of [%s]", key, strings.Join(allowed, ", "))
}

// parseStringList accepts a yaml list or a comma separated string.
func parseStringList(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case string:
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// validateOptionalBool validates an optionally configured boolean key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalBool(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, ok := parseStrictBool(raw); !ok {
		appendValidationError(errs, "%s must be a boolean", key)
	}
}

// validateOptionalIntMin validates an optionally configured integer key with a minimum constraint.
// It accepts a getter, the key, a minimum value, and an error collector pointer and appends validation errors.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalURL validates an optionally configured absolute URL key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string URL", key)
		return
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		appendValidationError(errs, "%s must not be empty", key)
		return
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalStringNonEmpty validates an optionally configured non-empty string key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalStringNonEmpty(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must not be empty", key)
	}
}

// parseStrictBool parses a value as boolean using strict conversion rules.
// It accepts a raw value and returns the parsed boolean and whether parsing succeeded.
func parseStrictBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		if math.Trunc(v) != v {
			return false, false
		}
		return int64(v) != 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false, false
		}
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// parseStrictInt parses a value as a strict integer.
// It accepts a raw value and returns the parsed int and an error when parsing fails.
func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictString parses a value as a strict string.
// It accepts a raw value and returns the parsed string and an error when parsing fails.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

// isValidHost validates a host string without scheme or path components.
// It accepts a host string and returns true when the host is syntactically acceptable.
func isValidHost(host string) bool {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return false
	}
	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "/") {
		return false
	}
	return true
}

// appendValidationError appends a formatted validation error to the collector.
// It accepts an error slice pointer, a format string, and format arguments, and has no return value.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}
