package correlation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/sentinel"
)

const entryKeyPrefix = "corr:req:"

// resolveScript atomically consumes an entry only when its kind matches.
// GET-then-DEL from Go would lose the entry on a kind mismatch; the script
// keeps consume-exactly-once true under concurrent duplicate callbacks.
var resolveScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return false
end
local e = cjson.decode(v)
if e.kind ~= ARGV[1] then
	return false
end
redis.call('DEL', KEYS[1])
return v
`)

// RedisStore is the distributed correlation table for multi-instance
// deployments. Entries carry no TTL: an abandoned request is permanently
// abandoned by design, and expiry would silently break the exactly-once
// contract for a late callback.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed correlation table.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisEntry struct {
	RequestID      string    `json:"request_id"`
	Kind           string    `json:"kind"`
	RecordID       string    `json:"record_id,omitempty"`
	PackageID      string    `json:"package_id,omitempty"`
	VerificationID string    `json:"verification_id,omitempty"`
	RegisteredAt   time.Time `json:"registered_at"`
}

func (s *RedisStore) Register(ctx context.Context, entry Entry) error {
	re := redisEntry{
		RequestID:    entry.RequestID.String(),
		Kind:         string(entry.Kind),
		RegisteredAt: entry.RegisteredAt,
	}
	if !entry.RecordID.IsNil() {
		re.RecordID = entry.RecordID.String()
	}
	if !entry.PackageID.IsNil() {
		re.PackageID = entry.PackageID.String()
	}
	if !entry.VerificationID.IsNil() {
		re.VerificationID = entry.VerificationID.String()
	}

	body, err := json.Marshal(re)
	if err != nil {
		return fmt.Errorf("marshal correlation entry: %w", err)
	}

	ok, err := s.client.SetNX(ctx, entryKeyPrefix+entry.RequestID.String(), body, 0).Result()
	if err != nil {
		return fmt.Errorf("register correlation entry: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *RedisStore) Resolve(ctx context.Context, requestID id.RequestID, kind Kind) (Entry, error) {
	res, err := resolveScript.Run(ctx, s.client,
		[]string{entryKeyPrefix + requestID.String()}, string(kind)).Result()
	if err == redis.Nil {
		return Entry{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("resolve correlation entry: %w", err)
	}

	raw, ok := res.(string)
	if !ok {
		return Entry{}, sentinel.ErrNotFound
	}

	var re redisEntry
	if err := json.Unmarshal([]byte(raw), &re); err != nil {
		return Entry{}, fmt.Errorf("unmarshal correlation entry: %w", err)
	}
	return re.toEntry()
}

func (re redisEntry) toEntry() (Entry, error) {
	entry := Entry{Kind: Kind(re.Kind), RegisteredAt: re.RegisteredAt}

	requestID, err := id.ParseRequestID(re.RequestID)
	if err != nil {
		return Entry{}, err
	}
	entry.RequestID = requestID

	if re.RecordID != "" {
		if entry.RecordID, err = id.ParseRecordID(re.RecordID); err != nil {
			return Entry{}, err
		}
	}
	if re.PackageID != "" {
		if entry.PackageID, err = id.ParsePackageID(re.PackageID); err != nil {
			return Entry{}, err
		}
	}
	if re.VerificationID != "" {
		if entry.VerificationID, err = id.ParseVerificationID(re.VerificationID); err != nil {
			return Entry{}, err
		}
	}
	return entry, nil
}
