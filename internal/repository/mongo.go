package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	settingsCollection = "group_settings"
	statsCollection    = "chat_stats"
)

// settingsDocument is the document layout of a chat in MongoDB. Warn counts
// live inside it keyed by the decimal user id.
type settingsDocument struct {
	ChatID       int64          `bson:"chat_id"`
	LinkFilter   bool           `bson:"link_filter"`
	WelcomeMsg   bool           `bson:"welcome_msg"`
	CleanService bool           `bson:"clean_service"`
	WebsiteLink  string         `bson:"website_link"`
	BannedWords  []string       `bson:"banned_words"`
	BannedUsers  []int64        `bson:"banned_users"`
	MutedUsers   []int64        `bson:"muted_users"`
	WarnCounts   map[string]int `bson:"warn_counts,omitempty"`
	CreatedAt    time.Time      `bson:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at"`
}

type statsDocument struct {
	LinkViolations  int64 `bson:"link_violations"`
	WordViolations  int64 `bson:"word_violations"`
	FloodViolations int64 `bson:"flood_violations"`
	MuteCount       int64 `bson:"mute_count"`
	BanCount        int64 `bson:"ban_count"`
	WelcomeCount    int64 `bson:"welcome_count"`
}

func (d settingsDocument) toSettings() ChatSettings {
	s := DefaultSettings(d.ChatID, d.WebsiteLink)
	s.LinkFilterEnabled = d.LinkFilter
	s.WelcomeEnabled = d.WelcomeMsg
	s.CleanServiceMessages = d.CleanService
	s.BannedWords = append(s.BannedWords, d.BannedWords...)
	s.BannedUsers = append(s.BannedUsers, d.BannedUsers...)
	s.MutedUsers = append(s.MutedUsers, d.MutedUsers...)
	for key, n := range d.WarnCounts {
		userID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		s.WarnCounts[userID] = n
	}
	s.CreatedAt = d.CreatedAt
	s.UpdatedAt = d.UpdatedAt
	return s
}

// settingsFields is the $set body for every mutable field except warn counts,
// which only change through $inc.
func settingsFields(s ChatSettings) bson.M {
	words := []string(s.BannedWords)
	if words == nil {
		words = []string{}
	}
	banned := []int64(s.BannedUsers)
	if banned == nil {
		banned = []int64{}
	}
	muted := []int64(s.MutedUsers)
	if muted == nil {
		muted = []int64{}
	}
	return bson.M{
		"link_filter":   s.LinkFilterEnabled,
		"welcome_msg":   s.WelcomeEnabled,
		"clean_service": s.CleanServiceMessages,
		"website_link":  s.WebsiteLink,
		"banned_words":  words,
		"banned_users":  banned,
		"muted_users":   muted,
	}
}

func warnKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// MongoStore keeps settings, warn counts and stats in MongoDB using the
// group_settings document layout.
type MongoStore struct {
	client      *mongo.Client
	settings    *mongo.Collection
	stats       *mongo.Collection
	defaultLink string
	locks       *chatLocks
}

var (
	_ SettingsRepository = (*MongoStore)(nil)
	_ WarnRepository     = (*MongoStore)(nil)
	_ StatsRepository    = (*MongoStore)(nil)
)

func NewMongoStore(ctx context.Context, uri, database, defaultLink string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	store := &MongoStore{
		client:      client,
		settings:    db.Collection(settingsCollection),
		stats:       db.Collection(statsCollection),
		defaultLink: defaultLink,
		locks:       newChatLocks(),
	}

	if _, err := store.settings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chat_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create settings index: %w", err)
	}
	if _, err := store.stats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create stats index: %w", err)
	}
	return store, nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoStore) insertDefaults(chatID int64) bson.M {
	fields := settingsFields(DefaultSettings(chatID, m.defaultLink))
	fields["created_at"] = time.Now()
	return fields
}

// upsert applies update to the chat document, creating it with defaults
// first. A duplicate key error from a concurrent first insert is retried once.
func (m *MongoStore) upsert(ctx context.Context, chatID int64, update bson.M) (*settingsDocument, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	filter := bson.M{"chat_id": chatID}

	var doc settingsDocument
	err := m.settings.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		err = m.settings.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (m *MongoStore) GetOrInit(ctx context.Context, chatID int64) (*ChatSettings, error) {
	doc, err := m.upsert(ctx, chatID, bson.M{"$setOnInsert": m.insertDefaults(chatID)})
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	s := doc.toSettings()
	return &s, nil
}

func (m *MongoStore) Update(ctx context.Context, chatID int64, fn func(*ChatSettings) error) (*ChatSettings, error) {
	unlock := m.locks.Lock(chatID)
	defer unlock()

	current, err := m.GetOrInit(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}
	current.ChatID = chatID
	current.UpdatedAt = time.Now()

	set := settingsFields(*current)
	set["updated_at"] = current.UpdatedAt
	if _, err := m.settings.UpdateOne(ctx, bson.M{"chat_id": chatID}, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return current, nil
}

func (m *MongoStore) IncrementWarn(ctx context.Context, chatID, userID int64) (int, error) {
	key := warnKey(userID)
	doc, err := m.upsert(ctx, chatID, bson.M{
		"$inc":         bson.M{"warn_counts." + key: 1},
		"$setOnInsert": m.insertDefaults(chatID),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment warn: %w", err)
	}
	return doc.WarnCounts[key], nil
}

func (m *MongoStore) GetWarnCount(ctx context.Context, chatID, userID int64) (int, error) {
	var doc settingsDocument
	err := m.settings.FindOne(ctx, bson.M{"chat_id": chatID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get warn count: %w", err)
	}
	return doc.WarnCounts[warnKey(userID)], nil
}

func (m *MongoStore) IncrementChatStat(ctx context.Context, chatID int64, field string) error {
	if _, ok := statFields[field]; !ok {
		return fmt.Errorf("unknown stat field: %s", field)
	}
	_, err := m.stats.UpdateOne(ctx,
		bson.M{"chat_id": chatID, "date": statsDay(time.Now())},
		bson.M{"$inc": bson.M{field: 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", field, err)
	}
	return nil
}

func (m *MongoStore) GetChatTotalStats(ctx context.Context, chatID int64) (*ChatStats, error) {
	sum := func(field string) bson.D {
		return bson.D{{Key: "$sum", Value: "$" + field}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "chat_id", Value: chatID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$chat_id"},
			{Key: StatLinkViolations, Value: sum(StatLinkViolations)},
			{Key: StatWordViolations, Value: sum(StatWordViolations)},
			{Key: StatFloodViolations, Value: sum(StatFloodViolations)},
			{Key: StatMuteCount, Value: sum(StatMuteCount)},
			{Key: StatBanCount, Value: sum(StatBanCount)},
			{Key: StatWelcomeCount, Value: sum(StatWelcomeCount)},
		}}},
	}
	cur, err := m.stats.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate chat stats: %w", err)
	}
	var rows []statsDocument
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to read chat stats: %w", err)
	}

	stats := &ChatStats{ChatID: chatID}
	if len(rows) > 0 {
		r := rows[0]
		stats.LinkViolations = r.LinkViolations
		stats.WordViolations = r.WordViolations
		stats.FloodViolations = r.FloodViolations
		stats.MuteCount = r.MuteCount
		stats.BanCount = r.BanCount
		stats.WelcomeCount = r.WelcomeCount
	}
	return stats, nil
}
