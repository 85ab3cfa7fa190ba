package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsy/internal/config"
	"newsy/internal/models"
	"newsy/internal/urlutil"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadySaved = errors.New("article already saved")
	ErrForbidden    = errors.New("article belongs to another user")
)

// DefaultTopics are reported for users that never stored preferences.
var DefaultTopics = []string{"all"}

type MongoDB struct {
	client        *mongo.Client
	database      *mongo.Database
	savedArticles *mongo.Collection
	preferences   *mongo.Collection
}

func NewMongoDB(cfg config.DBConfig) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)

	d := &MongoDB{
		client:        client,
		database:      db,
		savedArticles: db.Collection(cfg.Collections.SavedArticles),
		preferences:   db.Collection(cfg.Collections.Preferences),
	}

	if err := d.createIndexes(); err != nil {
		d.Close()
		return nil, fmt.Errorf("can't create indices: %w", err)
	}

	return d, nil
}

func (d *MongoDB) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "url", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "saved_at", Value: -1}},
		},
	}
	if _, err := d.savedArticles.Indexes().CreateMany(ctx, indexes); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return err
		}
		log.Debug().Err(err).Msg("saved article indexes already exist")
	}
	return nil
}

// SaveArticle stores a bookmark. The ID is derived from the user and the
// normalized URL, so saving the same article twice yields ErrAlreadySaved.
func (d *MongoDB) SaveArticle(ctx context.Context, article *models.SavedArticle) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	article.ID = urlutil.SavedArticleID(article.User, article.URL)
	if article.SavedAt.IsZero() {
		article.SavedAt = time.Now().UTC()
	}

	if _, err := d.savedArticles.InsertOne(ctx, article); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadySaved
		}
		return fmt.Errorf("insert saved article: %w", err)
	}
	return nil
}

// SavedArticles lists a user's bookmarks, newest first.
func (d *MongoDB) SavedArticles(ctx context.Context, user string) ([]models.SavedArticle, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "saved_at", Value: -1}})
	cursor, err := d.savedArticles.Find(ctx, bson.M{"user": user}, opts)
	if err != nil {
		return nil, fmt.Errorf("find saved articles: %w", err)
	}
	defer cursor.Close(ctx)

	articles := []models.SavedArticle{}
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("decode saved articles: %w", err)
	}
	return articles, nil
}

func (d *MongoDB) DeleteSavedArticle(ctx context.Context, user, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var owner struct {
		User string `bson:"user"`
	}
	err := d.savedArticles.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"user": 1})).Decode(&owner)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find saved article: %w", err)
	}
	if owner.User != user {
		return ErrForbidden
	}

	res, err := d.savedArticles.DeleteOne(ctx, bson.M{"_id": id, "user": user})
	if err != nil {
		return fmt.Errorf("delete saved article: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Preferences never fails with ErrNotFound: a user without stored
// preferences gets DefaultTopics.
func (d *MongoDB) Preferences(ctx context.Context, user string) (*models.Preferences, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var prefs models.Preferences
	err := d.preferences.FindOne(ctx, bson.M{"_id": user}).Decode(&prefs)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Preferences{User: user, Topics: append([]string(nil), DefaultTopics...)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find preferences: %w", err)
	}
	if len(prefs.Topics) == 0 {
		prefs.Topics = append([]string(nil), DefaultTopics...)
	}
	return &prefs, nil
}

func (d *MongoDB) SavePreferences(ctx context.Context, user string, topics []string) (*models.Preferences, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	prefs := &models.Preferences{
		User:      user,
		Topics:    topics,
		UpdatedAt: time.Now().UTC(),
	}

	opts := options.Update().SetUpsert(true)
	update := bson.M{"$set": bson.M{"topics": prefs.Topics, "updated_at": prefs.UpdatedAt}}
	if _, err := d.preferences.UpdateOne(ctx, bson.M{"_id": user}, update, opts); err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}
	return prefs, nil
}

func (d *MongoDB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.client.Ping(ctx, nil)
}

func (d *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}
