package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nuumi-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

// StoryRepository defines the interface for story operations. Every read
// path filters to stories whose expires_at is still in the future; an
// expired story is not found even if the document has not been swept yet.
type StoryRepository interface {
	CreateStory(ctx context.Context, story *models.Story) error
	GetStoryByID(ctx context.Context, id string) (*models.Story, error)
	GetStoriesByUserIDs(ctx context.Context, userIDs []string) ([]models.Story, error)
	GetActiveStories(ctx context.Context) ([]models.Story, error)
	DeleteExpiredStories(ctx context.Context) (int64, error)
	MarkSeen(storySeen *models.StorySeen) error
	GetSeenStoryIDs(userID uint, storyIDs []string) (map[string]bool, error)
}

type storyRepository struct {
	mongoCollection *mongo.Collection
	pgDB            *gorm.DB
}

func NewStoryRepository(mongoDB *mongo.Database, pgDB *gorm.DB) StoryRepository {
	return &storyRepository{
		mongoCollection: mongoDB.Collection("stories"),
		pgDB:            pgDB,
	}
}

func (r *storyRepository) CreateStory(ctx context.Context, story *models.Story) error {
	story.ID = primitive.NewObjectID()
	story.CreatedAt = time.Now()
	story.ExpiresAt = story.CreatedAt.Add(24 * time.Hour)
	_, err := r.mongoCollection.InsertOne(ctx, story)
	return err
}

func (r *storyRepository) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid story ID format")
	}
	var story models.Story
	err = r.mongoCollection.FindOne(ctx, bson.M{
		"_id":        objID,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&story)
	if err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *storyRepository) GetStoriesByUserIDs(ctx context.Context, userIDs []string) ([]models.Story, error) {
	filter := bson.M{
		"user_id":    bson.M{"$in": userIDs},
		"expires_at": bson.M{"$gt": time.Now()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.mongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storyRepository) GetActiveStories(ctx context.Context) ([]models.Story, error) {
	filter := bson.M{"expires_at": bson.M{"$gt": time.Now()}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.mongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// DeleteExpiredStories physically removes stories past their expiry.
// Reads already exclude them; this just reclaims storage.
func (r *storyRepository) DeleteExpiredStories(ctx context.Context) (int64, error) {
	res, err := r.mongoCollection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// MarkSeen records that a user has seen a story. Seeing the same story
// twice is benign.
func (r *storyRepository) MarkSeen(storySeen *models.StorySeen) error {
	storySeen.SeenAt = time.Now()
	err := r.pgDB.Create(storySeen).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (r *storyRepository) GetSeenStoryIDs(userID uint, storyIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(storyIDs) == 0 {
		return result, nil
	}
	var seen []models.StorySeen
	err := r.pgDB.Where("user_id = ? AND story_id IN ?", userID, storyIDs).Find(&seen).Error
	if err != nil {
		return nil, err
	}
	for _, s := range seen {
		result[s.StoryID] = true
	}
	return result, nil
}
