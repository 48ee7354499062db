package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	apperrors "campusafe/internal/errors"
	"campusafe/internal/model"
)

const (
	itemsCollection = "items"
	usersCollection = "users"
)

// EnsureMongoIndexes creates the indexes the listing queries use.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(itemsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "postedBy", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create item indexes: %w", err)
	}
	return nil
}

type mongoItemRepository struct {
	coll *mongo.Collection
}

// NewMongoItemRepository builds a MongoDB-backed item repository.
func NewMongoItemRepository(db *mongo.Database) ItemRepository {
	return &mongoItemRepository{coll: db.Collection(itemsCollection)}
}

func (r *mongoItemRepository) Create(ctx context.Context, item *model.Item) error {
	if _, err := r.coll.InsertOne(ctx, item); err != nil {
		return apperrors.Store("create item", err)
	}
	return nil
}

func (r *mongoItemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Store("find item", err)
	}
	return &item, nil
}

func (r *mongoItemRepository) FindAll(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.PostedBy != "" {
		query["postedBy"] = filter.PostedBy
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Query), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
			bson.M{"location": re},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, apperrors.Store("list items", err)
	}
	items := []model.Item{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, apperrors.Store("list items", err)
	}
	return items, nil
}

func (r *mongoItemRepository) UpdateLifecycle(ctx context.Context, item *model.Item, expected model.ItemStatus) error {
	item.UpdatedAt = time.Now()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": item.ID, "status": expected},
		bson.M{"$set": bson.M{
			"status":         item.Status,
			"claimantName":   item.ClaimantName,
			"claimantEmail":  item.ClaimantEmail,
			"claimantPhone":  item.ClaimantPhone,
			"claimAnswer1":   item.ClaimAnswer1,
			"claimAnswer2":   item.ClaimAnswer2,
			"claimAnswer3":   item.ClaimAnswer3,
			"claimImage":     item.ClaimImage,
			"pickupCode":     item.PickupCode,
			"pickupLocation": item.PickupLocation,
			"updatedAt":      item.UpdatedAt,
		}},
	)
	if err != nil {
		return apperrors.Store("update item", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": item.ID})
	if err != nil {
		return apperrors.Store("update item", err)
	}
	if n == 0 {
		return apperrors.ErrItemNotFound
	}
	return fmt.Errorf("%w: item is no longer %q", apperrors.ErrInvalidTransition, expected)
}

func (r *mongoItemRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, apperrors.Store("delete items", err)
	}
	return res.DeletedCount, nil
}

func (r *mongoItemRepository) Ping(ctx context.Context) error {
	if err := r.coll.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return apperrors.Store("ping", err)
	}
	return nil
}

type mongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository builds a MongoDB-backed user repository keyed by email.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection(usersCollection)}
}

func (r *mongoUserRepository) GetOrCreate(ctx context.Context, email string) (*model.User, error) {
	now := time.Now()
	update := bson.M{"$setOnInsert": bson.M{
		"postsCount":        0,
		"claimsCount":       0,
		"isProfileComplete": false,
		"createdAt":         now,
		"updatedAt":         now,
	}}
	return r.upsert(ctx, email, update)
}

func (r *mongoUserRepository) UpdateProfile(ctx context.Context, email string, update model.ProfileUpdate) (*model.User, error) {
	now := time.Now()
	set := bson.M{"isProfileComplete": true, "updatedAt": now}
	for key, v := range map[string]*string{
		"name":         update.Name,
		"usn":          update.USN,
		"branch":       update.Branch,
		"course":       update.Course,
		"profilePhoto": update.ProfilePhoto,
	} {
		if v != nil {
			set[key] = *v
		}
	}
	if update.Year != nil {
		set["year"] = *update.Year
	}
	return r.upsert(ctx, email, bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"postsCount": 0, "claimsCount": 0, "createdAt": now},
	})
}

func (r *mongoUserRepository) Increment(ctx context.Context, email string, counter Counter, delta int) error {
	field := "postsCount"
	if counter == ClaimsCounter {
		field = "claimsCount"
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": email}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return apperrors.Store("increment user counter", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *mongoUserRepository) upsert(ctx context.Context, email string, update bson.M) (*model.User, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var user model.User
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": email}, update, opts).Decode(&user); err != nil {
		return nil, apperrors.Store("upsert user", err)
	}
	return &user, nil
}
