package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"lecturer-feedback/internal/domain"
	"lecturer-feedback/internal/repository"
)

type feedbackDocument struct {
	ID           string    `bson:"_id"`
	LecturerName string    `bson:"lecturerName"`
	Course       string    `bson:"course"`
	Feedback     string    `bson:"feedback"`
	Rating       *int      `bson:"rating,omitempty"`
	UserID       string    `bson:"userId"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d feedbackDocument) toDomain() domain.Feedback {
	return domain.Feedback{
		ID:           d.ID,
		LecturerName: d.LecturerName,
		Course:       d.Course,
		Text:         d.Feedback,
		Rating:       d.Rating,
		UserID:       d.UserID,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type FeedbackRepository struct {
	coll *mongo.Collection
}

func NewFeedbackRepository(db *mongo.Database) repository.FeedbackRepository {
	return &FeedbackRepository{coll: db.Collection(feedbackCollection)}
}

func (r *FeedbackRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "lecturerName", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create feedback indexes: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) Create(ctx context.Context, fb *domain.Feedback) error {
	now := time.Now().UTC()
	fb.CreatedAt = now
	fb.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, feedbackDocument{
		ID:           fb.ID,
		LecturerName: fb.LecturerName,
		Course:       fb.Course,
		Feedback:     fb.Text,
		Rating:       fb.Rating,
		UserID:       fb.UserID,
		CreatedAt:    fb.CreatedAt,
		UpdatedAt:    fb.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) List(ctx context.Context, filter domain.FeedbackFilter, scope domain.Scope) ([]domain.Feedback, error) {
	query := bson.D{}
	if filter.LecturerName != "" {
		query = append(query, bson.E{Key: "lecturerName", Value: filter.LecturerName})
	}
	if filter.Course != "" {
		query = append(query, bson.E{Key: "course", Value: filter.Course})
	}
	if !scope.Unscoped() {
		query = append(query, bson.E{Key: "userId", Value: scope.OwnerID})
	}

	cur, err := r.coll.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find feedback: %w", err)
	}

	var docs []feedbackDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	list := make([]domain.Feedback, len(docs))
	for i := range docs {
		list[i] = docs[i].toDomain()
	}
	return list, nil
}

func (r *FeedbackRepository) Update(ctx context.Context, id string, scope domain.Scope, changes domain.FeedbackChanges) (*domain.Feedback, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if changes.LecturerName != nil {
		set = append(set, bson.E{Key: "lecturerName", Value: *changes.LecturerName})
	}
	if changes.Course != nil {
		set = append(set, bson.E{Key: "course", Value: *changes.Course})
	}
	if changes.Text != nil {
		set = append(set, bson.E{Key: "feedback", Value: *changes.Text})
	}
	if changes.Rating != nil {
		set = append(set, bson.E{Key: "rating", Value: *changes.Rating})
	}

	var doc feedbackDocument
	err := r.coll.FindOneAndUpdate(ctx,
		byID(id, scope),
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update feedback: %w", err)
	}
	fb := doc.toDomain()
	return &fb, nil
}

func (r *FeedbackRepository) Delete(ctx context.Context, id string, scope domain.Scope) error {
	res, err := r.coll.DeleteOne(ctx, byID(id, scope))
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var ratedOnly = bson.D{{Key: "$match", Value: bson.D{
	{Key: "rating", Value: bson.D{{Key: "$ne", Value: nil}}},
}}}

func (r *FeedbackRepository) AverageRatings(ctx context.Context, limit int) ([]domain.LecturerRating, error) {
	pipeline := mongo.Pipeline{
		ratedOnly,
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$lecturerName"},
			{Key: "averageRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "feedbackCount", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "averageRating", Value: -1},
			{Key: "_id", Value: 1},
		}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate average ratings: %w", err)
	}

	var rows []struct {
		LecturerName  string  `bson:"_id"`
		AverageRating float64 `bson:"averageRating"`
		FeedbackCount int     `bson:"feedbackCount"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode average ratings: %w", err)
	}

	ratings := make([]domain.LecturerRating, len(rows))
	for i, row := range rows {
		ratings[i] = domain.LecturerRating{
			LecturerName:  row.LecturerName,
			AverageRating: row.AverageRating,
			FeedbackCount: row.FeedbackCount,
		}
	}
	return ratings, nil
}

func (r *FeedbackRepository) RatingTrends(ctx context.Context, lecturerName string) ([]domain.RatingTrend, error) {
	pipeline := mongo.Pipeline{ratedOnly}
	if lecturerName != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{{Key: "lecturerName", Value: lecturerName}}}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "lecturerName", Value: "$lecturerName"},
				{Key: "date", Value: bson.D{{Key: "$dateToString", Value: bson.D{
					{Key: "format", Value: "%Y-%m-%d"},
					{Key: "date", Value: "$createdAt"},
				}}}},
			}},
			{Key: "averageRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "_id.date", Value: 1},
			{Key: "_id.lecturerName", Value: 1},
		}}},
	)

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate rating trends: %w", err)
	}

	var rows []struct {
		ID struct {
			LecturerName string `bson:"lecturerName"`
			Date         string `bson:"date"`
		} `bson:"_id"`
		AverageRating float64 `bson:"averageRating"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode rating trends: %w", err)
	}

	trends := make([]domain.RatingTrend, len(rows))
	for i, row := range rows {
		trends[i] = domain.RatingTrend{
			LecturerName:  row.ID.LecturerName,
			Date:          row.ID.Date,
			AverageRating: row.AverageRating,
		}
	}
	return trends, nil
}

func byID(id string, scope domain.Scope) bson.D {
	filter := bson.D{{Key: "_id", Value: id}}
	if !scope.Unscoped() {
		filter = append(filter, bson.E{Key: "userId", Value: scope.OwnerID})
	}
	return filter
}
