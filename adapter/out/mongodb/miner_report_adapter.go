// Package mongodb implements the cycle report history store.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jobminer/core/domain"
	"jobminer/core/port/out"
)

const collectionCycleReports = "cycle_reports"

// reportRetention controls the TTL index: old cycle reports age out on the
// server side.
const reportRetention = 90 * 24 * time.Hour

// ReportAdapter implements out.CycleReportStore using MongoDB.
type ReportAdapter struct {
	collection *mongo.Collection
}

// NewReportAdapter creates the adapter.
func NewReportAdapter(db *mongo.Database) *ReportAdapter {
	return &ReportAdapter{collection: db.Collection(collectionCycleReports)}
}

// EnsureIndexes creates the collection indexes.
func (a *ReportAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cycle_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "started_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// reportDocument wraps a cycle report with storage metadata.
type reportDocument struct {
	CycleID    string                   `bson:"cycle_id"`
	StartedAt  time.Time                `bson:"started_at"`
	FinishedAt time.Time                `bson:"finished_at"`
	Processed  int                      `bson:"processed"`
	Skipped    int                      `bson:"skipped"`
	Users      []domain.UserCycleResult `bson:"users"`
	CreatedAt  time.Time                `bson:"created_at"`
	ExpiresAt  time.Time                `bson:"expires_at"`
}

// SaveReport stores one cycle report.
func (a *ReportAdapter) SaveReport(ctx context.Context, report *domain.CycleReport) error {
	processed, skipped := report.Totals()
	now := time.Now().UTC()

	doc := reportDocument{
		CycleID:    report.CycleID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Processed:  processed,
		Skipped:    skipped,
		Users:      report.Users,
		CreatedAt:  now,
		ExpiresAt:  now.Add(reportRetention),
	}

	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert cycle report: %w", err)
	}
	return nil
}

// LatestReports returns the most recent cycle reports, newest first.
func (a *ReportAdapter) LatestReports(ctx context.Context, limit int) ([]domain.CycleReport, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := a.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find cycle reports: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reportDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode cycle reports: %w", err)
	}

	reports := make([]domain.CycleReport, len(docs))
	for i, doc := range docs {
		reports[i] = domain.CycleReport{
			CycleID:    doc.CycleID,
			StartedAt:  doc.StartedAt,
			FinishedAt: doc.FinishedAt,
			Users:      doc.Users,
		}
	}
	return reports, nil
}

var _ out.CycleReportStore = (*ReportAdapter)(nil)
