package repo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IssueStore persists issues and answers the aggregation sub-queries the
// dashboard and analytics services fan out. Each aggregation is a named
// method with a single pipeline so it can be reasoned about in isolation.
type IssueStore struct {
	c   *mongo.Collection
	log zerolog.Logger
}

func NewIssueStore(d *DB, log zerolog.Logger) *IssueStore {
	return &IssueStore{c: d.DB.Collection(colIssues), log: log}
}

func scopeFilter(s domain.Scope) bson.M {
	switch s.Kind {
	case domain.ScopeCreated:
		return bson.M{"createdBy": s.User}
	case domain.ScopeAssigned:
		return bson.M{"assignedTo": s.User}
	case domain.ScopeInvolved:
		return bson.M{"$or": []bson.M{{"createdBy": s.User}, {"assignedTo": s.User}}}
	}
	return bson.M{}
}

func (s *IssueStore) Insert(ctx context.Context, i *domain.Issue) error {
	res, err := s.c.InsertOne(ctx, i)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		i.ID = id
	}
	return nil
}

func (s *IssueStore) Get(ctx context.Context, id primitive.ObjectID) (domain.Issue, error) {
	var i domain.Issue
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&i)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Issue{}, domain.ErrNotFound
	}
	return i, err
}

// ApplyUpdate applies a partial update in one FindOneAndUpdate so the
// read-modify-write is covered by Mongo's per-document atomicity. The
// resolvedAt stamp is a $ifNull inside the same pipeline: it lands only
// if the field is still unset, no matter what ran in between. Title and
// description are wrapped in $literal because pipeline $set would treat
// a leading "$" in user text as a field path.
func (s *IssueStore) ApplyUpdate(ctx context.Context, id primitive.ObjectID, upd domain.IssueUpdate, now time.Time) (domain.Issue, error) {
	set := bson.M{"updatedAt": now}
	if upd.Title != nil {
		set["title"] = bson.M{"$literal": *upd.Title}
	}
	if upd.Description != nil {
		set["description"] = bson.M{"$literal": *upd.Description}
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
		if upd.Status.Terminal() {
			set["resolvedAt"] = bson.M{"$ifNull": bson.A{"$resolvedAt", now}}
		}
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.Severity != nil {
		set["severity"] = *upd.Severity
	}
	if upd.Assignee != nil {
		set["assignedTo"] = *upd.Assignee
	}
	pipeline := []bson.M{{"$set": set}}
	if upd.ClearAssignee {
		pipeline = append(pipeline, bson.M{"$unset": "assignedTo"})
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out domain.Issue
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Issue{}, domain.ErrNotFound
	}
	return out, err
}

func (s *IssueStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List applies exact-match filters plus a case-insensitive substring
// search over title and description. The query is assumed normalized
// (page ≥ 1, limit bounded, sort field whitelisted) by the caller.
func (s *IssueStore) List(ctx context.Context, q domain.ListQuery) ([]domain.Issue, int64, error) {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Priority != "" {
		filter["priority"] = q.Priority
	}
	if q.Severity != "" {
		filter["severity"] = q.Severity
	}
	if q.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = []bson.M{{"title": re}, {"description": re}}
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	dir := -1
	if q.SortOrder == "asc" {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: q.SortBy, Value: dir}}).
		SetSkip((q.Page - 1) * q.Limit).
		SetLimit(q.Limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	issues := []domain.Issue{}
	if err := cur.All(ctx, &issues); err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

func (s *IssueStore) Count(ctx context.Context, scope domain.Scope) (int64, error) {
	return s.c.CountDocuments(ctx, scopeFilter(scope))
}

func (s *IssueStore) CountCreatedSince(ctx context.Context, scope domain.Scope, since time.Time) (int64, error) {
	filter := scopeFilter(scope)
	filter["createdAt"] = bson.M{"$gte": since}
	return s.c.CountDocuments(ctx, filter)
}

func (s *IssueStore) groupCounts(ctx context.Context, scope domain.Scope, field string) (map[string]int64, error) {
	pipeline := []bson.M{
		{"$match": scopeFilter(scope)},
		{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Count
	}
	return out, nil
}

func (s *IssueStore) CountByStatus(ctx context.Context, scope domain.Scope) (map[domain.Status]int64, error) {
	raw, err := s.groupCounts(ctx, scope, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Status]int64, len(raw))
	for k, v := range raw {
		out[domain.Status(k)] = v
	}
	return out, nil
}

func (s *IssueStore) CountByPriority(ctx context.Context, scope domain.Scope) (map[domain.Priority]int64, error) {
	raw, err := s.groupCounts(ctx, scope, "priority")
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Priority]int64, len(raw))
	for k, v := range raw {
		out[domain.Priority(k)] = v
	}
	return out, nil
}

func (s *IssueStore) CountBySeverity(ctx context.Context, scope domain.Scope) (map[domain.Severity]int64, error) {
	raw, err := s.groupCounts(ctx, scope, "severity")
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Severity]int64, len(raw))
	for k, v := range raw {
		out[domain.Severity(k)] = v
	}
	return out, nil
}

// ResolutionAggregate rolls up resolvedAt − createdAt in milliseconds
// over resolved issues in scope. A scope with no resolved issues yields
// the zero aggregate, not an error.
func (s *IssueStore) ResolutionAggregate(ctx context.Context, scope domain.Scope) (domain.ResolutionAggregate, error) {
	filter := scopeFilter(scope)
	filter["resolvedAt"] = bson.M{"$ne": nil}
	pipeline := []bson.M{
		{"$match": filter},
		{"$project": bson.M{"ms": bson.M{"$subtract": []any{"$resolvedAt", "$createdAt"}}}},
		{"$group": bson.M{
			"_id":   nil,
			"count": bson.M{"$sum": 1},
			"avg":   bson.M{"$avg": "$ms"},
			"min":   bson.M{"$min": "$ms"},
			"max":   bson.M{"$max": "$ms"},
		}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.ResolutionAggregate{}, err
	}
	var rows []struct {
		Count int64   `bson:"count"`
		Avg   float64 `bson:"avg"`
		Min   float64 `bson:"min"`
		Max   float64 `bson:"max"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return domain.ResolutionAggregate{}, err
	}
	if len(rows) == 0 {
		return domain.ResolutionAggregate{}, nil
	}
	r := rows[0]
	return domain.ResolutionAggregate{Count: r.Count, AvgMS: r.Avg, MinMS: r.Min, MaxMS: r.Max}, nil
}

// MonthlyCounts groups issues created since the cutoff by UTC calendar
// month, ascending. Months without issues produce no row.
func (s *IssueStore) MonthlyCounts(ctx context.Context, scope domain.Scope, since time.Time) ([]domain.MonthCount, error) {
	filter := scopeFilter(scope)
	filter["createdAt"] = bson.M{"$gte": since}
	pipeline := []bson.M{
		{"$match": filter},
		{"$group": bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$createdAt"},
				"month": bson.M{"$month": "$createdAt"},
			},
			"count": bson.M{"$sum": 1},
		}},
		{"$sort": bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID struct {
			Year  int `bson:"year"`
			Month int `bson:"month"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.MonthCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.MonthCount{Year: r.ID.Year, Month: r.ID.Month, Count: r.Count})
	}
	return out, nil
}

// TopActors counts issues grouped by a user-reference field, most active
// first. Documents without the field (unassigned issues) never form a
// bucket.
func (s *IssueStore) TopActors(ctx context.Context, field domain.ActorField, limit int) ([]domain.ActorCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{string(field): bson.M{"$ne": nil}}},
		{"$group": bson.M{"_id": "$" + string(field), "count": bson.M{"$sum": 1}}},
		{"$sort": bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}},
		{"$limit": int64(limit)},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID    primitive.ObjectID `bson:"_id"`
		Count int64              `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.ActorCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ActorCount{UserID: r.ID, Count: r.Count})
	}
	return out, nil
}

// Recent returns the newest issues in scope by creation time.
func (s *IssueStore) Recent(ctx context.Context, scope domain.Scope, limit int) ([]domain.Issue, error) {
	return s.find(ctx, scopeFilter(scope), "createdAt", limit)
}

// RecentActivity returns the most recently touched issues in scope.
func (s *IssueStore) RecentActivity(ctx context.Context, scope domain.Scope, limit int) ([]domain.Issue, error) {
	return s.find(ctx, scopeFilter(scope), "updatedAt", limit)
}

func (s *IssueStore) find(ctx context.Context, filter bson.M, sortField string, limit int) ([]domain.Issue, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	issues := []domain.Issue{}
	if err := cur.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// HighPriorityAssigned lists High/Critical issues assigned to the user
// that are not yet Closed, ranked by domain priority order then recency.
// Lexical order on the labels would rank High above Critical, hence the
// computed rank field.
func (s *IssueStore) HighPriorityAssigned(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Issue, error) {
	pipeline := []bson.M{
		{"$match": bson.M{
			"assignedTo": userID,
			"priority":   bson.M{"$in": []domain.Priority{domain.PriorityHigh, domain.PriorityCritical}},
			"status":     bson.M{"$ne": domain.StatusClosed},
		}},
		{"$addFields": bson.M{"priorityRank": bson.M{"$switch": bson.M{
			"branches": []bson.M{
				{"case": bson.M{"$eq": []any{"$priority", domain.PriorityCritical}}, "then": 4},
				{"case": bson.M{"$eq": []any{"$priority", domain.PriorityHigh}}, "then": 3},
				{"case": bson.M{"$eq": []any{"$priority", domain.PriorityMedium}}, "then": 2},
			},
			"default": 1,
		}}}},
		{"$sort": bson.D{{Key: "priorityRank", Value: -1}, {Key: "createdAt", Value: -1}}},
		{"$limit": int64(limit)},
		{"$project": bson.M{"priorityRank": 0}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	issues := []domain.Issue{}
	if err := cur.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}
