// Package mongo is a league.Repository backed by MongoDB. Teams and matches
// live in their own collections, keyed by id.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/derekprior/leaguenight/internal/league"
)

const slotIndex = "match_slot"

type Store struct {
	client  *mongo.Client
	teams   *mongo.Collection
	matches *mongo.Collection
}

var _ league.Repository = (*Store)(nil)

// Open connects to uri, checks the server answers and ensures the unique
// (week, period, number) index on matches.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:  client,
		teams:   db.Collection("teams"),
		matches: db.Collection("matches"),
	}
	_, err = s.matches.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "week", Value: 1}, {Key: "period", Value: 1}, {Key: "number", Value: 1}},
		Options: options.Index().SetName(slotIndex).SetUnique(true),
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("creating match index: %w", err)
	}
	return s, nil
}

// Drop removes both collections. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.teams.Drop(ctx); err != nil {
		return err
	}
	return s.matches.Drop(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ReadTeams(ctx context.Context) ([]league.Team, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.teams.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("finding teams: %w", err)
	}
	var out []league.Team
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding teams: %w", err)
	}
	return out, nil
}

func (s *Store) ReadTeam(ctx context.Context, id string) (league.Team, error) {
	var t league.Team
	err := s.teams.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return t, &league.NotFoundError{Kind: "team", ID: id}
	}
	if err != nil {
		return t, fmt.Errorf("finding team %s: %w", id, err)
	}
	return t, nil
}

func (s *Store) WriteTeam(ctx context.Context, t league.Team) error {
	if !t.Valid() {
		return fmt.Errorf("team needs an id and a name")
	}
	_, err := s.teams.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("writing team %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) UpdateTeamStats(ctx context.Context, id string, weeks []league.WeeklyStat, total int) error {
	return s.updateTeam(ctx, id, bson.M{"weeks": weeks, "total_points": total})
}

func (s *Store) UpdateTeamPool(ctx context.Context, id, pool string) error {
	return s.updateTeam(ctx, id, bson.M{"pool": pool})
}

func (s *Store) updateTeam(ctx context.Context, id string, set bson.M) error {
	res, err := s.teams.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("updating team %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return &league.NotFoundError{Kind: "team", ID: id}
	}
	return nil
}

func (s *Store) ReadMatches(ctx context.Context, week int) ([]league.Match, error) {
	filter := bson.M{}
	if week != 0 {
		filter["week"] = week
	}
	opts := options.Find().SetSort(bson.D{{Key: "week", Value: 1}, {Key: "number", Value: 1}})
	cur, err := s.matches.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("finding matches: %w", err)
	}
	var out []league.Match
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding matches: %w", err)
	}
	return out, nil
}

func (s *Store) ReadMatch(ctx context.Context, id string) (league.Match, error) {
	var m league.Match
	err := s.matches.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m, &league.NotFoundError{Kind: "match", ID: id}
	}
	if err != nil {
		return m, fmt.Errorf("finding match %s: %w", id, err)
	}
	return m, nil
}

func (s *Store) WriteMatch(ctx context.Context, m league.Match) (string, error) {
	if err := s.WriteMatches(ctx, []league.Match{m}); err != nil {
		return "", err
	}
	return m.ID, nil
}

// WriteMatches inserts the batch in order. If an insert fails, the
// documents this call already inserted are removed again, so a batch lands
// whole or not at all without needing a replica set.
func (s *Store) WriteMatches(ctx context.Context, ms []league.Match) error {
	if len(ms) == 0 {
		return nil
	}
	docs := make([]any, len(ms))
	for i, m := range ms {
		if err := m.Validate(); err != nil {
			return err
		}
		docs[i] = m
	}

	_, err := s.matches.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err == nil {
		return nil
	}

	failed := firstFailure(err, len(ms))
	if failed > 0 {
		ids := make([]string, failed)
		for i := range ids {
			ids[i] = ms[i].ID
		}
		if _, derr := s.matches.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); derr != nil {
			return fmt.Errorf("rolling back match batch after %v: %w", err, derr)
		}
	}
	if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), slotIndex) {
		m := ms[min(failed, len(ms)-1)]
		return &league.AlreadyGeneratedError{Week: m.Week, Period: m.Period}
	}
	return fmt.Errorf("inserting matches: %w", err)
}

// firstFailure returns the index of the first document InsertMany rejected.
// Documents before it were written.
func firstFailure(err error, n int) int {
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 {
		idx := n
		for _, we := range bwe.WriteErrors {
			idx = min(idx, we.Index)
		}
		return idx
	}
	return 0
}

// UpdateMatch validates the patched record, then sets only the fields the
// patch carries so concurrent patches to other fields are kept.
func (s *Store) UpdateMatch(ctx context.Context, id string, patch league.MatchPatch) error {
	m, err := s.ReadMatch(ctx, id)
	if err != nil {
		return err
	}
	patch.Apply(&m)
	if err := m.Validate(); err != nil {
		return err
	}

	set := bson.M{}
	if patch.ScoreA != nil {
		set["score_a"] = *patch.ScoreA
	}
	if patch.ScoreB != nil {
		set["score_b"] = *patch.ScoreB
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	if len(set) == 0 {
		return nil
	}
	res, err := s.matches.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("updating match %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return &league.NotFoundError{Kind: "match", ID: id}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
