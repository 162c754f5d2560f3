package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

func TestScore(t *testing.T) {
	old := now.Add(-365 * day)
	profile := Profile{Interests: []string{"Go", "data", "design"}, PersonalityType: "analyst"}

	tests := []struct {
		name string
		c    Candidate
		want int
	}{
		{"nothing", Candidate{CreatedAt: old}, 0},
		{"tag match is case-insensitive", Candidate{Tags: []string{"go"}, CreatedAt: old}, 3},
		{"two tags", Candidate{Tags: []string{"go", "data", "cooking"}, CreatedAt: old}, 6},
		{"text match", Candidate{Text: "Intro to Data pipelines", CreatedAt: old}, 1},
		{"tag and text for the same interest count once", Candidate{Tags: []string{"data"}, Text: "data data", CreatedAt: old}, 3},
		{"personality", Candidate{PersonalityTypes: []string{"creator", "Analyst"}, CreatedAt: old}, 4},
		{"featured", Candidate{Featured: true, CreatedAt: old}, 2},
		{"high rating", Candidate{Rating: 4.5, CreatedAt: old}, 2},
		{"rating just below", Candidate{Rating: 4.49, CreatedAt: old}, 0},
		{"this week", Candidate{CreatedAt: now.Add(-7 * day)}, 3},
		{"this month", Candidate{CreatedAt: now.Add(-8 * day)}, 2},
		{"this quarter", Candidate{CreatedAt: now.Add(-90 * day)}, 1},
		{"future", Candidate{CreatedAt: now.Add(day)}, 3},
		{
			"everything",
			Candidate{
				Tags:             []string{"go"},
				Text:             "design systems",
				PersonalityTypes: []string{"analyst"},
				Featured:         true,
				Rating:           5,
				CreatedAt:        now,
			},
			3 + 1 + 4 + 2 + 2 + 3,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(profile, tc.c, now))
		})
	}
}

func TestScoreEmptyProfile(t *testing.T) {
	c := Candidate{Tags: []string{"go"}, Text: "go", PersonalityTypes: []string{"analyst"}, CreatedAt: now.Add(-100 * day)}
	assert.Equal(t, 0, Score(Profile{}, c, now))
}

func TestScoreIsMonotonicInMatchingTags(t *testing.T) {
	interests := []string{"go", "rust", "python", "sql", "cloud"}
	profile := Profile{Interests: interests}
	c := Candidate{Text: "go rust python sql cloud", CreatedAt: now.Add(-40 * day)}

	prev := Score(profile, c, now)
	for _, tag := range interests {
		c.Tags = append(c.Tags, tag)
		score := Score(profile, c, now)
		assert.GreaterOrEqual(t, score, prev, "tags: %v", c.Tags)
		prev = score
	}
}

func TestRank(t *testing.T) {
	type item struct {
		name    string
		tags    []string
		created time.Time
	}
	cand := func(it item) Candidate { return Candidate{Tags: it.tags, CreatedAt: it.created} }
	profile := Profile{Interests: []string{"go"}}
	old := now.Add(-200 * day)

	items := []item{
		{"a", nil, old},
		{"b", []string{"go"}, old},
		{"c", nil, old.Add(time.Hour)},
		{"d", nil, old},
		{"e", nil, now},
	}
	ranked := Rank(profile, items, cand, now)

	var names []string
	for _, r := range ranked {
		names = append(names, r.Item.name)
	}
	// b & e score 3 (e is newer), then c (newer) and the a/d tie in input order
	assert.Equal(t, []string{"e", "b", "c", "a", "d"}, names)
	assert.Equal(t, 3, ranked[0].Score)
}

func TestRankEmpty(t *testing.T) {
	ranked := Rank(Profile{Interests: []string{"go"}}, []Candidate(nil), func(c Candidate) Candidate { return c }, now)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}
