// Package feed ranks catalog rows by relevance to a member's profile.
package feed

import (
	"sort"
	"strings"
	"time"

	"github.com/trezcool/elimu/core"
)

// Score bonuses
const (
	TagMatchBonus         = 3
	TextMatchBonus        = 1
	PersonalityMatchBonus = 4
	FeaturedBonus         = 2
	HighRatingBonus       = 2
	HighRating            = 4.5
)

const day = 24 * time.Hour

type (
	// Profile is what is known of the member the feed is built for.
	Profile struct {
		Interests       []string
		PersonalityType string
	}

	// Candidate is the scoring view of a catalog row.
	Candidate struct {
		Tags             []string
		Text             string
		PersonalityTypes []string
		Featured         bool
		Rating           float64
		CreatedAt        time.Time
	}

	Scored[T any] struct {
		Item  T   `json:"item"`
		Score int `json:"score"`
	}

	ranked[T any] struct {
		Scored[T]
		created time.Time
	}
)

func recencyBonus(created, now time.Time) int {
	age := now.Sub(created)
	switch {
	case age <= 7*day:
		return 3
	case age <= 30*day:
		return 2
	case age <= 90*day:
		return 1
	default:
		return 0
	}
}

// Score sums the bonuses of c for p. Interests matched by a tag are not looked up in the text again,
// so the score never decreases when a tag matches.
func Score(p Profile, c Candidate, now time.Time) int {
	score := 0
	matched := make(map[string]bool, len(p.Interests))
	for _, interest := range p.Interests {
		interest = strings.ToLower(strings.TrimSpace(interest))
		if interest == "" || matched[interest] {
			continue
		}
		if core.HasTag(c.Tags, interest) {
			score += TagMatchBonus
			matched[interest] = true
		}
	}
	for _, interest := range p.Interests {
		interest = strings.ToLower(strings.TrimSpace(interest))
		if interest == "" || matched[interest] {
			continue
		}
		matched[interest] = true // count each interest once
		if core.ContainsFold(c.Text, interest) {
			score += TextMatchBonus
		}
	}

	if p.PersonalityType != "" && core.HasTag(c.PersonalityTypes, p.PersonalityType) {
		score += PersonalityMatchBonus
	}
	if c.Featured {
		score += FeaturedBonus
	}
	if c.Rating >= HighRating {
		score += HighRatingBonus
	}
	return score + recencyBonus(c.CreatedAt, now)
}

// Rank scores items and sorts them by score, then newest first. The sort is stable.
func Rank[T any](p Profile, items []T, candidate func(T) Candidate, now time.Time) []Scored[T] {
	rs := make([]ranked[T], 0, len(items))
	for _, item := range items {
		c := candidate(item)
		rs = append(rs, ranked[T]{Scored: Scored[T]{Item: item, Score: Score(p, c, now)}, created: c.CreatedAt})
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Score != rs[j].Score {
			return rs[i].Score > rs[j].Score
		}
		return rs[i].created.After(rs[j].created)
	})

	out := make([]Scored[T], 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Scored)
	}
	return out
}
