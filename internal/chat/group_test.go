package chat

import (
	"testing"
	"time"

	"github.com/ashureev/wildscan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByDate(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	at := func(id string, ts time.Time) *domain.ChatSession {
		return &domain.ChatSession{ID: id, UpdatedAt: ts}
	}
	sessions := []*domain.ChatSession{
		at("early-today", time.Date(2024, 1, 15, 0, 5, 0, 0, time.UTC)),
		at("late-yesterday", time.Date(2024, 1, 14, 23, 59, 0, 0, time.UTC)),
		at("three-days", time.Date(2024, 1, 12, 14, 0, 0, 0, time.UTC)),
		at("yesterday", time.Date(2024, 1, 14, 1, 0, 0, 0, time.UTC)),
		at("eight-days", time.Date(2024, 1, 7, 13, 0, 0, 0, time.UTC)),
		at("six-days", time.Date(2024, 1, 9, 16, 0, 0, 0, time.UTC)),
	}
	input := append([]*domain.ChatSession(nil), sessions...)

	groups := GroupByDate(sessions, now)
	require.Len(t, groups, 4)

	ids := func(g Group) []string {
		var out []string
		for _, s := range g.Sessions {
			out = append(out, s.ID)
		}
		return out
	}
	assert.Equal(t, GroupToday, groups[0].Label)
	assert.Equal(t, []string{"early-today"}, ids(groups[0]))
	assert.Equal(t, GroupYesterday, groups[1].Label)
	assert.Equal(t, []string{"late-yesterday", "yesterday"}, ids(groups[1]))
	assert.Equal(t, GroupThisWeek, groups[2].Label)
	assert.Equal(t, []string{"three-days", "six-days"}, ids(groups[2]))
	assert.Equal(t, GroupOlder, groups[3].Label)
	assert.Equal(t, []string{"eight-days"}, ids(groups[3]))

	assert.Equal(t, input, sessions, "grouping must not reorder the input")
}

func TestGroupByDateUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2024, 1, 15, 20, 0, 0, 0, loc)
	// 02:00 UTC on the 16th is still the 15th in UTC-5.
	sess := &domain.ChatSession{ID: "s", UpdatedAt: time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC)}

	groups := GroupByDate([]*domain.ChatSession{sess}, now)
	require.Len(t, groups, 1)
	assert.Equal(t, GroupToday, groups[0].Label)
}

func TestGroupByDateEmpty(t *testing.T) {
	assert.Empty(t, GroupByDate(nil, time.Now()))
}
