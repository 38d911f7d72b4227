package main

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"
	"github.com/Adrieliyo/risk-advisor-backend/internal/evaluator"
	"github.com/Adrieliyo/risk-advisor-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_Shape(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryStore()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	sum, err := seed(ctx, repo, domain.DefaultThresholds(), rand.New(rand.NewSource(7)), now)
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Drivers)
	assert.Equal(t, 4, sum.Trips)
	assert.GreaterOrEqual(t, sum.Readings, 4*5)
	assert.LessOrEqual(t, sum.Readings, 4*15)

	inactive := false
	off, err := repo.ListDrivers(ctx, repository.DriverFilter{Active: &inactive})
	require.NoError(t, err)
	require.Len(t, off, 1)
	assert.Equal(t, "Ana Martínez", off[0].Name)

	trips, err := repo.ListTrips(ctx, repository.TripFilter{})
	require.NoError(t, err)
	active := 0
	for _, tr := range trips {
		if tr.IsActive() {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

// Every generated alert matches what the rule engine says about its reading.
func TestSeed_AlertsConsistentWithReadings(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryStore()
	th := domain.DefaultThresholds()

	sum, err := seed(ctx, repo, th, rand.New(rand.NewSource(42)), time.Now().UTC())
	require.NoError(t, err)

	trips, err := repo.ListTrips(ctx, repository.TripFilter{})
	require.NoError(t, err)

	expected := 0
	for _, tr := range trips {
		readings, _, err := repo.LoadTripReadingsAndAlertCount(ctx, tr.TripID)
		require.NoError(t, err)
		for _, r := range readings {
			d, err := evaluator.Evaluate(r, th)
			require.NoError(t, err)
			expected += len(d)
		}
	}
	assert.Equal(t, expected+len(seedManualAlerts), sum.Alerts)
}
