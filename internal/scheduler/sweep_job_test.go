package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSweeper struct {
	unstamped []uuid.UUID
	stale     []uuid.UUID
	failStart uuid.UUID
	starts    []uuid.UUID
	ends      []uuid.UUID
}

func (s *stubSweeper) CurrentUnstamped(context.Context, time.Time) ([]uuid.UUID, error) {
	return s.unstamped, nil
}

func (s *stubSweeper) EndedStillStamped(context.Context, time.Time) ([]uuid.UUID, error) {
	return s.stale, nil
}

func (s *stubSweeper) ApplyCampaignStart(_ context.Context, campaignID uuid.UUID) error {
	if campaignID == s.failStart {
		return errors.New("stamp failed")
	}
	s.starts = append(s.starts, campaignID)
	return nil
}

func (s *stubSweeper) ApplyCampaignEnd(_ context.Context, campaignID uuid.UUID) error {
	s.ends = append(s.ends, campaignID)
	return nil
}

func TestSweepRepairsBothDirections(t *testing.T) {
	missed := uuid.New()
	stale := uuid.New()
	sweeper := &stubSweeper{
		unstamped: []uuid.UUID{missed},
		stale:     []uuid.UUID{stale},
	}
	job, err := NewSweepJob(SweepJobParams{Logger: newTestLogger(), FlashSales: sweeper})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []uuid.UUID{missed}, sweeper.starts)
	assert.Equal(t, []uuid.UUID{stale}, sweeper.ends)
}

func TestSweepNoopWhenHealthy(t *testing.T) {
	sweeper := &stubSweeper{}
	job, err := NewSweepJob(SweepJobParams{Logger: newTestLogger(), FlashSales: sweeper})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, sweeper.starts)
	assert.Empty(t, sweeper.ends)
}

func TestSweepContinuesPastFailures(t *testing.T) {
	failing := uuid.New()
	healthy := uuid.New()
	stale := uuid.New()
	sweeper := &stubSweeper{
		unstamped: []uuid.UUID{failing, healthy},
		stale:     []uuid.UUID{stale},
		failStart: failing,
	}
	job, err := NewSweepJob(SweepJobParams{Logger: newTestLogger(), FlashSales: sweeper})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	// The failure of one campaign does not block the others.
	assert.Equal(t, []uuid.UUID{healthy}, sweeper.starts)
	assert.Equal(t, []uuid.UUID{stale}, sweeper.ends)
}
