package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"lock-in/internal/logger"
	"lock-in/internal/metrics"
	"lock-in/internal/models"
)

const DefaultDashboardConcurrency = 8

// ChallengeLister is the catalog the reconciler cross-references
type ChallengeLister interface {
	ListActiveChallenges(ctx context.Context) ([]models.Challenge, error)
}

// DashboardService builds "my challenges" from the catalog and the
// per-user participation flags.
type DashboardService struct {
	catalog     ChallengeLister
	chain       ParticipationReader
	concurrency int
	now         func() time.Time
	log         zerolog.Logger
}

func NewDashboardService(catalog ChallengeLister, chain ParticipationReader, concurrency int) *DashboardService {
	if concurrency <= 0 {
		concurrency = DefaultDashboardConcurrency
	}
	return &DashboardService{
		catalog:     catalog,
		chain:       chain,
		concurrency: concurrency,
		now:         time.Now,
		log:         logger.Component("dashboard"),
	}
}

// MyChallenges returns the joined challenges of user. A failing check drops
// that challenge into Unavailable; the others still complete. Rows come back
// in completion order.
func (s *DashboardService) MyChallenges(ctx context.Context, user common.Address) (*models.Dashboard, error) {
	return s.reconcile(ctx, user, false)
}

// MyChallengesWithStakes also reads the staked amount of every joined row
func (s *DashboardService) MyChallengesWithStakes(ctx context.Context, user common.Address) (*models.Dashboard, error) {
	return s.reconcile(ctx, user, true)
}

func (s *DashboardService) reconcile(ctx context.Context, user common.Address, withStakes bool) (*models.Dashboard, error) {
	challenges, err := s.catalog.ListActiveChallenges(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu          sync.Mutex
		rows        = make([]models.MyChallenge, 0, len(challenges))
		unavailable []uint64
		errs        *multierror.Error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, c := range challenges {
		c := c
		g.Go(func() error {
			row, ok, err := s.check(gctx, c, user, withStakes)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				unavailable = append(unavailable, c.ID)
				errs = multierror.Append(errs, fmt.Errorf("challenge %d: %w", c.ID, err))
			case ok:
				rows = append(rows, row)
			}
			// failures are collected, never returned, so siblings keep running
			return nil
		})
	}
	_ = g.Wait()

	dashboard := &models.Dashboard{
		User:       user.Hex(),
		Challenges: rows,
		FetchedAt:  s.now().UTC(),
	}
	if errs != nil {
		sort.Slice(unavailable, func(i, j int) bool { return unavailable[i] < unavailable[j] })
		dashboard.Unavailable = unavailable
		for _, e := range errs.Errors {
			dashboard.Warnings = append(dashboard.Warnings, e.Error())
		}
		metrics.DashboardUnavailable.Add(float64(len(unavailable)))
		s.log.Warn().Err(errs.ErrorOrNil()).Str("user", user.Hex()).Int("unavailable", len(unavailable)).Msg("some participation checks failed")
	}
	return dashboard, nil
}

// check reads hasJoined and, only when joined, hasSubmitted. ok is false for
// challenges the user never joined.
func (s *DashboardService) check(ctx context.Context, c models.Challenge, user common.Address, withStake bool) (models.MyChallenge, bool, error) {
	joined, err := s.chain.HasJoined(ctx, c.ID, user)
	if err != nil {
		return models.MyChallenge{}, false, fmt.Errorf("hasJoined: %w", err)
	}
	if !joined {
		return models.MyChallenge{}, false, nil
	}

	submitted, err := s.chain.HasSubmitted(ctx, c.ID, user)
	if err != nil {
		return models.MyChallenge{}, false, fmt.Errorf("hasSubmitted: %w", err)
	}
	row := models.NewMyChallenge(c, submitted)

	if withStake {
		stake, err := s.chain.UserStake(ctx, c.ID, user)
		if err != nil {
			return models.MyChallenge{}, false, fmt.Errorf("userStakes: %w", err)
		}
		row.Stake = bigString(stake)
	}
	return row, true, nil
}

// SortByChallengeID orders dashboard rows by id for stable output
func SortByChallengeID(rows []models.MyChallenge) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Challenge.ID < rows[j].Challenge.ID })
}
