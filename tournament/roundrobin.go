package tournament

import (
	"context"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/promptmate"
)

// Tournament plays a double round robin over a roster: every pair meets
// twice, once per color assignment. Matches run as independent arenas under
// a bounded concurrency limit; ratings and tallies are settled as results
// come in.
type Tournament struct {
	Roster []*promptmate.Agent
	// Conf is the per-match template. Its agent ids and match id are
	// overwritten for every pairing.
	Conf promptmate.MatchConfig
	// K is the Elo K-factor; DefaultK when zero.
	K float32
	// Parallel caps how many matches play at once; 1 when zero.
	Parallel int
	// OnResult, when set, observes every finished match, e.g. to archive it.
	OnResult func(id string, conf promptmate.MatchConfig, res *promptmate.MatchResult)

	logger *zap.Logger
	mu     sync.Mutex // settles ratings and tallies across match goroutines
}

// Standing is one row of the final table.
type Standing struct {
	ID     string
	Name   string
	Rating float32
	Wins   float32
	Draw   float32
	Loss   float32
}

// New builds a tournament over the roster with conf as the match template.
func New(roster []*promptmate.Agent, conf promptmate.MatchConfig, logger *zap.Logger) *Tournament {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tournament{Roster: roster, Conf: conf, logger: logger}
}

// Run plays every pairing and returns the final standings. Individual match
// failures (a misconfigured pairing, a cancelled context) are collected
// rather than aborting the rest of the schedule.
func (t *Tournament) Run(ctx context.Context) ([]Standing, error) {
	if len(t.Roster) < 2 {
		return nil, errors.New("a tournament needs at least two agents")
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	for _, ag := range t.Roster {
		ag.ResetStats()
		if ag.Rating == 0 {
			ag.Rating = DefaultRating
		}
	}

	var jobs [][2]*promptmate.Agent
	for _, pair := range combin.Combinations(len(t.Roster), 2) {
		x, y := t.Roster[pair[0]], t.Roster[pair[1]]
		jobs = append(jobs, [2]*promptmate.Agent{x, y}, [2]*promptmate.Agent{y, x})
	}
	t.logger.Info("tournament started",
		zap.Int("agents", len(t.Roster)), zap.Int("matches", len(jobs)))

	sem := make(chan struct{}, t.parallel())
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var errs error
	for _, j := range jobs {
		if ctx.Err() != nil {
			errMu.Lock()
			errs = multierror.Append(errs, ctx.Err())
			errMu.Unlock()
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(white, black *promptmate.Agent) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := t.playOne(ctx, white, black); err != nil {
				errMu.Lock()
				errs = multierror.Append(errs, err)
				errMu.Unlock()
			}
		}(j[0], j[1])
	}
	wg.Wait()
	return t.Standings(), errs
}

// playOne runs a single match on fresh agent seats, so concurrent matches
// never share mutable state, then settles its outcome.
func (t *Tournament) playOne(ctx context.Context, white, black *promptmate.Agent) error {
	conf := t.Conf
	conf.ID = ""
	w := promptmate.NewAgent(white.ID, white.Name, white.Caller)
	b := promptmate.NewAgent(black.ID, black.Name, black.Caller)
	arena, err := promptmate.NewArena(conf, w, b, t.logger)
	if err != nil {
		return errors.WithMessagef(err, "pairing %s vs %s", white.ID, black.ID)
	}

	var res *promptmate.MatchResult
	for ev := range arena.Play(ctx) {
		if end, ok := ev.(promptmate.EndEvent); ok {
			r := end.Result
			res = &r
		}
	}
	if res == nil {
		return errors.Errorf("match %s aborted", arena.ID())
	}

	t.settle(white, black, res)
	if t.OnResult != nil {
		t.OnResult(arena.ID(), arena.Config(), res)
	}
	return nil
}

func (t *Tournament) settle(white, black *promptmate.Agent, res *promptmate.MatchResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var score float32
	switch res.Winner {
	case chess.White:
		score = 1
		white.Wins++
		black.Loss++
	case chess.Black:
		score = 0
		black.Wins++
		white.Loss++
	default:
		score = 0.5
		white.Draw++
		black.Draw++
	}
	k := t.K
	if k == 0 {
		k = DefaultK
	}
	white.Rating, black.Rating = Update(white.Rating, black.Rating, score, k)
}

// Standings returns the table sorted by rating, wins and name.
func (t *Tournament) Standings() []Standing {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := make([]Standing, 0, len(t.Roster))
	for _, ag := range t.Roster {
		s = append(s, Standing{
			ID:     ag.ID,
			Name:   ag.Name,
			Rating: ag.Rating,
			Wins:   ag.Wins,
			Draw:   ag.Draw,
			Loss:   ag.Loss,
		})
	}
	sort.Slice(s, func(i, j int) bool {
		if s[i].Rating != s[j].Rating {
			return s[i].Rating > s[j].Rating
		}
		if s[i].Wins != s[j].Wins {
			return s[i].Wins > s[j].Wins
		}
		return s[i].Name < s[j].Name
	})
	return s
}

func (t *Tournament) parallel() int {
	if t.Parallel <= 0 {
		return 1
	}
	return t.Parallel
}
