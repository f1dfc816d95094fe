package schedule

import (
	"fmt"
	"math/rand"

	"github.com/derekprior/matchday/internal/league"
)

// AssignOptions controls how pairings are spread across matchdays.
type AssignOptions struct {
	Matchdays int
	Capacity  int // max pairings per matchday, normally teams/2

	// AvoidVenueClash treats two pairings at the same venue as a conflict
	// during the strict pass.
	AvoidVenueClash bool

	Seed     int64
	Attempts int // shuffles to try; the one needing fewest relaxed placements wins
}

// Assignment is the output of Assign.
type Assignment struct {
	Matchdays []league.Matchday
	Relaxed   []league.Pairing // placed ignoring the conflict rules
	Warnings  []string
	Seed      int64 // seed of the winning attempt
}

// Assign distributes pairings over opts.Matchdays matchdays. Each attempt
// shuffles the pairings, places them first-fit where no team (and
// optionally no venue) is already playing, then forces whatever is left
// into the first matchday with room. Forced placements are reported in
// Relaxed and Warnings.
func Assign(pairings []league.Pairing, opts AssignOptions) (*Assignment, error) {
	if opts.Matchdays <= 0 || opts.Capacity <= 0 {
		return nil, fmt.Errorf("%w: need at least one matchday and a positive capacity (got %d matchdays, capacity %d)",
			league.ErrInfeasibleSchedule, opts.Matchdays, opts.Capacity)
	}
	if total := opts.Matchdays * opts.Capacity; total < len(pairings) {
		return nil, fmt.Errorf("%w: %d pairings do not fit in %d matchdays of %d (%d places)",
			league.ErrInfeasibleSchedule, len(pairings), opts.Matchdays, opts.Capacity, total)
	}

	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var best *placement
	for attempt := range attempts {
		seed := opts.Seed + int64(attempt)
		rng := rand.New(rand.NewSource(seed))
		shuffled := make([]league.Pairing, len(pairings))
		copy(shuffled, pairings)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		candidate := newPlacement(opts, seed)
		candidate.place(shuffled)
		if best == nil || len(candidate.relaxed) < len(best.relaxed) {
			best = candidate
		}
		if len(best.relaxed) == 0 {
			break
		}
	}

	return best.result(), nil
}

type placement struct {
	opts AssignOptions
	seed int64

	days    [][]league.Pairing
	teams   []map[string]bool // per matchday: team id -> playing
	venues  []map[string]bool // per matchday: venue -> in use
	relaxed []relaxedPlacement
}

type relaxedPlacement struct {
	day     int
	pairing league.Pairing
	clashes []string
}

func newPlacement(opts AssignOptions, seed int64) *placement {
	p := &placement{
		opts:   opts,
		seed:   seed,
		days:   make([][]league.Pairing, opts.Matchdays),
		teams:  make([]map[string]bool, opts.Matchdays),
		venues: make([]map[string]bool, opts.Matchdays),
	}
	for d := range p.days {
		p.days[d] = make([]league.Pairing, 0, opts.Capacity)
		p.teams[d] = make(map[string]bool, 2*opts.Capacity)
		p.venues[d] = make(map[string]bool, opts.Capacity)
	}
	return p
}

func (p *placement) place(pairings []league.Pairing) {
	var unplaced []league.Pairing

	// Strict pass
	for _, pr := range pairings {
		placed := false
		for d := range p.days {
			if p.fits(d, pr) {
				p.add(d, pr)
				placed = true
				break
			}
		}
		if !placed {
			unplaced = append(unplaced, pr)
		}
	}

	// Relaxed pass: capacity is the only rule left. Assign has already
	// checked there is enough of it.
	for _, pr := range unplaced {
		for d := range p.days {
			if len(p.days[d]) >= p.opts.Capacity {
				continue
			}
			p.relaxed = append(p.relaxed, relaxedPlacement{day: d, pairing: pr, clashes: p.clashes(d, pr)})
			p.add(d, pr)
			break
		}
	}
}

func (p *placement) fits(d int, pr league.Pairing) bool {
	if len(p.days[d]) >= p.opts.Capacity {
		return false
	}
	if p.teams[d][pr.Home] || p.teams[d][pr.Away] {
		return false
	}
	if p.opts.AvoidVenueClash && p.venues[d][pr.Venue] {
		return false
	}
	return true
}

func (p *placement) clashes(d int, pr league.Pairing) []string {
	var out []string
	for _, team := range []string{pr.Home, pr.Away} {
		if p.teams[d][team] {
			out = append(out, team)
		}
	}
	if p.opts.AvoidVenueClash && p.venues[d][pr.Venue] {
		out = append(out, pr.Venue)
	}
	return out
}

func (p *placement) add(d int, pr league.Pairing) {
	p.days[d] = append(p.days[d], pr)
	p.teams[d][pr.Home] = true
	p.teams[d][pr.Away] = true
	p.venues[d][pr.Venue] = true
}

func (p *placement) result() *Assignment {
	a := &Assignment{
		Matchdays: make([]league.Matchday, len(p.days)),
		Seed:      p.seed,
	}
	for d, pairings := range p.days {
		a.Matchdays[d] = league.Matchday{Number: d + 1, Pairings: pairings}
	}
	for _, r := range p.relaxed {
		a.Relaxed = append(a.Relaxed, r.pairing)
		a.Warnings = append(a.Warnings, fmt.Sprintf("matchday %d: %s force-placed despite clash on %v",
			r.day+1, r.pairing, r.clashes))
	}
	return a
}
