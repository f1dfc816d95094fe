package strategy

import (
	"fmt"

	"github.com/derekprior/matchday/internal/league"
)

// Strategy generates the pairings for a season.
type Strategy interface {
	GeneratePairings(teams []league.Team, doubleRound bool) ([]league.Pairing, error)
}

// Get returns a Strategy by name. An empty name selects round_robin.
func Get(name string) (Strategy, error) {
	switch name {
	case "", "round_robin":
		return &RoundRobin{}, nil
	case "circle":
		return &Circle{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
}

// GeneratePairings is the default round robin generator.
func GeneratePairings(teams []league.Team, doubleRound bool) ([]league.Pairing, error) {
	return (&RoundRobin{}).GeneratePairings(teams, doubleRound)
}

// RoundRobin pairs every team with every later team in roster order, the
// earlier team at home. The second half mirrors the first with the other
// side at home.
type RoundRobin struct{}

func (s *RoundRobin) GeneratePairings(teams []league.Team, doubleRound bool) ([]league.Pairing, error) {
	if err := checkSize(teams); err != nil {
		return nil, err
	}

	n := len(teams)
	pairings := make([]league.Pairing, 0, PairingCount(n, doubleRound))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairings = append(pairings, pair(teams[i], teams[j]))
		}
	}
	if doubleRound {
		pairings = append(pairings, reversed(teams, pairings)...)
	}
	return pairings, nil
}

// Circle is the circle (Berger) method: one team stays fixed while the
// rest rotate, giving n-1 rounds of n/2 disjoint pairings. Home sides
// alternate so no team is more than one home game ahead or behind within
// a half. Pairings are emitted in round order.
type Circle struct{}

func (s *Circle) GeneratePairings(teams []league.Team, doubleRound bool) ([]league.Pairing, error) {
	if err := checkSize(teams); err != nil {
		return nil, err
	}

	n := len(teams)
	order := make([]league.Team, n)
	copy(order, teams)

	pairings := make([]league.Pairing, 0, PairingCount(n, doubleRound))
	for round := 0; round < n-1; round++ {
		for i := 0; i < n/2; i++ {
			home, away := order[i], order[n-1-i]
			swap := i%2 == 1
			if i == 0 {
				swap = round%2 == 1
			}
			if swap {
				home, away = away, home
			}
			pairings = append(pairings, pair(home, away))
		}

		// Rotate everyone except the first team
		last := order[n-1]
		copy(order[2:], order[1:n-1])
		order[1] = last
	}
	if doubleRound {
		pairings = append(pairings, reversed(teams, pairings)...)
	}
	return pairings, nil
}

// PairingCount is n(n-1)/2 for a single round robin, n(n-1) for a double.
func PairingCount(n int, doubleRound bool) int {
	count := n * (n - 1) / 2
	if doubleRound {
		count *= 2
	}
	return count
}

func checkSize(teams []league.Team) error {
	if len(teams) < 2 || len(teams)%2 != 0 {
		return fmt.Errorf("%w: %d teams, need an even number of at least 2", league.ErrInvalidRosterSize, len(teams))
	}
	return nil
}

func pair(home, away league.Team) league.Pairing {
	return league.Pairing{Home: home.ID, Away: away.ID, Venue: home.Venue}
}

// reversed swaps home and away for every pairing. The venue follows the new
// home side.
func reversed(teams []league.Team, first []league.Pairing) []league.Pairing {
	venues := make(map[string]string, len(teams))
	for _, t := range teams {
		venues[t.ID] = t.Venue
	}
	second := make([]league.Pairing, len(first))
	for i, p := range first {
		second[i] = league.Pairing{Home: p.Away, Away: p.Home, Venue: venues[p.Away]}
	}
	return second
}
