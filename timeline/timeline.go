// Package timeline computes the stage plan for an auction run: the ordered
// pause/turn slots for N bidders over a fixed number of rounds, and which
// slot indices open a new round.
package timeline

// DefaultRounds is the fixed round count for tender auctions.
const DefaultRounds = 3

type StagePlan struct {
	Bidders     int
	Rounds      int
	TotalStages int
	RoundStages []int
}

// Plan derives the stage plan for the given bidder count. Each round takes
// one pause plus one turn per bidder; a trailing stage closes the final
// round, giving (N+1)*R+1 stages. Zero bidders still yields a valid,
// boundary-only plan.
func Plan(bidders, rounds int) StagePlan {
	plan := StagePlan{
		Bidders:     bidders,
		Rounds:      rounds,
		TotalStages: (bidders+1)*rounds + 1,
	}
	for stage := 0; stage < plan.TotalStages; stage++ {
		if IsRoundStage(stage, bidders) {
			plan.RoundStages = append(plan.RoundStages, stage)
		}
	}
	return plan
}

// IsRoundStage reports whether the stage index opens a new round. The
// modulus is bidders+1, so the rule holds for zero bidders as well.
func IsRoundStage(stage, bidders int) bool {
	return (stage+bidders)%(bidders+1) == 0
}
