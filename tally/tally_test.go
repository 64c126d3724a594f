package tally_test

import (
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/sedipro/sufragio/models"
	. "github.com/sedipro/sufragio/tally"
)

// ballots builds n ballots of the given type; candidateID is ignored for
// blank and null ballots.
func ballots(n int, voteType models.VoteType, candidateID string) []models.Ballot {
	out := make([]models.Ballot, 0, n)
	for i := 0; i < n; i++ {
		b := models.Ballot{
			ID:       fmt.Sprintf("%s-%s-%d", voteType, candidateID, i),
			Position: models.PositionTI,
			VoteType: voteType,
			Round:    models.RoundRegular,
		}
		if voteType == models.VoteValid {
			id := candidateID
			b.CandidateID = &id
		}
		out = append(out, b)
	}
	return out
}

func join(sets ...[]models.Ballot) []models.Ballot {
	var out []models.Ballot
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

var _ = Describe("ComputeRound", func() {

	var roster []models.Candidate

	BeforeEach(func() {
		roster = []models.Candidate{
			{ID: "cand-a", Name: "Roberto Silva", Position: models.PositionTI},
			{ID: "cand-b", Name: "Patricia Luna", Position: models.PositionTI},
			{ID: "cand-c", Name: "Diego Fuentes", Position: models.PositionTI},
		}
	})

	It("should return a neutral result for a round with no ballots", func() {
		res := ComputeRound(nil, roster, false)
		Ω(res.Total).Should(BeZero())
		Ω(res.IsVoid).Should(BeFalse())
		Ω(res.Winner).Should(BeNil())
		Ω(res.NeedsRunoff).Should(BeFalse())
		Ω(res.SecondRoundTie).Should(BeFalse())
		Ω(res.Top2).Should(BeEmpty())
		Ω(res.PerCandidate).Should(HaveLen(3))
		Ω(res.PerCandidate["cand-a"].Votes).Should(BeZero())
	})

	It("should keep blank + null + valid equal to total", func() {
		for blank := 0; blank < 4; blank++ {
			for null := 0; null < 4; null++ {
				for valid := 0; valid < 4; valid++ {
					res := ComputeRound(join(
						ballots(blank, models.VoteBlank, ""),
						ballots(null, models.VoteNull, ""),
						ballots(valid, models.VoteValid, "cand-a"),
					), roster, false)
					Ω(res.Blank + res.Null + res.Valid).Should(Equal(res.Total))
					Ω(res.Total).Should(Equal(blank + null + valid))
				}
			}
		}
	})

	It("should count only valid ballots toward candidates", func() {
		res := ComputeRound(join(
			ballots(2, models.VoteValid, "cand-a"),
			ballots(1, models.VoteValid, "cand-b"),
			ballots(1, models.VoteBlank, ""),
			ballots(1, models.VoteNull, ""),
		), roster, false)

		Ω(res.PerCandidate["cand-a"]).Should(Equal(CandidateTally{Name: "Roberto Silva", Votes: 2}))
		Ω(res.PerCandidate["cand-b"].Votes).Should(Equal(1))
		Ω(res.PerCandidate["cand-c"].Votes).Should(BeZero())
		Ω(res.Valid).Should(Equal(3))
	})

	Context("void by blank and null ballots", func() {

		It("should not be void at exactly two thirds", func() {
			res := ComputeRound(join(
				ballots(1, models.VoteBlank, ""),
				ballots(1, models.VoteNull, ""),
				ballots(1, models.VoteValid, "cand-a"),
			), roster, false)
			Ω(res.IsVoid).Should(BeFalse())
			Ω(res.Winner).ShouldNot(BeNil())
		})

		It("should be void above two thirds", func() {
			res := ComputeRound(join(
				ballots(2, models.VoteBlank, ""),
				ballots(1, models.VoteNull, ""),
			), roster, false)
			Ω(res.IsVoid).Should(BeTrue())
			Ω(res.Winner).Should(BeNil())
			Ω(res.NeedsRunoff).Should(BeFalse())
		})

		It("should not declare a winner in a void round with valid votes", func() {
			res := ComputeRound(join(
				ballots(7, models.VoteBlank, ""),
				ballots(3, models.VoteValid, "cand-a"),
			), roster, false)
			Ω(res.IsVoid).Should(BeTrue())
			Ω(res.Winner).Should(BeNil())
			Ω(res.NeedsRunoff).Should(BeFalse())
		})

		It("should match the floor formulation for every small total", func() {
			for total := 1; total <= 30; total++ {
				for bn := 0; bn <= total; bn++ {
					Ω(IsVoid(bn, 0, total)).Should(Equal(bn > (2*total)/3), "total=%d blank+null=%d", total, bn)				}
			}
		})
	})

	Context("majority", func() {

		It("should compute floor(valid/2)+1", func() {
			Ω(Majority(0)).Should(Equal(1))
			Ω(Majority(7)).Should(Equal(4))
			Ω(Majority(8)).Should(Equal(5))
		})

		It("should declare a winner reaching exactly the majority", func() {
			res := ComputeRound(join(
				ballots(4, models.VoteValid, "cand-a"),
				ballots(2, models.VoteValid, "cand-b"),
				ballots(1, models.VoteValid, "cand-c"),
			), roster, false)
			Ω(res.Majority).Should(Equal(4))
			Ω(res.Winner).ShouldNot(BeNil())
			Ω(*res.Winner).Should(Equal("cand-a"))
			Ω(res.NeedsRunoff).Should(BeFalse())
		})

		It("should exclude blanks and nulls from the majority denominator", func() {
			res := ComputeRound(join(
				ballots(3, models.VoteValid, "cand-a"),
				ballots(2, models.VoteValid, "cand-b"),
				ballots(3, models.VoteBlank, ""),
			), roster, false)
			Ω(res.Majority).Should(Equal(3))
			Ω(*res.Winner).Should(Equal("cand-a"))
		})

		It("should require a runoff between the top two without a majority", func() {
			res := ComputeRound(join(
				ballots(4, models.VoteValid, "cand-a"),
				ballots(3, models.VoteValid, "cand-b"),
				ballots(2, models.VoteValid, "cand-c"),
			), roster, false)
			Ω(res.Majority).Should(Equal(5))
			Ω(res.Winner).Should(BeNil())
			Ω(res.NeedsRunoff).Should(BeTrue())
			Ω(res.Top2).Should(Equal([]string{"cand-a", "cand-b"}))
		})
	})

	Context("first place ties", func() {

		It("should send a round 1 tie to runoff even above the majority", func() {
			res := ComputeRound(join(
				ballots(5, models.VoteValid, "cand-b"),
				ballots(5, models.VoteValid, "cand-a"),
				ballots(3, models.VoteValid, "cand-c"),
			), roster, false)
			Ω(res.NeedsRunoff).Should(BeTrue())
			Ω(res.Winner).Should(BeNil())
			Ω(res.SecondRoundTie).Should(BeFalse())
			Ω(res.Top2).Should(ConsistOf("cand-a", "cand-b"))
		})

		It("should flag a round 2 tie for manual intervention", func() {
			res := ComputeRound(join(
				ballots(5, models.VoteValid, "cand-a"),
				ballots(5, models.VoteValid, "cand-b"),
			), roster, true)
			Ω(res.SecondRoundTie).Should(BeTrue())
			Ω(res.NeedsRunoff).Should(BeFalse())
			Ω(res.Winner).Should(BeNil())
			Ω(res.TiebreakMessage).ShouldNot(BeNil())
			Ω(*res.TiebreakMessage).Should(Equal(TiebreakMessage))
		})

		It("should declare a round 2 winner without a tie", func() {
			res := ComputeRound(join(
				ballots(6, models.VoteValid, "cand-a"),
				ballots(4, models.VoteValid, "cand-b"),
			), roster, true)
			Ω(*res.Winner).Should(Equal("cand-a"))
			Ω(res.SecondRoundTie).Should(BeFalse())
			Ω(res.TiebreakMessage).Should(BeNil())
		})
	})

	It("should declare a sole candidate with any valid vote the winner", func() {
		res := ComputeRound(ballots(1, models.VoteValid, "cand-c"), roster, false)
		Ω(*res.Winner).Should(Equal("cand-c"))
	})

	It("should still decide with ballots for a deleted candidate", func() {
		res := ComputeRound(join(
			ballots(3, models.VoteValid, "deleted"),
			ballots(1, models.VoteValid, "cand-a"),
		), roster, false)
		Ω(*res.Winner).Should(Equal("deleted"))
		Ω(res.PerCandidate).ShouldNot(HaveKey("deleted"))
	})
})

var _ = Describe("PresidencyQuorumVoid", func() {

	It("should be void at exactly half of the registry", func() {
		Ω(PresidencyQuorumVoid(10, 5)).Should(BeTrue())
	})

	It("should not be void above half of the registry", func() {
		Ω(PresidencyQuorumVoid(10, 6)).Should(BeFalse())
	})

	It("should use floor division for odd registries", func() {
		Ω(PresidencyQuorumVoid(11, 5)).Should(BeTrue())
		Ω(PresidencyQuorumVoid(11, 6)).Should(BeFalse())
	})
})

var _ = Describe("BuildResults", func() {

	var inputs []PositionInput

	BeforeEach(func() {
		presi := []models.Candidate{
			{ID: "p1", Name: "Alejandro Mendoza", Position: models.PositionPresidencia},
			{ID: "p2", Name: "Isabella Vargas", Position: models.PositionPresidencia},
		}
		inputs = []PositionInput{
			{
				Position: models.PositionTI,
				Round1:   ballots(2, models.VoteValid, "t1"),
			},
			{
				Position: models.PositionPresidencia,
				Roster:   presi,
				Round1: join(
					ballots(3, models.VoteValid, "p1"),
					ballots(2, models.VoteValid, "p2"),
				),
			},
		}
	})

	It("should omit round 2 when no runoff ballots exist", func() {
		res := BuildResults(Participation{TotalRegistered: 10, VotedPresidency: 5}, inputs)
		Ω(res.Positions).Should(HaveLen(2))
		Ω(res.Positions[models.PositionTI].Round2).Should(BeNil())
		Ω(res.Positions[models.PositionTI].Candidates).ShouldNot(BeNil())
		Ω(res.Positions[models.PositionTI].Label).Should(Equal("Dirección de Tecnología de la Información"))
	})

	It("should tally round 2 with runoff semantics", func() {
		inputs[0].Round2 = join(
			ballots(1, models.VoteValid, "t1"),
			ballots(1, models.VoteValid, "t2"),
		)
		res := BuildResults(Participation{}, inputs)
		r2 := res.Positions[models.PositionTI].Round2
		Ω(r2).ShouldNot(BeNil())
		Ω(r2.SecondRoundTie).Should(BeTrue())
	})

	It("should attach the quorum determination to the presidency only", func() {
		res := BuildResults(Participation{TotalRegistered: 10, VotedPresidency: 5}, inputs)
		presi := res.Positions[models.PositionPresidencia]
		Ω(presi.QuorumVoid).ShouldNot(BeNil())
		Ω(*presi.QuorumVoid).Should(BeTrue())
		Ω(presi.QuorumDetail).Should(Equal(&QuorumDetail{TotalRegistered: 10, VotesCast: 5, Threshold: 6}))
		Ω(res.Positions[models.PositionTI].QuorumVoid).Should(BeNil())

		res = BuildResults(Participation{TotalRegistered: 10, VotedPresidency: 6}, inputs)
		Ω(*res.Positions[models.PositionPresidencia].QuorumVoid).Should(BeFalse())
	})

	It("should leave the quorum undecided before any presidency vote", func() {
		res := BuildResults(Participation{TotalRegistered: 10}, inputs)
		Ω(res.Positions[models.PositionPresidencia].QuorumVoid).Should(BeNil())
	})

	It("should let both void rules apply independently", func() {
		inputs[1].Round1 = ballots(6, models.VoteBlank, "")
		res := BuildResults(Participation{TotalRegistered: 20, VotedPresidency: 6}, inputs)
		presi := res.Positions[models.PositionPresidencia]
		Ω(presi.Round1.IsVoid).Should(BeTrue())
		Ω(*presi.QuorumVoid).Should(BeTrue())
	})
})
