package kinematics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ElbowBranch selects one of the two shoulder/elbow solutions.
type ElbowBranch string

const (
	// ElbowUp negates the elbow angle so the elbow sits above the
	// shoulder-to-wrist line for the usual working poses.
	ElbowUp ElbowBranch = "up"

	// ElbowDown keeps the positive elbow angle.
	ElbowDown ElbowBranch = "down"
)

// singularEps is the wrist singularity threshold on sin(q4).
const singularEps = 1e-9

// Analytic is a closed-form solver that decouples the arm into a
// position subproblem (joints 1..3) and a spherical wrist (joints 4..6).
type Analytic struct {
	chain  Chain
	branch ElbowBranch
}

// NewAnalytic creates a closed-form solver for the chain.
func NewAnalytic(chain Chain, branch ElbowBranch) (*Analytic, error) {
	if err := chain.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chain: %w", err)
	}
	if branch == "" {
		branch = ElbowUp
	}
	if branch != ElbowUp && branch != ElbowDown {
		return nil, fmt.Errorf("elbow branch must be 'up' or 'down', got '%s'", branch)
	}
	return &Analytic{chain: chain, branch: branch}, nil
}

// Solve returns the joint vector for target. The seed is ignored.
// Returns ErrUnreachable when the wrist center is out of reach.
func (a *Analytic) Solve(target Pose, _ Joints) (Solution, error) {
	var q [NumJoints]float64

	d0 := a.chain.Links[0].D
	a1 := a.chain.Links[1].A
	d3 := a.chain.Links[3].D
	d5 := a.chain.Links[5].D

	wc := target.Position.Sub(target.Approach().Mul(d5))
	q[0] = math.Atan2(wc.Y, wc.X)

	r := math.Hypot(wc.X, wc.Y)
	s := wc.Z - d0
	c := (r*r + s*s - a1*a1 - d3*d3) / (2 * a1 * d3)
	if math.IsNaN(c) || math.Abs(c) > 1 {
		return Solution{}, fmt.Errorf("%w: wrist center %.1f mm from shoulder", ErrUnreachable, math.Hypot(r, s))
	}

	e := math.Acos(c)
	if a.branch == ElbowUp {
		e = -e
	}
	phi := math.Atan2(s, r) - math.Atan2(d3*math.Sin(e), a1+d3*math.Cos(e))
	q[1] = -phi
	q[2] = math.Pi/2 - e

	a.solveWrist(&q, target)
	return a.solution(q, target), nil
}

// SolveWrist keeps joints 1..3 of prev and re-solves the wrist for the
// target orientation. It never fails.
func (a *Analytic) SolveWrist(target Pose, prev Joints) (Solution, error) {
	q := toRadians(prev)
	a.solveWrist(&q, target)
	return a.solution(q, target), nil
}

// solveWrist fills q[3..5] from q[0..2] and the target rotation. The wrist
// is a Z-Y-Z sequence relative to frame 3.
func (a *Analytic) solveWrist(q *[NumJoints]float64, target Pose) {
	r03 := a.chain.frame(*q, 3).Slice(0, 3, 0, 3)

	var w mat.Dense
	w.Mul(r03.T(), target.Rotation)

	s4 := math.Hypot(w.At(0, 2), w.At(1, 2))
	q[4] = math.Atan2(s4, w.At(2, 2))
	if s4 < singularEps {
		q[3] = 0
		if w.At(2, 2) > 0 {
			q[5] = math.Atan2(-w.At(0, 1), w.At(0, 0))
		} else {
			q[5] = math.Atan2(w.At(0, 1), -w.At(0, 0))
		}
		return
	}
	q[3] = math.Atan2(w.At(1, 2), w.At(0, 2))
	q[5] = math.Atan2(w.At(2, 1), -w.At(2, 0))
}

func (a *Analytic) solution(q [NumJoints]float64, target Pose) Solution {
	sol := Solution{Joints: toDegrees(q), Converged: true}
	sol.measure(&a.chain, target)
	return sol
}
