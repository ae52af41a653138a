package kinematics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// NumericConfig tunes the damped pseudo-inverse iteration.
type NumericConfig struct {
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`

	PositionTolerance    float64 `yaml:"position_tolerance" json:"position_tolerance"`       // mm
	OrientationTolerance float64 `yaml:"orientation_tolerance" json:"orientation_tolerance"` // rad

	// Damping scales every update, in (0, 1].
	Damping float64 `yaml:"damping" json:"damping"`

	// MaxStep caps the largest joint change per iteration, radians.
	MaxStep float64 `yaml:"max_step" json:"max_step"`

	// JacobianStep is the finite-difference step, radians.
	JacobianStep float64 `yaml:"jacobian_step" json:"jacobian_step"`
}

// DefaultNumericConfig returns tolerances of 0.5 mm and 0.01 rad.
func DefaultNumericConfig() NumericConfig {
	return NumericConfig{
		MaxIterations:        100,
		PositionTolerance:    0.5,
		OrientationTolerance: 0.01,
		Damping:              0.7,
		MaxStep:              0.35,
		JacobianStep:         1e-6,
	}
}

// Validate checks that the configuration is valid.
func (c *NumericConfig) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.PositionTolerance <= 0 || c.OrientationTolerance <= 0 {
		return fmt.Errorf("tolerances must be positive")
	}
	if c.Damping <= 0 || c.Damping > 1 {
		return fmt.Errorf("damping must be in (0, 1], got %v", c.Damping)
	}
	if c.MaxStep <= 0 {
		return fmt.Errorf("max_step must be positive, got %v", c.MaxStep)
	}
	if c.JacobianStep <= 0 {
		return fmt.Errorf("jacobian_step must be positive, got %v", c.JacobianStep)
	}
	return nil
}

// Numeric solves by iterating a damped Moore-Penrose step on a
// finite-difference Jacobian.
type Numeric struct {
	chain Chain
	cfg   NumericConfig
}

// NewNumeric creates an iterative solver.
func NewNumeric(chain Chain, cfg NumericConfig) *Numeric {
	return &Numeric{chain: chain, cfg: cfg}
}

// Solve iterates over all joints from seed. When the budget runs out the
// last iterate is returned with Converged false together with
// ErrNotConverged.
func (n *Numeric) Solve(target Pose, seed Joints) (Solution, error) {
	return n.iterate(target, seed, []int{0, 1, 2, 3, 4, 5}, false)
}

// SolveWrist holds joints 1..3 of prev and iterates the wrist joints on
// orientation error only.
func (n *Numeric) SolveWrist(target Pose, prev Joints) (Solution, error) {
	return n.iterate(target, prev, []int{3, 4, 5}, true)
}

func (n *Numeric) iterate(target Pose, seed Joints, free []int, orientationOnly bool) (Solution, error) {
	q := toRadians(n.chain.Clamp(seed))

	rows := []int{0, 1, 2, 3, 4, 5}
	if orientationOnly {
		rows = rows[3:]
	}

	for it := 0; it < n.cfg.MaxIterations; it++ {
		cur := poseOf(n.chain.frame(q, NumJoints))
		dp, do := n.residual(target, cur)
		if n.within(dp, do, orientationOnly) {
			return n.solution(q, target, it, true), nil
		}

		e := pick([]float64{dp.X, dp.Y, dp.Z, do.X, do.Y, do.Z}, rows)
		j := n.jacobian(q, cur, rows, free)

		var dq mat.VecDense
		if !step(&dq, j, mat.NewVecDense(len(e), e)) {
			break
		}
		n.advance(&q, &dq, free)
	}

	sol := n.solution(q, target, n.cfg.MaxIterations, false)
	if sol.OrientationError < n.cfg.OrientationTolerance &&
		(orientationOnly || sol.PositionError < n.cfg.PositionTolerance) {
		sol.Converged = true
		return sol, nil
	}
	return sol, fmt.Errorf("%w after %d iterations: %.2f mm, %.3f rad",
		ErrNotConverged, n.cfg.MaxIterations, sol.PositionError, sol.OrientationError)
}

// residual returns the position error and the rotation vector error.
func (n *Numeric) residual(target, cur Pose) (r3.Vector, r3.Vector) {
	return target.Position.Sub(cur.Position), RotationError(target.Rotation, cur.Rotation)
}

func (n *Numeric) within(dp, do r3.Vector, orientationOnly bool) bool {
	if do.Norm() >= n.cfg.OrientationTolerance {
		return false
	}
	return orientationOnly || dp.Norm() < n.cfg.PositionTolerance
}

// jacobian differentiates the selected pose rows numerically around q,
// one column per free joint.
func (n *Numeric) jacobian(q [NumJoints]float64, cur Pose, rows, free []int) *mat.Dense {
	h := n.cfg.JacobianStep
	j := mat.NewDense(len(rows), len(free), nil)
	for c, i := range free {
		qh := q
		qh[i] += h
		p := poseOf(n.chain.frame(qh, NumJoints))
		dp := p.Position.Sub(cur.Position).Mul(1 / h)
		do := RotationError(p.Rotation, cur.Rotation).Mul(1 / h)
		j.SetCol(c, pick([]float64{dp.X, dp.Y, dp.Z, do.X, do.Y, do.Z}, rows))
	}
	return j
}

// step writes pinv(J)·e into dq. It reports false when J is degenerate.
func step(dq *mat.VecDense, j *mat.Dense, e *mat.VecDense) bool {
	var svd mat.SVD
	if !svd.Factorize(j, mat.SVDThin) {
		return false
	}
	rank := svd.Rank(1e-10)
	if rank == 0 {
		return false
	}
	svd.SolveVecTo(dq, e, rank)
	return true
}

// advance applies the damped, capped update to the free joints, then
// wraps and clamps them.
func (n *Numeric) advance(q *[NumJoints]float64, dq *mat.VecDense, free []int) {
	dq.ScaleVec(n.cfg.Damping, dq)
	if m := mat.Norm(dq, math.Inf(1)); m > n.cfg.MaxStep {
		dq.ScaleVec(n.cfg.MaxStep/m, dq)
	}
	for c, i := range free {
		v := wrap(q[i] + dq.AtVec(c))
		lo := n.chain.Limits[i][0] * math.Pi / 180
		hi := n.chain.Limits[i][1] * math.Pi / 180
		q[i] = math.Max(lo, math.Min(hi, v))
	}
}

func (n *Numeric) solution(q [NumJoints]float64, target Pose, iterations int, converged bool) Solution {
	sol := Solution{Joints: toDegrees(q), Converged: converged, Iterations: iterations}
	sol.measure(&n.chain, target)
	return sol
}

func pick(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = v[i]
	}
	return out
}
