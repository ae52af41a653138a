package kinematics

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const degTol = math.Pi / 180

func randomJoints(rng *rand.Rand) Joints {
	return Joints{
		rng.Float64()*360 - 180,
		rng.Float64()*180 - 90,
		rng.Float64()*180 - 90,
		rng.Float64()*360 - 180,
		rng.Float64()*360 - 180,
		rng.Float64()*360 - 180,
	}
}

func assertJointRange(t *testing.T, q Joints) {
	t.Helper()
	for i, v := range q {
		assert.False(t, math.IsNaN(v), "joint %d is NaN", i)
		assert.Greater(t, v, -180.0-1e-9, "joint %d", i)
		assert.LessOrEqual(t, v, 180.0+1e-9, "joint %d", i)
	}
}

func TestForwardZeroPose(t *testing.T) {
	chain := DefaultChain()
	got := chain.Forward(Joints{})
	want := r3.Vector{X: 252.625, Y: 0, Z: 136.1 + 214.6 + 119.47}
	assert.InDelta(t, want.X, got.Position.X, 1e-9)
	assert.InDelta(t, want.Y, got.Position.Y, 1e-9)
	assert.InDelta(t, want.Z, got.Position.Z, 1e-9)
}

func TestAnalyticRoundTrip(t *testing.T) {
	chain := DefaultChain()
	for _, branch := range []ElbowBranch{ElbowUp, ElbowDown} {
		t.Run(string(branch), func(t *testing.T) {
			solver, err := NewAnalytic(chain, branch)
			require.NoError(t, err)

			rng := rand.New(rand.NewSource(1))
			for n := 0; n < 300; n++ {
				target := chain.Forward(randomJoints(rng))
				sol, err := solver.Solve(target, Joints{})
				require.NoError(t, err)
				assertJointRange(t, sol.Joints)

				got := chain.Forward(sol.Joints)
				assert.LessOrEqual(t, got.Position.Distance(target.Position), 1.0)
				assert.LessOrEqual(t, RotationError(target.Rotation, got.Rotation).Norm(), degTol)
			}
		})
	}
}

func TestAnalyticRestPose(t *testing.T) {
	chain := DefaultChain()
	solver, err := NewAnalytic(chain, ElbowUp)
	require.NoError(t, err)

	target := NewPose(r3.Vector{X: 150, Y: 0, Z: 150}, 0, 180, 0)
	sol, err := solver.Solve(target, Joints{})
	require.NoError(t, err)
	assert.True(t, sol.Converged)
	assert.Less(t, sol.PositionError, 1e-6)
	assert.Less(t, sol.OrientationError, 1e-6)
	assert.InDelta(t, 0, sol.Joints[0], 1e-6)
}

func TestAnalyticBranchesDiffer(t *testing.T) {
	chain := DefaultChain()
	up, _ := NewAnalytic(chain, ElbowUp)
	down, _ := NewAnalytic(chain, ElbowDown)

	target := NewPose(r3.Vector{X: 150, Y: 0, Z: 150}, 0, 180, 0)
	a, err := up.Solve(target, Joints{})
	require.NoError(t, err)
	b, err := down.Solve(target, Joints{})
	require.NoError(t, err)
	assert.NotEqual(t, a.Joints[2], b.Joints[2])
}

func TestAnalyticUnreachable(t *testing.T) {
	solver, err := NewAnalytic(DefaultChain(), ElbowUp)
	require.NoError(t, err)

	for _, p := range []r3.Vector{{X: 2000}, {Z: -3000}, {X: 600, Y: 600, Z: 600}} {
		sol, err := solver.Solve(NewPose(p, 0, 180, 0), Joints{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnreachable))
		assertJointRange(t, sol.Joints)
	}
}

func TestAnalyticWristSingularity(t *testing.T) {
	chain := DefaultChain()
	// elbow-down matches arm configurations with the elbow angle in [-90, 90]
	solver, err := NewAnalytic(chain, ElbowDown)
	require.NoError(t, err)

	tests := []struct {
		name string
		q    Joints
	}{
		{"wrist straight", Joints{10, -40, 30, 25, 0, 15}},
		{"wrist folded", Joints{-20, -30, 45, 0, 180, 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := chain.Forward(tt.q)
			sol, err := solver.Solve(target, Joints{})
			require.NoError(t, err)
			assert.Equal(t, 0.0, sol.Joints[3])
			assert.Less(t, sol.PositionError, 1e-6)
			assert.Less(t, sol.OrientationError, 1e-6)
		})
	}
}

func TestSolveWristKeepsArmJoints(t *testing.T) {
	chain := DefaultChain()
	solver, err := NewAnalytic(chain, ElbowUp)
	require.NoError(t, err)

	q := Joints{30, -50, 20, 40, 60, -70}
	target := chain.Forward(q)

	prev := q
	prev[3], prev[4], prev[5] = 0, 10, 0
	sol, err := solver.SolveWrist(target, prev)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, q[i], sol.Joints[i], 1e-9)
	}
	assert.Less(t, sol.PositionError, 1e-6)
	assert.Less(t, sol.OrientationError, 1e-6)
}

func TestNewAnalyticValidation(t *testing.T) {
	_, err := NewAnalytic(DefaultChain(), "sideways")
	assert.Error(t, err)

	chain := DefaultChain()
	chain.Links[1].A = 0
	_, err = NewAnalytic(chain, ElbowUp)
	assert.Error(t, err)

	chain = DefaultChain()
	chain.Limits[2] = [2]float64{10, -10}
	_, err = NewAnalytic(chain, ElbowUp)
	assert.Error(t, err)
}
