package kinematics

import (
	"errors"
	"fmt"
)

// Method names an inverse kinematics strategy.
type Method string

const (
	MethodAnalytic Method = "analytic"
	MethodNumeric  Method = "numeric"
)

// Solution is the result of an inverse kinematics solve.
type Solution struct {
	Joints     Joints `json:"joints"`
	Converged  bool   `json:"converged"`
	Iterations int    `json:"iterations"`

	// Residuals of the forward pose against the target.
	PositionError    float64 `json:"position_error_mm"`
	OrientationError float64 `json:"orientation_error_rad"`
}

func (s *Solution) measure(chain *Chain, target Pose) {
	got := chain.Forward(s.Joints)
	s.PositionError = got.Position.Distance(target.Position)
	s.OrientationError = RotationError(target.Rotation, got.Rotation).Norm()
}

// Solver maps a target pose to a joint vector.
type Solver interface {
	// Solve returns joints in degrees, each in (-180, 180]. The seed is the
	// previous joint vector and may be ignored.
	Solve(target Pose, seed Joints) (Solution, error)
}

// WristSolver is implemented by solvers that can re-solve orientation only.
type WristSolver interface {
	SolveWrist(target Pose, prev Joints) (Solution, error)
}

// Config selects and tunes the solver.
type Config struct {
	Method Method `yaml:"method" json:"method"`

	// Elbow is a calibration parameter verified against the real arm.
	Elbow ElbowBranch `yaml:"elbow" json:"elbow"`

	// NumericFallback retries unreachable analytic targets numerically.
	NumericFallback bool `yaml:"numeric_fallback" json:"numeric_fallback"`

	Numeric NumericConfig `yaml:"numeric" json:"numeric"`
	Chain   Chain         `yaml:"chain" json:"chain"`
}

// DefaultConfig returns the analytic solver on the default chain.
func DefaultConfig() Config {
	return Config{
		Method:  MethodAnalytic,
		Elbow:   ElbowUp,
		Numeric: DefaultNumericConfig(),
		Chain:   DefaultChain(),
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Method != MethodAnalytic && c.Method != MethodNumeric {
		return fmt.Errorf("method must be 'analytic' or 'numeric', got '%s'", c.Method)
	}
	if err := c.Chain.Validate(); err != nil {
		return err
	}
	return c.Numeric.Validate()
}

// NewSolver builds the solver described by cfg.
func NewSolver(cfg Config) (Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	numeric := NewNumeric(cfg.Chain, cfg.Numeric)
	if cfg.Method == MethodNumeric {
		return numeric, nil
	}

	analytic, err := NewAnalytic(cfg.Chain, cfg.Elbow)
	if err != nil {
		return nil, err
	}
	if !cfg.NumericFallback {
		return analytic, nil
	}
	return &fallback{Analytic: analytic, numeric: numeric}, nil
}

// fallback hands unreachable analytic targets to the numeric solver,
// seeded from the previous joints, for a best-effort answer.
type fallback struct {
	*Analytic
	numeric *Numeric
}

func (f *fallback) Solve(target Pose, seed Joints) (Solution, error) {
	sol, err := f.Analytic.Solve(target, seed)
	if errors.Is(err, ErrUnreachable) {
		return f.numeric.Solve(target, seed)
	}
	return sol, err
}
