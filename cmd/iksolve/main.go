// iksolve: offline forward/inverse kinematics for the 6-DOF arm
//
// Usage:
//
//	go run ./cmd/iksolve -pose 150,0,150,0,180,0
//	go run ./cmd/iksolve -pose 200,50,120,10,170,0 -method numeric -json
//	go run ./cmd/iksolve -joints 0,-30,60,0,45,0
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-leaparm/pkg/command"
	"github.com/teslashibe/go-leaparm/pkg/kinematics"
)

var (
	poseFlag   = flag.String("pose", "", "Target pose x,y,z,rx,ry,rz (mm, degrees)")
	jointsFlag = flag.String("joints", "", "Joint angles a0..a5 in degrees (forward kinematics)")
	method     = flag.String("method", "analytic", "IK method: analytic or numeric")
	elbow      = flag.String("elbow", "up", "Elbow branch: up or down")
	unit       = flag.String("unit", "rad", "IK command rotation unit: rad or deg")
	asJSON     = flag.Bool("json", false, "Print JSON instead of commands")
)

// Result is the JSON output.
type Result struct {
	Command  string               `json:"command"`
	Position r3.Vector            `json:"position"`
	Rotation [3]float64           `json:"rotation"`
	Solution *kinematics.Solution `json:"solution,omitempty"`
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := kinematics.DefaultConfig()
	cfg.Method = kinematics.Method(*method)
	cfg.Elbow = kinematics.ElbowBranch(*elbow)
	if err := cfg.Validate(); err != nil {
		return err
	}

	enc, err := command.NewEncoder(command.DefaultMaxBytes, command.RotationUnit(*unit))
	if err != nil {
		return err
	}

	switch {
	case *poseFlag != "" && *jointsFlag != "":
		return errors.New("use either -pose or -joints")

	case *jointsFlag != "":
		v, err := parseFloats(*jointsFlag, kinematics.NumJoints)
		if err != nil {
			return fmt.Errorf("joints: %w", err)
		}
		var q kinematics.Joints
		copy(q[:], v)
		return forward(cfg.Chain, q, enc)

	case *poseFlag != "":
		v, err := parseFloats(*poseFlag, 6)
		if err != nil {
			return fmt.Errorf("pose: %w", err)
		}
		return inverse(cfg, v, enc)
	}

	flag.Usage()
	return errors.New("one of -pose or -joints is required")
}

func forward(chain kinematics.Chain, q kinematics.Joints, enc *command.Encoder) error {
	p := chain.Forward(q)
	yaw, pitch, roll := kinematics.ToEulerZYX(p.Rotation)
	rx, ry, rz := deg(yaw), deg(roll), deg(pitch)

	res := enc.IK(round(p.Position), rx, ry, rz)
	return output(Result{
		Command:  res.Payload,
		Position: p.Position,
		Rotation: [3]float64{rx, ry, rz},
	})
}

func inverse(cfg kinematics.Config, v []float64, enc *command.Encoder) error {
	solver, err := kinematics.NewSolver(cfg)
	if err != nil {
		return err
	}
	target := kinematics.NewPose(r3.Vector{X: v[0], Y: v[1], Z: v[2]}, v[3], v[4], v[5])

	sol, err := solver.Solve(target, kinematics.Joints{})
	if err != nil && !errors.Is(err, kinematics.ErrNotConverged) {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	res := enc.Joints(cfg.Chain.Clamp(sol.Joints))
	return output(Result{Command: res.Payload, Solution: &sol})
}

func output(r Result) error {
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	fmt.Println(r.Command)
	if r.Solution != nil {
		fmt.Printf("   converged=%v iterations=%d position_error=%.3fmm orientation_error=%.4frad\n",
			r.Solution.Converged, r.Solution.Iterations, r.Solution.PositionError, r.Solution.OrientationError)
	}
	return nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated values, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func deg(rad float64) float64 { return rad * 180 / math.Pi }

func round(v r3.Vector) r3.Vector {
	return r3.Vector{X: math.Round(v.X), Y: math.Round(v.Y), Z: math.Round(v.Z)}
}
