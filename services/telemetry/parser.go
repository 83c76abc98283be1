package telemetry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"

	"hwpanel-go/errcode"
	"hwpanel-go/types"
)

// Parser decodes the metrics document served by the host agent:
//
//	{
//	  "cpu":   {"load": 12.5, "temp": 54, "power": 61.2, "fan": 38},
//	  "gpu":   {"load": 3, "temp": 41, "power": 18.4, "fan": 0},
//	  "ram":   {"load": 47.1},
//	  "cores": [10.2, 4.0, 33.3]
//	}
//
// cpu.load and cpu.temp are required; everything else defaults to zero.
type Parser struct {
	MaxCores int
}

const (
	minTemp = -50
	maxTemp = 150
)

func (p Parser) Parse(data []byte) (types.MetricsSnapshot, error) {
	var s types.MetricsSnapshot
	var err error

	if s.CPU.Load, err = required(data, "cpu", "load"); err != nil {
		return types.MetricsSnapshot{}, err
	}
	if s.CPU.Temp, err = required(data, "cpu", "temp"); err != nil {
		return types.MetricsSnapshot{}, err
	}

	fields := []struct {
		dst  *float64
		path []string
	}{
		{&s.CPU.Power, []string{"cpu", "power"}},
		{&s.CPU.Fan, []string{"cpu", "fan"}},
		{&s.GPU.Load, []string{"gpu", "load"}},
		{&s.GPU.Temp, []string{"gpu", "temp"}},
		{&s.GPU.Power, []string{"gpu", "power"}},
		{&s.GPU.Fan, []string{"gpu", "fan"}},
		{&s.RAMLoad, []string{"ram", "load"}},
	}
	for _, f := range fields {
		if *f.dst, err = optional(data, f.path...); err != nil {
			return types.MetricsSnapshot{}, err
		}
	}

	if s.CoreLoads, err = p.cores(data); err != nil {
		return types.MetricsSnapshot{}, err
	}
	if err := validate(&s); err != nil {
		return types.MetricsSnapshot{}, err
	}
	return s, nil
}

func (p Parser) cores(data []byte) ([]float64, error) {
	var out []float64
	var bad error
	_, err := jsonparser.ArrayEach(data, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
		if bad != nil || (p.MaxCores > 0 && len(out) >= p.MaxCores) {
			return
		}
		if t != jsonparser.Number {
			bad = fmt.Errorf("core %d: not a number", len(out))
			return
		}
		f, err := jsonparser.ParseFloat(v)
		if err != nil {
			bad = fmt.Errorf("core %d: %w", len(out), err)
			return
		}
		out = append(out, f)
	}, "cores")
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		return nil, nil
	case err != nil:
		return nil, errcode.Wrap(errcode.ParseFailed, "telemetry.parse", err)
	case bad != nil:
		return nil, errcode.Wrap(errcode.ParseFailed, "telemetry.parse", bad)
	}
	return out, nil
}

func required(data []byte, path ...string) (float64, error) {
	v, err := jsonparser.GetFloat(data, path...)
	if err != nil {
		return 0, &errcode.E{C: errcode.ParseFailed, Op: "telemetry.parse", Msg: strings.Join(path, "."), Err: err}
	}
	return v, nil
}

func optional(data []byte, path ...string) (float64, error) {
	v, err := jsonparser.GetFloat(data, path...)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return 0, nil
	}
	if err != nil {
		return 0, &errcode.E{C: errcode.ParseFailed, Op: "telemetry.parse", Msg: strings.Join(path, "."), Err: err}
	}
	return v, nil
}

func validate(s *types.MetricsSnapshot) error {
	pct := func(name string, v float64) error {
		if v < 0 || v > 100 {
			return &errcode.E{C: errcode.InvalidReading, Op: "telemetry.validate", Msg: fmt.Sprintf("%s=%.1f outside 0..100", name, v)}
		}
		return nil
	}
	checks := []error{
		pct("cpu.load", s.CPU.Load),
		pct("cpu.fan", s.CPU.Fan),
		pct("gpu.load", s.GPU.Load),
		pct("gpu.fan", s.GPU.Fan),
		pct("ram.load", s.RAMLoad),
	}
	for i, c := range s.CoreLoads {
		checks = append(checks, pct(fmt.Sprintf("cores[%d]", i), c))
	}
	for _, t := range []struct {
		name string
		v    float64
	}{{"cpu.temp", s.CPU.Temp}, {"gpu.temp", s.GPU.Temp}} {
		if t.v < minTemp || t.v > maxTemp {
			checks = append(checks, &errcode.E{C: errcode.InvalidReading, Op: "telemetry.validate", Msg: fmt.Sprintf("%s=%.1f outside %d..%d", t.name, t.v, minTemp, maxTemp)})
		}
	}
	if s.CPU.Power < 0 || s.GPU.Power < 0 {
		checks = append(checks, &errcode.E{C: errcode.InvalidReading, Op: "telemetry.validate", Msg: "negative power"})
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}
