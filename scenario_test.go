package tlefit

import (
	"testing"
	"time"
)

func TestReferenceScenario(t *testing.T) {
	s := ReferenceScenario()
	if err := s.Validate(); err != nil {
		t.Fatalf("reference scenario invalid: %s", err)
	}
	if s.SMA != 7000 || s.Duration != 24*time.Hour || s.SampleStep != time.Minute {
		t.Fatalf("reference scenario drifted: %+v", s)
	}
}

func TestScenarioValidate(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*ScenarioConfig)
	}{
		{"mass", func(s *ScenarioConfig) { s.SC.Mass = 0 }},
		{"area", func(s *ScenarioConfig) { s.SC.Area = -1 }},
		{"cd", func(s *ScenarioConfig) { s.SC.Cd = -0.1 }},
		{"cr", func(s *ScenarioConfig) { s.SC.Cr = -0.1 }},
		{"epoch", func(s *ScenarioConfig) { s.Epoch = time.Time{} }},
		{"sma", func(s *ScenarioConfig) { s.SMA = 6000 }},
		{"ecc", func(s *ScenarioConfig) { s.Ecc = 1.2 }},
		{"duration", func(s *ScenarioConfig) { s.Duration = -time.Hour }},
		{"step", func(s *ScenarioConfig) { s.SampleStep = 0 }},
		{"number", func(s *ScenarioConfig) { s.Identity.Number = 123456 }},
		{"classification", func(s *ScenarioConfig) { s.Identity.Classification = "X" }},
		{"launch piece", func(s *ScenarioConfig) { s.Identity.LaunchPiece = "ABCD" }},
		{"element number", func(s *ScenarioConfig) { s.Identity.ElementNumber = 10000 }},
	}
	for _, tc := range cases {
		s := ReferenceScenario()
		tc.mutate(&s)
		if err := s.Validate(); err == nil {
			t.Errorf("%s: invalid scenario accepted", tc.field)
		}
	}
}
