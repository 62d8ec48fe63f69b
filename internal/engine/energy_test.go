package engine

import (
	"testing"

	"cogscheduler/backend/internal/model"
)

func TestCircadianBaseRange(t *testing.T) {
	for _, chrono := range []string{model.ChronotypeEarly, model.ChronotypeNormal, model.ChronotypeLate} {
		for h := 0.0; h < 24; h += 0.25 {
			c := circadianBase(h, chrono)
			if c < 0.4 || c > 1.0 {
				t.Fatalf("circadianBase(%.2f, %s) = %.3f outside [0.4, 1.0]", h, chrono, c)
			}
		}
	}
}

func TestCircadianPeakFollowsChronotype(t *testing.T) {
	peaks := map[string]float64{
		model.ChronotypeEarly:  10,
		model.ChronotypeNormal: 11,
		model.ChronotypeLate:   15,
	}
	for chrono, want := range peaks {
		best, bestH := 0.0, 0.0
		for h := 6.0; h <= 22; h += 0.25 {
			if c := circadianBase(h, chrono); c > best {
				best, bestH = c, h
			}
		}
		if bestH < want-1 || bestH > want+1 {
			t.Errorf("%s chronotype peaks at %.2f, want near %.0f", chrono, bestH, want)
		}
	}
}

func TestCircadianTroughAtFour(t *testing.T) {
	for _, chrono := range []string{model.ChronotypeEarly, model.ChronotypeNormal, model.ChronotypeLate} {
		if c := circadianBase(4, chrono); c > 0.45 {
			t.Errorf("%s at 04:00 = %.3f, expected near the floor", chrono, c)
		}
	}
}

func TestEnergyModelBounds(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		sleep  float64
		stress int
	}{
		{7.5, 1}, {3, 5}, {12, 3}, {0, 5},
	}
	for _, c := range cases {
		em := NewEnergyModel(model.ChronotypeNormal, c.sleep, c.stress, p)
		for m := 0; m < 24*60; m += 30 {
			e := em.At(m)
			if e < 0 || e > 1 {
				t.Fatalf("E(%d) = %.3f outside [0,1] (sleep=%.1f stress=%d)", m, e, c.sleep, c.stress)
			}
		}
	}
}

func TestSleepDebtLowersEnergy(t *testing.T) {
	p := DefaultParams()
	rested := NewEnergyModel(model.ChronotypeNormal, 8, 2, p)
	tired := NewEnergyModel(model.ChronotypeNormal, 4, 2, p)
	noon := 12 * 60
	if tired.At(noon) >= rested.At(noon) {
		t.Errorf("4h sleep energy %.3f not below 8h sleep energy %.3f", tired.At(noon), rested.At(noon))
	}
}

func TestStressLowersEnergy(t *testing.T) {
	p := DefaultParams()
	calm := NewEnergyModel(model.ChronotypeNormal, 7.5, 1, p)
	stressed := NewEnergyModel(model.ChronotypeNormal, 7.5, 5, p)
	noon := 12 * 60
	diff := calm.At(noon) - stressed.At(noon)
	if diff < 0.1 || diff > 0.14 {
		t.Errorf("stress decay for level 5 = %.3f, want about 0.12", diff)
	}
}
