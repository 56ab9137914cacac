package simulator

import (
	"math"
	"math/rand"
	"time"
)

// Pattern shapes a base metric value over time so simulated resources
// produce realistic load curves instead of flat noise.
type Pattern interface {
	Apply(base float64) float64
	Name() string
}

var (
	PatternSteady      Pattern = &SteadyPattern{}
	PatternDaily       Pattern = &DailyPattern{}
	PatternWeekly      Pattern = &WeeklyPattern{}
	PatternRandom      Pattern = &RandomPattern{}
	PatternGradualRise Pattern = &GradualRisePattern{startTime: time.Now()}
)

func ParsePattern(name string) Pattern {
	switch name {
	case "daily":
		return PatternDaily
	case "weekly":
		return PatternWeekly
	case "random":
		return PatternRandom
	case "gradual_rise":
		return &GradualRisePattern{startTime: time.Now()}
	case "sine_wave":
		return &SineWavePattern{}
	default:
		return PatternSteady
	}
}

// SteadyPattern keeps the load constant.
type SteadyPattern struct{}

func (p *SteadyPattern) Apply(base float64) float64 { return base }
func (p *SteadyPattern) Name() string               { return "steady" }

// DailyPattern follows a business-hours traffic cycle.
type DailyPattern struct{}

func (p *DailyPattern) Apply(base float64) float64 {
	hour := time.Now().Hour()

	var modifier float64
	switch {
	case hour >= 9 && hour <= 11:
		modifier = 1.4
	case hour >= 14 && hour <= 16:
		modifier = 1.3
	case hour >= 17 && hour <= 20:
		modifier = 1.1
	case hour >= 0 && hour <= 6:
		modifier = 0.6
	default:
		modifier = 1.0
	}

	return clamp(base * modifier)
}

func (p *DailyPattern) Name() string { return "daily" }

// WeeklyPattern adds a weekend reduction on top of the daily cycle.
type WeeklyPattern struct{}

func (p *WeeklyPattern) Apply(base float64) float64 {
	now := time.Now()
	weekday := now.Weekday()
	hour := now.Hour()

	modifier := 1.0
	if weekday == time.Saturday || weekday == time.Sunday {
		modifier = 0.5
	} else {
		switch {
		case hour >= 9 && hour <= 11:
			modifier = 1.4
		case hour >= 14 && hour <= 16:
			modifier = 1.3
		case hour >= 0 && hour <= 6:
			modifier = 0.6
		}
	}

	return clamp(base * modifier)
}

func (p *WeeklyPattern) Name() string { return "weekly" }

// RandomPattern produces unpredictable swings between half and
// one-and-a-half times the base.
type RandomPattern struct{}

func (p *RandomPattern) Apply(base float64) float64 {
	modifier := 0.5 + rand.Float64()
	result := base * modifier
	if result < 10 {
		result = 10
	}
	return clamp(result)
}

func (p *RandomPattern) Name() string { return "random" }

// GradualRisePattern increases load by 2% per minute, capped at +50%.
// Useful for exercising trend detection and forecasting.
type GradualRisePattern struct {
	startTime time.Time
}

func (p *GradualRisePattern) Apply(base float64) float64 {
	minutes := time.Since(p.startTime).Minutes()
	increase := math.Min(minutes*2, 50)
	return clamp(base * (1.0 + increase/100))
}

func (p *GradualRisePattern) Name() string { return "gradual_rise" }

// SineWavePattern oscillates smoothly around the base.
type SineWavePattern struct {
	Period    time.Duration
	Amplitude float64
}

func (p *SineWavePattern) Apply(base float64) float64 {
	period := p.Period
	if period == 0 {
		period = 10 * time.Minute
	}
	amplitude := p.Amplitude
	if amplitude == 0 {
		amplitude = 20
	}

	phase := (float64(time.Now().UnixNano()) / float64(period.Nanoseconds())) * 2 * math.Pi
	result := base + math.Sin(phase)*amplitude
	if result < 10 {
		result = 10
	}
	return clamp(result)
}

func (p *SineWavePattern) Name() string { return "sine_wave" }

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
