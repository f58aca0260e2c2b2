package domain_test

import (
	"testing"

	"fanbridge/internal/domain"
)

func TestPWMForSpeed_TablePoints(t *testing.T) {
	want := map[int]int{1: 51, 2: 89, 3: 127, 4: 191, 5: 255}

	for speed, pwm := range want {
		got, ok := domain.PWMForSpeed(speed)
		if !ok {
			t.Fatalf("speed %d not mapped", speed)
		}
		if got != pwm {
			t.Errorf("speed %d: got pwm %d, want %d", speed, got, pwm)
		}
	}
}

func TestPWMForSpeed_Monotonic(t *testing.T) {
	prev := 0
	for speed := domain.SpeedMin; speed <= domain.SpeedMax; speed++ {
		pwm, ok := domain.PWMForSpeed(speed)
		if !ok {
			t.Fatalf("speed %d not mapped", speed)
		}
		if pwm <= prev {
			t.Errorf("pwm not strictly increasing at speed %d: %d <= %d", speed, pwm, prev)
		}
		prev = pwm
	}
}

func TestPWMForSpeed_OutOfRange(t *testing.T) {
	for _, speed := range []int{-1, 0, 6, 100} {
		if _, ok := domain.PWMForSpeed(speed); ok {
			t.Errorf("speed %d should not map", speed)
		}
	}
}
