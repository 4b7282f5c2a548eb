package accounts

import "time"

// IsWithinThresholdPeriod checks if the given time is within the threshold
func IsWithinThresholdPeriod(t time.Time, pattern string) (bool, error) {
	duration, err := time.ParseDuration(pattern)
	if err != nil {
		return false, err
	}

	threshold := time.Now().Add(-duration)
	if t.After(threshold) {
		return true, nil
	}

	return false, nil
}

// IsOutsideThresholdPeriod is the negation of IsWithinThresholdPeriod
func IsOutsideThresholdPeriod(t time.Time, pattern string) (bool, error) {
	valid, err := IsWithinThresholdPeriod(t, pattern)
	if err != nil {
		return false, err
	}

	return !valid, nil
}

// InActivationWindow reports whether t falls inside the sliding activation
// window (now - days, now]. The window ends at the moment of the check, so
// a record stops being confirmable once it is older than the window.
func InActivationWindow(t, now time.Time, days int) bool {
	start := now.AddDate(0, 0, -days)
	return t.After(start) && !t.After(now)
}
