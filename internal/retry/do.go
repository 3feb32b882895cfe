package retry

import "time"

// Sleeper pauses between attempts. Tests substitute a recorder.
type Sleeper func(time.Duration)

// Do runs fn until it succeeds or the policy's attempts are exhausted, pausing
// p.Delay(n) between attempts. onFailure (optional) observes every failed
// attempt, including the last. The last error is returned on exhaustion.
func Do(p Policy, sleep Sleeper, fn func(attempt int) error, onFailure func(attempt int, err error)) error {
	if sleep == nil {
		sleep = time.Sleep
	}
	var err error
	for attempt := 1; attempt <= p.Attempts(); attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if onFailure != nil {
			onFailure(attempt, err)
		}
		if attempt < p.Attempts() {
			sleep(p.Delay(attempt))
		}
	}
	return err
}
