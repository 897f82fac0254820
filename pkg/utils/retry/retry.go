package retry

import "time"

// WithDelay runs fn up to tries times, sleeping delay between failed
// attempts. The last error is returned when every attempt fails.
func WithDelay(tries int, delay time.Duration, fn func() error) error {
	var err error

	for i := 0; i < tries; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		time.Sleep(delay)
	}

	return err
}
