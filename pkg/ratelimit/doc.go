// Package ratelimit provides request pacing for the Civitai API.
//
// The listing endpoint is paged; civsync inserts a fixed courtesy delay
// between page requests rather than negotiating limits with the service.
//
// Interface:
//
// All pacers implement the Limiter interface:
//   - Allow() bool - Check if a request may proceed now
//   - Wait() - Block until a request may proceed
//   - Reset() - Reset the pacer state
//
// Usage:
//
//	// One request per second between listing pages
//	pacer := ratelimit.NewFixedInterval(time.Second)
//
//	pacer.Wait()
//	// Proceed with request
package ratelimit
