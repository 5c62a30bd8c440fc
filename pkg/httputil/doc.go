// Package httputil provides the outbound call discipline shared by every
// statistics source client.
//
// # Overview
//
//   - [Limiter] / [RateLimits]: per-source sliding-window admission control
//   - [Do] / [Retry]: retry with exponential backoff
//
// # Rate limiting
//
// Each source gets its own [Limiter], owned by a [RateLimits] registry that
// is created once and injected into the source clients:
//
//	limits := httputil.NewRateLimits(map[string]httputil.Limit{
//	    "estat": httputil.PerSecond(10),
//	})
//	if err := limits.Wait(ctx, "estat"); err != nil {
//	    return err
//	}
//
// Sources without an entry get [DefaultLimit] (5 requests per second).
//
// # Retry
//
// [Do] wraps exactly one upstream call. It retries:
//
//   - transport failures wrapped in [RetryableError]
//   - errors whose HTTPStatus() is 429, 500, 502, 503 or 504
//
// Everything else, including malformed-payload errors, is returned on the
// first failure:
//
//	body, err := httputil.Do(ctx, httputil.DefaultPolicy(), func(ctx context.Context) ([]byte, error) {
//	    return fetch(ctx, url)
//	})
//
// # Configuration
//
// Default settings:
//
//   - Max retries: 3 (four attempts in total)
//   - Initial delay: 1 second, doubling, capped at 10 seconds
package httputil
