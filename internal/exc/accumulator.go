// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import "sync"

// Reporter accumulates the failures of independent compile targets. A single
// assembly always stops at its first error. The reporter lets the driver keep
// assembling the other targets and show every failure at the end.
type Reporter interface {
	// Report adds the given record to the set. If this method returns an error
	// then the given error is considered fatal.
	Report(Exception) Exception
	// Reported returns the set of accumulated exceptions in report order.
	Reported() []Exception
}

// NewReporter returns a Reporter that is safe for concurrent use. Codes
// listed in nonFatal are recorded but Report returns nil for them.
func NewReporter(nonFatal []string) Reporter {
	r := &reporter{nonFatal: make(map[string]bool, len(defaultNonFatal)+len(nonFatal))}
	for k := range defaultNonFatal {
		r.nonFatal[k] = true
	}
	for _, k := range nonFatal {
		r.nonFatal[k] = true
	}
	return r
}

type reporter struct {
	lock     sync.Mutex
	reported []Exception
	nonFatal map[string]bool
}

func (r *reporter) Report(e Exception) Exception {
	if e == nil {
		return nil
	}
	r.lock.Lock()
	r.reported = append(r.reported, e)
	r.lock.Unlock()
	if r.nonFatal[e.Code()] {
		return nil
	}
	return e
}

func (r *reporter) Reported() []Exception {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]Exception, len(r.reported))
	copy(out, r.reported)
	return out
}
