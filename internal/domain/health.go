package domain

// HealthStatus is the outcome of a single diagnostic.
type HealthStatus string

const (
	HealthOK    HealthStatus = "ok"
	HealthWarn  HealthStatus = "warn"
	HealthError HealthStatus = "error"
)

// HealthCheck is one line of the doctor report.
type HealthCheck struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Details string       `json:"details"`
}

// HealthReport collects diagnostics in the order they ran.
type HealthReport struct {
	Checks []HealthCheck `json:"checks"`
}

// Failed reports whether any check errored. Warnings do not count.
func (r HealthReport) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == HealthError {
			return true
		}
	}
	return false
}
