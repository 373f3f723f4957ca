package triggers

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"

	"github.com/dbankscard/hookguard/internal/domain"
)

// Test report states.
const (
	TestsUnknown = "unknown"
	TestsPassed  = "passed"
	TestsFailed  = "failed"
	TestsError   = "error"
)

// ParseJUnit counts testcases and failures in a JUnit style XML report.
// A testcase with several failure or error children counts once.
func ParseJUnit(content []byte) domain.TestStatus {
	dec := xml.NewDecoder(bytes.NewReader(content))
	var (
		total, failed int
		inCase        bool
		caseFailed    bool
		sawSuite      bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.TestStatus{Status: TestsError}
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "testsuite", "testsuites":
				sawSuite = true
			case "testcase":
				total++
				inCase, caseFailed = true, false
			case "failure", "error":
				if inCase && !caseFailed {
					failed++
					caseFailed = true
				}
			}
		case xml.EndElement:
			if el.Name.Local == "testcase" {
				inCase = false
			}
		}
	}
	if !sawSuite && total == 0 {
		return domain.TestStatus{Status: TestsUnknown}
	}
	status := TestsPassed
	if failed > 0 {
		status = TestsFailed
	}
	return domain.TestStatus{Status: status, Passed: total - failed, Failed: failed, Total: total}
}

type performanceSample struct {
	ResponseTime float64 `json:"response_time"`
	Throughput   float64 `json:"throughput,omitempty"`
	ErrorRate    float64 `json:"error_rate,omitempty"`
}

type performanceFile struct {
	Current  *performanceSample `json:"current"`
	Baseline *performanceSample `json:"baseline"`
}

// Degraded reports whether the current response time exceeds the baseline
// by more than thresholdPercent. Malformed or incomplete metrics are not a
// degradation.
func Degraded(content []byte, thresholdPercent int) bool {
	var perf performanceFile
	if err := json.Unmarshal(content, &perf); err != nil {
		return false
	}
	if perf.Current == nil || perf.Baseline == nil || perf.Baseline.ResponseTime <= 0 {
		return false
	}
	if thresholdPercent <= 0 {
		thresholdPercent = defaultPerformanceThreshold
	}
	limit := perf.Baseline.ResponseTime * (1 + float64(thresholdPercent)/100)
	return perf.Current.ResponseTime > limit
}
