package observability

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// NewRequestID tags one inbound request across log lines.
func NewRequestID() string {
	return uuid.NewString()
}

// SeverityObserver counts triage outcomes per severity tier and logs a
// warning line the first time RED outcomes cross the alert threshold within
// the process lifetime.
type SeverityObserver struct {
	logger *log.Logger

	mu           sync.Mutex
	counts       map[string]int64
	redAlertAt   int64
	alertedOnRed bool
}

func NewSeverityObserver(logger *log.Logger, redAlertAt int64) *SeverityObserver {
	if logger == nil {
		logger = log.Default()
	}
	if redAlertAt <= 0 {
		redAlertAt = 50
	}
	return &SeverityObserver{
		logger:     logger,
		counts:     make(map[string]int64),
		redAlertAt: redAlertAt,
	}
}

func (o *SeverityObserver) Record(requestID string, checkType string, severity string) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.counts[severity]++
	redCount := o.counts["RED"]
	alertNow := severity == "RED" && redCount >= o.redAlertAt && !o.alertedOnRed
	if alertNow {
		o.alertedOnRed = true
	}
	o.mu.Unlock()

	o.logger.Printf("triage outcome request_id=%s check_type=%s severity=%s", requestID, checkType, severity)
	if alertNow {
		o.logger.Printf("triage warning red_count=%d threshold=%d", redCount, o.redAlertAt)
	}
}

func (o *SeverityObserver) Count(severity string) int64 {
	if o == nil {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[severity]
}
