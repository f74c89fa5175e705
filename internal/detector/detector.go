package detector

// Detector is a strategy that determines if the worker is running.
// Implementations may check a PID number or the PID file record.
// It must be safe for concurrent use.
type Detector interface {
	// Alive returns true if the worker is detected as running.
	Alive() (bool, error)
	// Describe returns a human-readable description of the detection method.
	Describe() string
}

var (
	_ Detector = PIDDetector{}
	_ Detector = PIDFileDetector{}
)
