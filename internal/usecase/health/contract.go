package health

import "context"

// DBPinger checks audit store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// RecognizerChecker checks entity recognizer availability.
type RecognizerChecker interface {
	HealthCheck(ctx context.Context) error
}

// OCRChecker checks that the OCR engine can be initialized.
type OCRChecker interface {
	HealthCheck(ctx context.Context) error
}
