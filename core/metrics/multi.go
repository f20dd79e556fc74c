package metrics

import "errors"

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordForecast forwards to every sink and joins their errors.
func (m *MultiSink) RecordForecast(ev ForecastEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordForecast(ev))
	}
	return errors.Join(errs...)
}

// RecordDatasetLoad forwards dataset loads.
func (m *MultiSink) RecordDatasetLoad(ev DatasetLoadEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(DatasetLoadRecorder); ok {
			errs = append(errs, rec.RecordDatasetLoad(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordTestRun forwards test outcomes.
func (m *MultiSink) RecordTestRun(ev TestRunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TestRunRecorder); ok {
			errs = append(errs, rec.RecordTestRun(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordTrainingEpoch forwards training progress.
func (m *MultiSink) RecordTrainingEpoch(ev TrainingEpochEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TrainingRecorder); ok {
			errs = append(errs, rec.RecordTrainingEpoch(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordRequest forwards HTTP request metrics.
func (m *MultiSink) RecordRequest(ev RequestEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(RequestRecorder); ok {
			errs = append(errs, rec.RecordRequest(ev))
		}
	}
	return errors.Join(errs...)
}

// Close releases every sink exposing a Close method.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
