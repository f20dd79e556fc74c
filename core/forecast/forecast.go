// Package forecast predicts weekly sales for one SKU, category or supplier
// with a stacked LSTM trained on the smoothed weekly history.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/logger"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
	coremon "github.com/CodeRockstar24/SCM-PredictiveModelling/core/monitoring"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/eventbus"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/validate"
)

var (
	// ErrTimeStepsTooLarge is returned when no training window fits the series.
	ErrTimeStepsTooLarge = errors.New("time steps too large for the available data")
	// ErrUnsupportedLevel is returned for levels other than SKU, category and supplier.
	ErrUnsupportedLevel = errors.New("unsupported forecast level")
	// ErrNoData is returned when the item has no records.
	ErrNoData = errors.New("no records for item")
)

// InsufficientDataError reports a split too small for the requested window.
type InsufficientDataError struct {
	Need  int
	Train int
	Test  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("Need at least %d points in both train and test sets, got %d (train) and %d (test)", e.Need, e.Train, e.Test)
}

// Config holds model and preprocessing settings.
type Config struct {
	TimeSteps         int     `json:"time_steps"`
	Horizon           int     `json:"horizon"`
	Layers            []int   `json:"layers"`
	Dropout           float64 `json:"dropout"`
	Epochs            int     `json:"epochs"`
	BatchSize         int     `json:"batch_size"`
	LearningRate      float64 `json:"learning_rate"`
	Seed              uint64  `json:"seed"`
	RollingWindow     int     `json:"rolling_window"`
	TrainFraction     float64 `json:"train_fraction"`
	SignificanceLevel float64 `json:"significance_level"`
	MinExtra          int     `json:"min_extra"`
	Concurrency       int     `json:"concurrency"`
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.TimeSteps == 0 {
		c.TimeSteps = 24
	}
	if c.Horizon == 0 {
		c.Horizon = 52
	}
	if len(c.Layers) == 0 {
		c.Layers = []int{100, 100, 50}
	}
	if c.Dropout == 0 {
		c.Dropout = 0.3
	}
	if c.Epochs == 0 {
		c.Epochs = 200
	}
	if c.BatchSize == 0 {
		c.BatchSize = 16
	}
	if c.LearningRate == 0 {
		c.LearningRate = 0.001
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.RollingWindow == 0 {
		c.RollingWindow = 4
	}
	if c.TrainFraction == 0 {
		c.TrainFraction = 0.8
	}
	if c.SignificanceLevel == 0 {
		c.SignificanceLevel = 0.05
	}
	if c.MinExtra == 0 {
		c.MinExtra = 5
	}
	if c.Concurrency == 0 {
		c.Concurrency = 2
	}
}

// Validate checks ranges.
func (c Config) Validate() error {
	if c.TimeSteps < 4 || c.TimeSteps > 52 {
		return fmt.Errorf("forecast.time_steps must be in [4, 52]")
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("forecast.horizon must be positive")
	}
	for _, h := range c.Layers {
		if h <= 0 {
			return fmt.Errorf("forecast.layers must be positive")
		}
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("forecast.dropout must be in [0, 1)")
	}
	if c.Epochs <= 0 || c.BatchSize <= 0 || c.LearningRate <= 0 {
		return fmt.Errorf("forecast.epochs, batch_size and learning_rate must be positive")
	}
	if c.TrainFraction <= 0 || c.TrainFraction >= 1 {
		return fmt.Errorf("forecast.train_fraction must be in (0, 1)")
	}
	if c.RollingWindow <= 0 {
		return fmt.Errorf("forecast.rolling_window must be positive")
	}
	return nil
}

// Request selects the series to forecast. Zero TimeSteps and Horizon take
// the configured defaults.
type Request struct {
	Level     string `json:"level" validate:"required"`
	Item      string `json:"item" validate:"required"`
	TimeSteps int    `json:"time_steps" validate:"omitempty,gte=4,lte=52"`
	Horizon   int    `json:"horizon" validate:"omitempty,gte=1,lte=260"`
}

// Result is a completed forecast.
type Result struct {
	RunID       string          `json:"run_id"`
	Level       model.Dimension `json:"level"`
	Item        string          `json:"item"`
	TimeSteps   int             `json:"time_steps"`
	Stationary  *ADFResult      `json:"stationarity,omitempty"`
	Differenced bool            `json:"differenced"`
	Train       []Point         `json:"train"`
	Test        []Point         `json:"test"`
	Predictions []Point         `json:"predictions"`
	Future      []Point         `json:"future"`
	MAPE        float64         `json:"mape"`
	FinalLoss   float64         `json:"final_loss"`
	Started     time.Time       `json:"started"`
	Duration    time.Duration   `json:"duration"`
}

// Event reports training progress.
type Event struct {
	RunID  string
	Item   string
	Epoch  int
	Epochs int
	Loss   float64
}

// Forecaster runs forecasts with one configuration.
type Forecaster struct {
	cfg    Config
	events eventbus.Publisher[Event]
	log    logger.Logger
}

// New creates a Forecaster. events and log may be nil.
func New(cfg Config, events eventbus.Publisher[Event], log logger.Logger) *Forecaster {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Forecaster{cfg: cfg, events: events, log: log}
}

// Config returns the effective configuration.
func (f *Forecaster) Config() Config { return f.cfg }

func parseLevel(s string) (model.Dimension, error) {
	d, err := model.ParseDimension(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedLevel, s)
	}
	switch d {
	case model.DimSKU, model.DimCategory, model.DimSupplier:
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedLevel, s)
}

// Prepared is the preprocessed weekly series ready for training.
type Prepared struct {
	Stationary  *ADFResult
	Differenced bool
	Weekly      []Point
	Scaler      Scaler
	Scaled      []float64
	Split       int
}

// Prepare runs the stationarity check and the weekly smoothing steps. An
// ADF test that cannot be computed leaves the series undifferenced.
func (f *Forecaster) Prepare(ds *model.Dataset, level model.Dimension, item string) (Prepared, error) {
	sub := ds.Filter(level, item)
	if sub.Len() == 0 {
		return Prepared{}, fmt.Errorf("%s %q: %w", level, item, ErrNoData)
	}
	daily := DailyTotals(sub, model.SalesQuantity)
	var p Prepared
	adf, err := ADF(Values(daily))
	if err != nil {
		f.log.Warnf("stationarity check skipped for %s %q: %v", level, item, err)
	} else {
		p.Stationary = &adf
		if adf.PValue > f.cfg.SignificanceLevel {
			daily = Difference(daily)
			p.Differenced = true
		}
	}
	p.Weekly = RollingMean(WeeklySum(daily), f.cfg.RollingWindow)
	values := Values(p.Weekly)
	p.Scaler = FitScaler(values)
	p.Scaled = p.Scaler.Transform(values)
	p.Split = int(float64(len(values)) * f.cfg.TrainFraction)
	return p, nil
}

// Run forecasts one item.
func (f *Forecaster) Run(ctx context.Context, ds *model.Dataset, req Request) (Result, error) {
	if err := validate.Struct(req); err != nil {
		return Result{}, err
	}
	level, err := parseLevel(req.Level)
	if err != nil {
		return Result{}, err
	}
	ts := req.TimeSteps
	if ts == 0 {
		ts = f.cfg.TimeSteps
	}
	horizon := req.Horizon
	if horizon == 0 {
		horizon = f.cfg.Horizon
	}

	res := Result{RunID: uuid.NewString(), Level: level, Item: req.Item, TimeSteps: ts, Started: time.Now()}
	p, err := f.Prepare(ds, level, req.Item)
	if err != nil {
		return res, err
	}
	res.Stationary, res.Differenced = p.Stationary, p.Differenced

	need := ts + f.cfg.MinExtra
	train, test := p.Scaled[:p.Split], p.Scaled[p.Split:]
	if len(train) < need || len(test) < need {
		return res, &InsufficientDataError{Need: need, Train: len(train), Test: len(test)}
	}
	xTrain, yTrain := Windows(train, ts)
	xTest, _ := Windows(test, ts)
	if len(xTrain) == 0 || len(xTest) == 0 {
		return res, ErrTimeStepsTooLarge
	}
	res.Train = p.Weekly[:p.Split]
	res.Test = p.Weekly[p.Split:]

	net := NewNetwork(NetworkConfig{
		Layers:       f.cfg.Layers,
		Dropout:      f.cfg.Dropout,
		LearningRate: f.cfg.LearningRate,
		Seed:         f.cfg.Seed,
	})
	f.log.Infow("training forecast model", map[string]any{
		"run_id": res.RunID, "level": level.String(), "item": req.Item,
		"windows": len(xTrain), "time_steps": ts, "epochs": f.cfg.Epochs,
	})
	err = net.Fit(ctx, xTrain, yTrain, f.cfg.Epochs, f.cfg.BatchSize, func(epoch int, loss float64) {
		res.FinalLoss = loss
		if f.events != nil {
			f.events.Publish(Event{RunID: res.RunID, Item: req.Item, Epoch: epoch, Epochs: f.cfg.Epochs, Loss: loss})
		}
	})
	if err != nil {
		return res, fmt.Errorf("train: %w", err)
	}

	actual := make([]float64, len(xTest))
	predicted := make([]float64, len(xTest))
	res.Predictions = make([]Point, len(xTest))
	for i, x := range xTest {
		predicted[i] = p.Scaler.Inverse(net.Predict(x))
		actual[i] = res.Test[ts+i].Value
		res.Predictions[i] = Point{Date: res.Test[ts+i].Date, Value: predicted[i]}
	}
	res.MAPE = MAPE(actual, predicted)

	window := append([]float64(nil), test[len(test)-ts:]...)
	last := res.Test[len(res.Test)-1].Date
	res.Future = make([]Point, horizon)
	for i := range res.Future {
		next := net.Predict(window)
		window = append(window[1:], next)
		res.Future[i] = Point{Date: last.AddDate(0, 0, 7*(i+1)), Value: p.Scaler.Inverse(next)}
	}
	res.Duration = time.Since(res.Started)
	f.log.Infow("forecast complete", map[string]any{
		"run_id": res.RunID, "item": req.Item, "mape": res.MAPE, "duration": res.Duration.String(),
	})
	return res, nil
}

// BatchItem pairs a request with its outcome.
type BatchItem struct {
	Request Request
	Result  Result
	Err     error
}

// RunBatch forecasts several items concurrently. Individual failures are
// reported per item; only context cancellation aborts the batch.
func (f *Forecaster) RunBatch(ctx context.Context, ds *model.Dataset, reqs []Request) ([]BatchItem, error) {
	out := make([]BatchItem, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			defer coremon.Recover()
			res, err := f.Run(gctx, ds, req)
			out[i] = BatchItem{Request: req, Result: res, Err: err}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
