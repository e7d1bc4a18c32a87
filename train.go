package tinyrnn

import "github.com/pkg/errors"

// Datum is one training or test sample: an input vector and the target
// output vector it should produce.
type Datum struct {
	Inputs  []float64
	Targets []float64
}

// Fits reports whether d's dimensions match net's registered input/output
// counts.
func (d Datum) Fits(net *Network) bool {
	return len(d.Inputs) == len(net.inputs) && len(d.Targets) == len(net.outputs)
}

// DataSupplier is the source of samples for Network.Train, for both the
// training stream and, optionally, a held-out test stream.
type DataSupplier interface {
	// Get returns the sample to use at the given iteration.
	Get(iter int) (Datum, error)

	// Done reports whether the supplier has no more samples to give,
	// stopping training (or one round of testing) early.
	Done(iter int) bool
}

// Result is what TrainArgs.Update receives after a training step or a
// round of testing.
type Result struct {
	Iteration int
	Cost      float64
	IsTest    bool
}

// TrainArgs configures Network.Train's outer loop.
type TrainArgs struct {
	// Data supplies training samples. Required.
	Data DataSupplier

	// TestData, if non-nil, supplies samples Network.Test is run against
	// whenever ShouldTest returns true.
	TestData DataSupplier

	// ShouldTest reports whether a round of testing should run before the
	// given iteration. May be nil, meaning never.
	ShouldTest func(iter int) bool

	// RunCondition reports whether training should continue at the given
	// iteration. Training stops the first time it returns false. May be
	// nil, meaning run until Data.Done.
	RunCondition func(iter int) bool

	// Update, if non-nil, is called after every training step and every
	// round of testing.
	Update func(Result)
}

// Every returns a predicate that reports true once every n iterations
// (iteration 0 excluded), for use as TrainArgs.ShouldTest.
func Every(n int) func(int) bool {
	return func(iter int) bool {
		return iter > 0 && iter%n == 0
	}
}

// RunTraining runs args.Data through the Network with Feed+Train at the
// rate given by the Network's configured hyperparams.Schedule, until
// args.RunCondition returns false or args.Data.Done reports true. It fails
// with ErrNetworkNotFinalized if Finalize has not been called.
func (net *Network) RunTraining(args TrainArgs) error {
	if !net.finalized {
		return net.setError(errors.WithStack(ErrNetworkNotFinalized))
	}
	if args.Data == nil {
		return net.setError(errors.New("tinyrnn: TrainArgs.Data is nil"))
	}

	for {
		if args.Data.Done(net.iter) {
			return nil
		}
		if args.RunCondition != nil && !args.RunCondition(net.iter) {
			return nil
		}

		if args.ShouldTest != nil && args.TestData != nil && args.ShouldTest(net.iter) {
			cost, err := net.Test(args.TestData)
			if err != nil {
				return errors.Wrapf(err, "testing at iteration %d", net.iter)
			}
			if args.Update != nil {
				args.Update(Result{Iteration: net.iter, Cost: cost, IsTest: true})
			}
		}

		datum, err := args.Data.Get(net.iter)
		if err != nil {
			return errors.Wrapf(err, "fetching training datum at iteration %d", net.iter)
		}

		outs, err := net.Feed(datum.Inputs)
		if err != nil {
			return errors.Wrapf(err, "feeding training datum at iteration %d", net.iter)
		}

		rate := net.rate.Value(net.iter)
		if err := net.Train(rate, datum.Targets); err != nil {
			return errors.Wrapf(err, "training at iteration %d", net.iter)
		}

		if args.Update != nil {
			args.Update(Result{Iteration: net.iter, Cost: net.Cost(outs, datum.Targets)})
		}

		net.iter++
	}
}

// Test runs every sample from data through Feed (without training) and
// returns the average Network.Cost across them.
func (net *Network) Test(data DataSupplier) (float64, error) {
	var total float64
	var n int

	for iter := 0; !data.Done(iter); iter++ {
		datum, err := data.Get(iter)
		if err != nil {
			return 0, errors.Wrapf(err, "fetching test datum at iteration %d", iter)
		}

		outs, err := net.Feed(datum.Inputs)
		if err != nil {
			return 0, errors.Wrapf(err, "feeding test datum at iteration %d", iter)
		}

		total += net.Cost(outs, datum.Targets)
		n++
	}

	if n == 0 {
		return 0, nil
	}
	return total / float64(n), nil
}
