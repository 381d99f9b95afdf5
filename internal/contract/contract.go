// Package contract provides interfaces and shared configuration for the
// pipeline's external collaborators: data sources, sinks and the forecaster.
package contract

import (
	"context"

	"github.com/driftwatch/driftwatch/schema"
)

// Reader loads tabular data from a source. The core only requires the
// returned dataset's shape, not how it was obtained. Implementations own an
// after stage that wraps the loaded dataset.
type Reader interface {
	// Load reads the source into a dataset.
	Load(ctx context.Context) (schema.Dataset, error)
}

// Writer persists tabular data to a sink. Implementations own a before
// stage that wraps the dataset on its way out.
type Writer interface {
	// Write persists the dataset.
	Write(ctx context.Context, ds schema.Dataset) error
}

// Forecaster turns a history of observations into a quantile-annotated
// forecast. Output cells for future dates hold quantile-encoded text in the
// codec's wire format. The model call is the one genuinely long-running
// operation in the pipeline, hence the context.
type Forecaster interface {
	// Forecast produces horizon future rows from the history dataset.
	Forecast(ctx context.Context, history schema.Dataset, horizon int) (schema.Dataset, error)
}
