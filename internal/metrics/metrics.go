// Package metrics holds the scalar observables computed over simulation
// frames.
package metrics

import (
	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/physics"
)

// Default returns one fresh instance of every metric, in reporting order.
func Default(params physics.Params) []dynamo.Metric {
	return []dynamo.Metric{
		NewKineticEnergy(),
		NewMaxSpeed(),
		NewContainment(params),
		NewWallContacts(),
		NewPairContacts(),
		NewMeanHeight(),
	}
}
