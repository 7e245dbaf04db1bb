package metrics

import "github.com/san-kum/cylsim/internal/dynamo"

// ContactRate averages one kind of contact count over the observed frames.
type ContactRate struct {
	name    string
	pick    func(dynamo.Contacts) int
	sum     int
	samples int
}

func NewWallContacts() *ContactRate {
	return &ContactRate{name: "wall_contacts", pick: func(c dynamo.Contacts) int { return c.Wall }}
}

func NewPairContacts() *ContactRate {
	return &ContactRate{name: "pair_contacts", pick: func(c dynamo.Contacts) int { return c.Pair }}
}

func (c *ContactRate) Name() string { return c.name }

func (c *ContactRate) Observe(f dynamo.Frame) {
	c.sum += c.pick(f.Contacts)
	c.samples++
}

func (c *ContactRate) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.sum) / float64(c.samples)
}

func (c *ContactRate) Reset() {
	c.sum = 0
	c.samples = 0
}
