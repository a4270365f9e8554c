package gesture

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Drag is one pointer interaction from down to up
type Drag struct {
	Kind     Kind
	Target   Target
	Index    int
	DotPitch float64
	Start    Sample
	Last     Sample
	// drawer resting state when the drag began
	Drawer DrawerState

	velocities []float64
}

func newDrag(target Target, index int, start Sample, drawer DrawerState) *Drag {
	return &Drag{
		Target:     target,
		Index:      index,
		Start:      start,
		Last:       start,
		Drawer:     drawer,
		DotPitch:   DefaultDotPitch,
		velocities: make([]float64, 0, VelocityWindow),
	}
}

// sample records p and its instantaneous vertical velocity
func (d *Drag) sample(p Sample, height float64) {
	dt := float64(p.At.Sub(d.Last.At).Microseconds()) / 1000
	if dt > 0 && height > 0 {
		up := (d.Last.Y - p.Y) / height * 100
		if len(d.velocities) == VelocityWindow {
			copy(d.velocities, d.velocities[1:])
			d.velocities = d.velocities[:VelocityWindow-1]
		}
		d.velocities = append(d.velocities, up/dt)
	}
	d.Last = p
}

// Velocity is the mean of the recent instantaneous velocities
func (d *Drag) Velocity() float64 {
	if len(d.velocities) == 0 {
		return 0
	}
	return stat.Mean(d.velocities, nil)
}

// DX is the horizontal displacement in pixels
func (d *Drag) DX() float64 {
	return d.Last.X - d.Start.X
}

// DY is the vertical displacement in pixels, downward positive
func (d *Drag) DY() float64 {
	return d.Last.Y - d.Start.Y
}

// Up is the upward displacement in percent of height
func (d *Drag) Up(height float64) float64 {
	if height <= 0 {
		return 0
	}
	return -d.DY() / height * 100
}

// Shift is the number of dot slots the drag covers
func (d *Drag) Shift() int {
	pitch := d.DotPitch
	if pitch <= 0 {
		pitch = DefaultDotPitch
	}
	return int(math.Round(d.DX() / pitch))
}
