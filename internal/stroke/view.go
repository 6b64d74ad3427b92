package stroke

import (
	"mlpaint/pkg/geometry"
)

// Viewport maps between screen and image-world coordinates. View is the world-to-screen
// transform.
type Viewport interface {
	View() geometry.AffineTransform
}

// FromScreen converts a screen-space dab into a world-space event. The radius is scaled per
// axis through the inverse view, so an anisotropic zoom paints an ellipse. It returns false
// when the view is not invertible.
func FromScreen(vp Viewport, screen geometry.Point2D, radius float64, brush Brush) (Event, bool) {
	inv, ok := vp.View().Inverse()
	if !ok {
		return Event{}, false
	}
	sx, sy := inv.AxisScales()
	return Event{
		Center:  inv.Apply(screen),
		Radius:  radius * sx,
		RadiusY: radius * sy,
		Brush:   brush,
	}, true
}
