package geo

import "math"

// HexCorners returns the six corners of a hexagon centered at center with the
// given circumradius, followed by a copy of the first corner to close the
// ring. Corner i sits at 60°·i + 30°. Corners follow increasing angle, which
// is counter-clockwise in math convention but clockwise on a y-down screen;
// callers should treat the winding as consistent, not as a specific sense.
func HexCorners(center ScreenPoint, size float64) []ScreenPoint {
	corners := make([]ScreenPoint, 0, 7)
	for i := 0; i < 6; i++ {
		corners = append(corners, hexCorner(center, size, i))
	}
	return append(corners, corners[0])
}

func hexCorner(center ScreenPoint, size float64, i int) ScreenPoint {
	rad := float64(60*i+30) * math.Pi / 180
	return ScreenPoint{
		X: center.X + size*math.Cos(rad),
		Y: center.Y + size*math.Sin(rad),
	}
}
