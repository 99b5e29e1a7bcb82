package domain

// GeoPoint represents a geographic coordinate (WGS 84 degrees).
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Bounds represents an axis-aligned geographic bounding box
// given by its south-west and north-east corners.
type Bounds struct {
	SouthWest GeoPoint `json:"south_west"`
	NorthEast GeoPoint `json:"north_east"`
}

// Valid reports whether the south-west corner does not exceed the
// north-east corner on either axis.
func (b Bounds) Valid() bool {
	return b.SouthWest.Latitude <= b.NorthEast.Latitude &&
		b.SouthWest.Longitude <= b.NorthEast.Longitude
}

// Contains reports whether p lies inside the box (inclusive).
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Latitude >= b.SouthWest.Latitude && p.Latitude <= b.NorthEast.Latitude &&
		p.Longitude >= b.SouthWest.Longitude && p.Longitude <= b.NorthEast.Longitude
}
