// Package dataset provides the static inputs of the surge overlay: the
// boundary polygon and the zone catalog. Built-in San Francisco data is used
// unless a file is configured.
package dataset

import (
	"github.com/sells-group/hexzone/internal/geo"
	"github.com/sells-group/hexzone/internal/surge"
)

// SanFranciscoCenter is the default map center.
var SanFranciscoCenter = geo.GeoPoint{Lat: 37.7749, Lon: -122.4194}

// Boundary returns the built-in San Francisco boundary as a closed ring.
func Boundary() geo.Polygon {
	return geo.Polygon{
		{Lat: 37.78156937014928, Lon: -122.51060485839844},
		{Lat: 37.71668926284967, Lon: -122.49790191650392},
		{Lat: 37.73977029560411, Lon: -122.38391876220702},
		{Lat: 37.78781006166096, Lon: -122.3928451538086},
		{Lat: 37.804358908571395, Lon: -122.40829467773436},
		{Lat: 37.802460048862656, Lon: -122.47009277343749},
		{Lat: 37.78726741375342, Lon: -122.48554229736328},
		{Lat: 37.78156937014928, Lon: -122.51060485839844},
	}
}

// Catalog returns the built-in three-zone catalog.
func Catalog() surge.Catalog {
	return surge.Catalog{
		{Name: "downtown", Points: []geo.GeoPoint{
			{Lat: 37.78401144262929, Lon: -122.40975379943849},
			{Lat: 37.77702418710145, Lon: -122.41009712219238},
			{Lat: 37.772410879746595, Lon: -122.42271423339842},
		}},
		{Name: "mission", Points: []geo.GeoPoint{
			{Lat: 37.75571915770573, Lon: -122.4203109741211},
			{Lat: 37.7494757572745, Lon: -122.41387367248535},
		}},
		{Name: "north", Points: []geo.GeoPoint{
			{Lat: 37.794592824285104, Lon: -122.41653442382812},
			{Lat: 37.795813655432426, Lon: -122.42237091064453},
			{Lat: 37.7975770425844, Lon: -122.43352890014648},
			{Lat: 37.779805600955584, Lon: -122.41395950317383},
			{Lat: 37.78306175736387, Lon: -122.40966796874999},
			{Lat: 37.78631777032694, Lon: -122.40486145019531},
		}},
	}
}
