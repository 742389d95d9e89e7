package resorts

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/gjson"
)

// The label used for runs with no (or an empty) difficulty property.
const OTHER_DIFFICULTY string = "other"

func DeriveId(body []byte) (string, error) {

	id_rsp := gjson.GetBytes(body, "properties.id")

	if !id_rsp.Exists() {
		return "", fmt.Errorf("Missing id")
	}

	id := id_rsp.String()

	if id == "" {
		return "", fmt.Errorf("Empty id")
	}

	return id, nil
}

func DeriveName(body []byte) (string, error) {

	name_rsp := gjson.GetBytes(body, "properties.name")

	if !name_rsp.Exists() {
		return "", fmt.Errorf("Missing name")
	}

	name := name_rsp.String()

	if name == "" {
		return "", fmt.Errorf("Empty name")
	}

	return name, nil
}

func DeriveActivities(body []byte) []string {

	activities := make([]string, 0)

	rsp := gjson.GetBytes(body, "properties.activities")

	if !rsp.IsArray() {
		return activities
	}

	for _, a := range rsp.Array() {
		activities = append(activities, a.String())
	}

	return activities
}

// DeriveSkiAreaIds returns the ski area IDs a run or lift refers to, in the order they are listed.
// Entries that are not objects or that lack a non-empty properties.id are skipped.
func DeriveSkiAreaIds(body []byte) []string {

	ids := make([]string, 0)

	rsp := gjson.GetBytes(body, "properties.skiAreas")

	if !rsp.IsArray() {
		return ids
	}

	for _, sa := range rsp.Array() {

		if !sa.IsObject() {
			continue
		}

		id_rsp := sa.Get("properties.id")

		switch id_rsp.Type {
		case gjson.String, gjson.Number:
			// pass
		default:
			continue
		}

		id := id_rsp.String()

		if id == "" {
			continue
		}

		ids = append(ids, id)
	}

	return ids
}

func DeriveDifficulty(body []byte) string {

	rsp := gjson.GetBytes(body, "properties.difficulty")

	if !rsp.Exists() || rsp.Type == gjson.Null {
		return OTHER_DIFFICULTY
	}

	label := rsp.String()

	if label == "" {
		return OTHER_DIFFICULTY
	}

	return label
}

// DeriveLocation returns the display location for a ski area. Points are returned as-is. Polygons
// return the unweighted average of the vertices of their exterior ring, closing vertex included.
// Any other geometry, or no geometry at all, returns nil.
func DeriveLocation(body []byte) (*orb.Point, error) {

	geom_rsp := gjson.GetBytes(body, "geometry")

	if !geom_rsp.IsObject() {
		return nil, nil
	}

	switch geom_rsp.Get("type").String() {
	case "Point":

		if geom_rsp.Get("coordinates.#").Int() < 2 {
			return nil, nil
		}

	case "Polygon":

		if geom_rsp.Get("coordinates.0.#").Int() == 0 {
			return nil, nil
		}

	default:
		return nil, nil
	}

	geom, err := geojson.UnmarshalGeometry([]byte(geom_rsp.Raw))

	if err != nil {
		return nil, fmt.Errorf("Failed to unmarshal geometry, %w", err)
	}

	switch g := geom.Geometry().(type) {
	case orb.Point:
		return &g, nil
	case orb.Polygon:

		if len(g) == 0 || len(g[0]) == 0 {
			return nil, nil
		}

		pt := ringAverage(g[0])
		return &pt, nil
	default:
		return nil, nil
	}
}

func ringAverage(ring orb.Ring) orb.Point {

	var sum_x, sum_y float64

	for _, pt := range ring {
		sum_x += pt.X()
		sum_y += pt.Y()
	}

	n := float64(len(ring))
	return orb.Point{sum_x / n, sum_y / n}
}
